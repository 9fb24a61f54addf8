package service

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"

	"github.com/sqids/sqids-go"
)

const (
	// Alphabet is the base62 set short ids are drawn from.
	Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	MinIDLength     = 7
	MaxIDLength     = 14
	DefaultIDLength = 10
)

// sqidsAlphabet is Alphabet shuffled, so sequential inputs do not look sequential.
const sqidsAlphabet = "k3G7QAe51FCsiWrNOYBUwM6XzZvdLT4j9JhyHKg2cVbxfERq0mSoI8lDpunPat"

func checkLength(n int) error {
	if n < MinIDLength || n > MaxIDLength {
		return fmt.Errorf("id length must be between %d and %d, got %d", MinIDLength, MaxIDLength, n)
	}
	return nil
}

// RandomGenerator draws every character independently from crypto/rand.
type RandomGenerator struct {
	length int
	max    *big.Int
}

func NewRandomGenerator(length int) (*RandomGenerator, error) {
	if err := checkLength(length); err != nil {
		return nil, err
	}

	return &RandomGenerator{
		length: length,
		max:    big.NewInt(int64(len(Alphabet))),
	}, nil
}

func (g *RandomGenerator) Generate() (string, error) {
	b := make([]byte, g.length)
	for i := range b {
		n, err := rand.Int(rand.Reader, g.max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		b[i] = Alphabet[n.Int64()]
	}
	return string(b), nil
}

// SqidsGenerator encodes a random number with sqids. sqids spends one
// character on a prefix and encodes the rest in base 61, so the number is
// drawn below 61^(length-1) and every id comes out exactly length long.
type SqidsGenerator struct {
	bound *big.Int
	sq    *sqids.Sqids
}

// MinSqidsLength is the shortest sqids id whose space still covers 62^7.
const MinSqidsLength = 9

func NewSqidsGenerator(length int) (*SqidsGenerator, error) {
	if err := checkLength(length); err != nil {
		return nil, err
	}
	if length < MinSqidsLength {
		return nil, fmt.Errorf("sqids ids must be at least %d chars, got %d", MinSqidsLength, length)
	}

	sq, err := sqids.New(sqids.Options{
		Alphabet:  sqidsAlphabet,
		MinLength: uint8(length),
	})
	if err != nil {
		return nil, fmt.Errorf("sqids init: %w", err)
	}

	bound := new(big.Int).Exp(big.NewInt(int64(len(sqidsAlphabet)-1)), big.NewInt(int64(length-1)), nil)
	if maxU64 := new(big.Int).SetUint64(math.MaxUint64); bound.Cmp(maxU64) > 0 {
		bound = maxU64
	}

	return &SqidsGenerator{bound: bound, sq: sq}, nil
}

func (g *SqidsGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, g.bound)
	if err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}

	id, err := g.sq.Encode([]uint64{n.Uint64()})
	if err != nil {
		return "", fmt.Errorf("sqids encode: %w", err)
	}
	return id, nil
}

// NewGenerator builds the generator named by strategy ("random" or "sqids").
func NewGenerator(strategy string, length int) (IDGenerator, error) {
	switch strategy {
	case "", "random":
		return NewRandomGenerator(length)
	case "sqids":
		return NewSqidsGenerator(length)
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}

// Command tokengen prints a bearer token for the given user id, signed with
// the same secret the server reads from JWT_SECRET.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/atinyakov/linkshelf/internal/app/service"
)

func main() {
	if err := generate(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "tokengen:", err)
		panic(err)
	}
}

func generate(args []string) error {
	_ = godotenv.Load(".env")

	fs := flag.NewFlagSet("tokengen", flag.ContinueOnError)
	user := fs.String("u", "", "user id to put into the token")
	secret := fs.String("s", os.Getenv("JWT_SECRET"), "signing secret (JWT_SECRET)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *user == "" {
		return errors.New("user id is required (-u)")
	}
	if *secret == "" {
		return errors.New("secret is required (-s or JWT_SECRET)")
	}

	token, err := service.NewAuth(*secret).BuildJWTString(*user)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	fmt.Println(token)
	return nil
}

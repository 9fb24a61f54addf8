// Package repository is the PostgreSQL-backed Store, connected through
// the pgx database/sql driver.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/atinyakov/linkshelf/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS url_records (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	short_id TEXT UNIQUE NOT NULL,
	long_url TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	owner_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS url_records_owner_id_idx ON url_records (owner_id, created_at);`

const columns = "id, short_id, long_url, title, owner_id, created_at, updated_at"

// InitDB opens the pool, checks connectivity and makes sure the table exists.
func InitDB(ctx context.Context, dsn string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("Database connected and table ready.")
	return db, nil
}

// Migrate creates the url_records table and its owner index if missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

type URLRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func CreateURLRepository(db *sql.DB, logger *zap.Logger) *URLRepository {
	return &URLRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*storage.URLRecord, error) {
	var r storage.URLRecord
	if err := row.Scan(&r.ID, &r.ShortID, &r.LongURL, &r.Title, &r.OwnerID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts r; the database assigns id and timestamps. The unique
// constraint on short_id makes the collision check atomic.
func (r *URLRepository) Create(ctx context.Context, v storage.URLRecord) (*storage.URLRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"INSERT INTO url_records (short_id, long_url, title, owner_id) VALUES ($1, $2, $3, $4) RETURNING "+columns+";",
		v.ShortID, v.LongURL, v.Title, v.OwnerID,
	)

	created, err := scanRecord(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, storage.ErrDuplicateShortID
		}
		r.logger.Error("insert failed", zap.String("shortId", v.ShortID), zap.Error(err))
		return nil, fmt.Errorf("insert url record: %w", err)
	}

	return created, nil
}

func (r *URLRepository) FindByShortID(ctx context.Context, shortID string) (*storage.URLRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+columns+" FROM url_records WHERE short_id = $1;", shortID)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select by short id: %w", err)
	}

	return rec, nil
}

func (r *URLRepository) FindByOwnerID(ctx context.Context, ownerID string) ([]storage.URLRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+columns+" FROM url_records WHERE owner_id = $1 ORDER BY created_at;", ownerID)
	if err != nil {
		return nil, fmt.Errorf("select by owner: %w", err)
	}
	defer rows.Close()

	records := make([]storage.URLRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan url record: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate url records: %w", err)
	}

	return records, nil
}

func (r *URLRepository) DeleteByShortID(ctx context.Context, shortID string) (*storage.URLRecord, error) {
	row := r.db.QueryRowContext(ctx, "DELETE FROM url_records WHERE short_id = $1 RETURNING "+columns+";", shortID)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("delete by short id: %w", err)
	}

	return rec, nil
}

func (r *URLRepository) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

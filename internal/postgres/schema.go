package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema bootstraps the tables on startup. Single-process deployment,
// so plain IF NOT EXISTS is enough here.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id          TEXT PRIMARY KEY,
			sku         TEXT UNIQUE NOT NULL,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price       DOUBLE PRECISION NOT NULL CHECK (price >= 0),
			stock       INT NOT NULL CHECK (stock >= 0),
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id               TEXT PRIMARY KEY,
			session_id       TEXT NOT NULL,
			customer_name    TEXT NOT NULL,
			customer_phone   TEXT NOT NULL,
			customer_address TEXT NOT NULL,
			pickup_point     TEXT NOT NULL,
			total            DOUBLE PRECISION NOT NULL,
			status           TEXT NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id         BIGSERIAL PRIMARY KEY,
			order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id TEXT NOT NULL,
			qty        INT NOT NULL,
			price      DOUBLE PRECISION NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// internal/adapters/db/unit_of_work.go
package db

import (
	"context"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ammerola/stockledger-be/internal/core/ports"
)

// psql builds postgres statements with $n placeholders
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// UnitOfWork hands out repositories bound to the pool or to one transaction
type UnitOfWork struct {
	db     *Database
	logger *slog.Logger
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// NewUnitOfWork creates a unit of work over db
func NewUnitOfWork(db *Database, logger *slog.Logger) *UnitOfWork {
	return &UnitOfWork{db: db, logger: logger}
}

// Repositories returns repositories running on the pool, outside any transaction
func (u *UnitOfWork) Repositories() ports.Repositories {
	return newRepositories(u.db.pool, u.logger)
}

// Within runs fn in a transaction. Row locks taken through the repositories
// are held until fn returns; an error from fn rolls everything back.
func (u *UnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	return u.db.Transaction(ctx, func(tx pgx.Tx) error {
		return fn(ctx, newRepositories(tx, u.logger))
	})
}

func newRepositories(q querier, logger *slog.Logger) ports.Repositories {
	return ports.Repositories{
		Users:   NewUserRepository(q, logger),
		Catalog: NewCatalogRepository(q, logger),
		Sales:   NewSaleRepository(q, logger),
	}
}

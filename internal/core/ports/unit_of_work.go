// internal/core/ports/unit_of_work.go
package ports

import "context"

// Repositories groups the repositories sharing one connection or transaction
type Repositories struct {
	Users   UserRepository
	Catalog CatalogRepository
	Sales   SaleRepository
}

// UnitOfWork runs work against the pool or inside a single transaction.
// fn's error rolls the transaction back.
type UnitOfWork interface {
	Repositories() Repositories
	Within(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// internal/adapters/db/catalog_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
)

var stockItemColumns = []string{
	"id", "owner_id", "kind", "name", "state",
	"purchase_price", "sale_price", "quantity",
	"description", "cost",
	"registered_at", "updated_at",
}

// CatalogRepository implements ports.CatalogRepository
type CatalogRepository struct {
	q      querier
	logger *slog.Logger
}

var _ ports.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository creates a catalog repository over q
func NewCatalogRepository(q querier, logger *slog.Logger) *CatalogRepository {
	return &CatalogRepository{
		q:      q,
		logger: logger.With(slog.String("repository", "catalog")),
	}
}

// Insert stores a new stock item
func (r *CatalogRepository) Insert(ctx context.Context, item *domain.StockItem) error {
	query, args, err := insertItemQuery(item).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert stock item: %w", err)
	}

	r.logger.DebugContext(ctx, "stock item inserted",
		slog.String("item_id", item.ID.String()),
		slog.String("kind", string(item.Kind)))

	return nil
}

// InsertBatch stores many items in one round trip
func (r *CatalogRepository) InsertBatch(ctx context.Context, items []*domain.StockItem) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, item := range items {
		query, args, err := insertItemQuery(item).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert query: %w", err)
		}
		batch.Queue(query, args...)
	}

	br := r.q.SendBatch(ctx, batch)
	defer br.Close()

	for i := range items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert item %d: %w", i, err)
		}
	}

	return nil
}

func insertItemQuery(item *domain.StockItem) squirrel.InsertBuilder {
	purchase, sale, qty, desc, cost := itemDetailArgs(item)
	return psql.Insert("stock_items").
		Columns(stockItemColumns...).
		Values(
			item.ID, item.OwnerID, string(item.Kind), item.Name, string(item.State),
			purchase, sale, qty,
			desc, cost,
			item.RegisteredAt, item.UpdatedAt,
		)
}

// itemDetailArgs flattens the kind-specific payload into nullable columns
func itemDetailArgs(item *domain.StockItem) (purchase, sale decimal.NullDecimal, qty *int, desc *string, cost decimal.NullDecimal) {
	if item.Product != nil {
		purchase = decimal.NewNullDecimal(item.Product.PurchasePrice)
		sale = decimal.NewNullDecimal(item.Product.SalePrice)
		q := item.Product.Quantity
		qty = &q
	}
	if item.Service != nil {
		d := item.Service.Description
		desc = &d
		cost = decimal.NewNullDecimal(item.Service.Cost)
	}
	return purchase, sale, qty, desc, cost
}

// Update saves every mutable field of item
func (r *CatalogRepository) Update(ctx context.Context, item *domain.StockItem) error {
	purchase, sale, qty, desc, cost := itemDetailArgs(item)

	query, args, err := psql.Update("stock_items").
		Set("name", item.Name).
		Set("state", string(item.State)).
		Set("purchase_price", purchase).
		Set("sale_price", sale).
		Set("quantity", qty).
		Set("description", desc).
		Set("cost", cost).
		Set("updated_at", item.UpdatedAt).
		Where("id = ? AND owner_id = ?", item.ID, item.OwnerID).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update stock item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}

	return nil
}

// FindByID returns the owner's item or nil
func (r *CatalogRepository) FindByID(ctx context.Context, ownerID, itemID uuid.UUID) (*domain.StockItem, error) {
	query, args, err := psql.Select(stockItemColumns...).
		From("stock_items").
		Where("id = ? AND owner_id = ?", itemID, ownerID).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	item, err := scanOne(r.q.QueryRow(ctx, query, args...), scanStockItem)
	if err != nil {
		return nil, fmt.Errorf("failed to find stock item: %w", err)
	}
	return item, nil
}

// FindForUpdate locks the owner's items in id order so that concurrent
// transactions acquire them in the same sequence.
func (r *CatalogRepository) FindForUpdate(ctx context.Context, ownerID uuid.UUID, itemIDs []uuid.UUID) (map[uuid.UUID]*domain.StockItem, error) {
	found := make(map[uuid.UUID]*domain.StockItem, len(itemIDs))
	if len(itemIDs) == 0 {
		return found, nil
	}

	query, args, err := psql.Select(stockItemColumns...).
		From("stock_items").
		Where("owner_id = ?", ownerID).
		Where(squirrel.Eq{"id": itemIDs}).
		OrderBy("id").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock items: %w", err)
	}
	items, err := scanMany(rows, scanStockItem)
	if err != nil {
		return nil, fmt.Errorf("failed to scan stock items: %w", err)
	}

	for _, item := range items {
		found[item.ID] = item
	}
	return found, nil
}

// List returns the owner's items, newest registration first
func (r *CatalogRepository) List(ctx context.Context, ownerID uuid.UUID, filter ports.CatalogFilter) ([]*domain.StockItem, error) {
	qb := psql.Select(stockItemColumns...).
		From("stock_items").
		Where("owner_id = ?", ownerID).
		OrderBy("registered_at DESC", "id")

	if filter.Kind != "" {
		qb = qb.Where(squirrel.Eq{"kind": string(filter.Kind)})
	}
	if filter.State != "" {
		qb = qb.Where(squirrel.Eq{"state": string(filter.State)})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock items: %w", err)
	}
	items, err := scanMany(rows, scanStockItem)
	if err != nil {
		return nil, fmt.Errorf("failed to scan stock items: %w", err)
	}
	if items == nil {
		items = []*domain.StockItem{}
	}
	return items, nil
}

func scanStockItem(row pgx.Row) (*domain.StockItem, error) {
	var (
		item           domain.StockItem
		kind, state    string
		purchase, sale decimal.NullDecimal
		cost           decimal.NullDecimal
		qty            *int
		description    *string
	)

	err := row.Scan(
		&item.ID, &item.OwnerID, &kind, &item.Name, &state,
		&purchase, &sale, &qty,
		&description, &cost,
		&item.RegisteredAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Kind = domain.ItemKind(kind)
	item.State = domain.ItemState(state)

	switch item.Kind {
	case domain.KindProduct:
		item.Product = &domain.ProductDetails{
			PurchasePrice: purchase.Decimal,
			SalePrice:     sale.Decimal,
		}
		if qty != nil {
			item.Product.Quantity = *qty
		}
	case domain.KindService:
		item.Service = &domain.ServiceDetails{Cost: cost.Decimal}
		if description != nil {
			item.Service.Description = *description
		}
	}

	return &item, nil
}

// internal/adapters/db/sale_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
)

var (
	saleColumns     = []string{"id", "owner_id", "created_at", "total_price"}
	saleItemColumns = []string{"sale_id", "position", "stock_item_id", "kind", "name", "quantity", "unit_price", "subtotal"}
)

// SaleRepository implements ports.SaleRepository
type SaleRepository struct {
	q      querier
	logger *slog.Logger
}

var _ ports.SaleRepository = (*SaleRepository)(nil)

// NewSaleRepository creates a sale repository over q
func NewSaleRepository(q querier, logger *slog.Logger) *SaleRepository {
	return &SaleRepository{
		q:      q,
		logger: logger.With(slog.String("repository", "sales")),
	}
}

// Insert writes the sale and its lines. Run it inside a transaction so
// that a failing line leaves no header behind.
func (r *SaleRepository) Insert(ctx context.Context, sale *domain.Sale) error {
	query, args, err := psql.Insert("sales").
		Columns(saleColumns...).
		Values(sale.ID, sale.OwnerID, sale.CreatedAt, sale.TotalPrice).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}

	if len(sale.Items) == 0 {
		return nil
	}

	lines := psql.Insert("sale_items").Columns(saleItemColumns...)
	for i, line := range sale.Items {
		lines = lines.Values(sale.ID, i, line.StockItemID, string(line.Kind), line.Name,
			line.Quantity, line.UnitPrice, line.Subtotal)
	}
	query, args, err = lines.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sale items query: %w", err)
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert sale items: %w", err)
	}

	r.logger.DebugContext(ctx, "sale inserted",
		slog.String("sale_id", sale.ID.String()),
		slog.Int("lines", len(sale.Items)))

	return nil
}

// FindByID returns the sale with its lines, or nil
func (r *SaleRepository) FindByID(ctx context.Context, saleID uuid.UUID) (*domain.Sale, error) {
	return r.findOne(ctx, psql.Select(saleColumns...).From("sales").Where("id = ?", saleID))
}

// FindByIDForUpdate locks the sale row until the transaction ends
func (r *SaleRepository) FindByIDForUpdate(ctx context.Context, saleID uuid.UUID) (*domain.Sale, error) {
	return r.findOne(ctx, psql.Select(saleColumns...).From("sales").Where("id = ?", saleID).Suffix("FOR UPDATE"))
}

func (r *SaleRepository) findOne(ctx context.Context, qb squirrel.SelectBuilder) (*domain.Sale, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	sale, err := scanOne(r.q.QueryRow(ctx, query, args...), scanSale)
	if err != nil {
		return nil, fmt.Errorf("failed to find sale: %w", err)
	}
	if sale == nil {
		return nil, nil
	}

	if err := r.attachLines(ctx, []*domain.Sale{sale}); err != nil {
		return nil, err
	}
	return sale, nil
}

// FindByOwner returns the owner's sales newest first
func (r *SaleRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter ports.SaleFilter) ([]*domain.Sale, error) {
	qb := psql.Select(saleColumns...).
		From("sales").
		Where("owner_id = ?", ownerID).
		OrderBy("created_at DESC", "id DESC")

	if !filter.From.IsZero() {
		qb = qb.Where(squirrel.GtOrEq{"created_at": filter.From})
	}
	if !filter.To.IsZero() {
		qb = qb.Where(squirrel.Lt{"created_at": filter.To})
	}
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	sales, err := scanMany(rows, scanSale)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sales: %w", err)
	}
	if len(sales) == 0 {
		return []*domain.Sale{}, nil
	}

	if err := r.attachLines(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// attachLines loads the lines of every sale with one query
func (r *SaleRepository) attachLines(ctx context.Context, sales []*domain.Sale) error {
	byID := make(map[uuid.UUID]*domain.Sale, len(sales))
	ids := make([]uuid.UUID, 0, len(sales))
	for _, s := range sales {
		s.Items = []domain.SaleLine{}
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	query, args, err := psql.Select(saleItemColumns...).
		From("sale_items").
		Where(squirrel.Eq{"sale_id": ids}).
		OrderBy("sale_id", "position").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sale items query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			saleID   uuid.UUID
			position int
			kind     string
			line     domain.SaleLine
		)
		if err := rows.Scan(&saleID, &position, &line.StockItemID, &kind, &line.Name,
			&line.Quantity, &line.UnitPrice, &line.Subtotal); err != nil {
			return fmt.Errorf("failed to scan sale item: %w", err)
		}
		line.Kind = domain.ItemKind(kind)
		if s, ok := byID[saleID]; ok {
			s.Items = append(s.Items, line)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate sale items: %w", err)
	}

	return nil
}

// DeleteByID removes the sale; its lines go with it through the cascade
func (r *SaleRepository) DeleteByID(ctx context.Context, saleID uuid.UUID) error {
	query, args, err := psql.Delete("sales").Where("id = ?", saleID).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSaleNotFound
	}

	r.logger.DebugContext(ctx, "sale deleted", slog.String("sale_id", saleID.String()))
	return nil
}

// Summarize aggregates the owner's sales in [from, to)
func (r *SaleRepository) Summarize(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (*domain.SalesSummary, error) {
	query, args, err := psql.Select("COUNT(*)", "COALESCE(SUM(s.total_price), 0)").
		Column(`COALESCE((
			SELECT SUM(si.quantity) FROM sale_items si
			JOIN sales s2 ON s2.id = si.sale_id
			WHERE s2.owner_id = ? AND s2.created_at >= ? AND s2.created_at < ?
		), 0)`, ownerID, from, to).
		From("sales s").
		Where("s.owner_id = ? AND s.created_at >= ? AND s.created_at < ?", ownerID, from, to).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build summary query: %w", err)
	}

	summary := &domain.SalesSummary{OwnerID: ownerID, From: from, To: to}
	var revenue decimal.Decimal
	if err := r.q.QueryRow(ctx, query, args...).Scan(&summary.SaleCount, &revenue, &summary.UnitsSold); err != nil {
		return nil, fmt.Errorf("failed to summarize sales: %w", err)
	}
	summary.Revenue = revenue

	return summary, nil
}

func scanSale(row pgx.Row) (*domain.Sale, error) {
	var s domain.Sale
	if err := row.Scan(&s.ID, &s.OwnerID, &s.CreatedAt, &s.TotalPrice); err != nil {
		return nil, err
	}
	return &s, nil
}

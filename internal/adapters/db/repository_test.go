package db

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger-be/internal/core/domain"
)

func TestItemDetailArgs(t *testing.T) {
	t.Run("product_fills_product_columns", func(t *testing.T) {
		item := &domain.StockItem{
			Kind:    domain.KindProduct,
			Product: &domain.ProductDetails{PurchasePrice: decimal.NewFromInt(3), SalePrice: decimal.NewFromInt(7), Quantity: 4},
		}
		purchase, sale, qty, desc, cost := itemDetailArgs(item)
		assert.True(t, purchase.Valid)
		assert.True(t, sale.Decimal.Equal(decimal.NewFromInt(7)))
		require.NotNil(t, qty)
		assert.Equal(t, 4, *qty)
		assert.Nil(t, desc)
		assert.False(t, cost.Valid)
	})

	t.Run("service_fills_service_columns", func(t *testing.T) {
		item := &domain.StockItem{
			Kind:    domain.KindService,
			Service: &domain.ServiceDetails{Description: "Repair", Cost: decimal.NewFromInt(50)},
		}
		purchase, sale, qty, desc, cost := itemDetailArgs(item)
		assert.False(t, purchase.Valid)
		assert.False(t, sale.Valid)
		assert.Nil(t, qty)
		require.NotNil(t, desc)
		assert.Equal(t, "Repair", *desc)
		assert.True(t, cost.Valid)
	})
}

func TestStockItemQueries(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	query, args, err := psql.Select(stockItemColumns...).
		From("stock_items").
		Where("owner_id = ?", uuid.New()).
		Where(map[string]interface{}{"id": ids}).
		OrderBy("id").
		Suffix("FOR UPDATE").
		ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "owner_id = $1")
	assert.Contains(t, query, "id IN ($2,$3)")
	assert.Contains(t, query, "FOR UPDATE")
	assert.Len(t, args, 3)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(fmt.Errorf("boom")))
}

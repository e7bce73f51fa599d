// test/benchmarks/helpers.go
package benchmarks

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockledger-be/internal/core/domain"
)

// catalogFixture builds n products with plenty of stock and their lookup
func catalogFixture(ownerID uuid.UUID, n int) (map[uuid.UUID]*domain.StockItem, []uuid.UUID) {
	items := make(map[uuid.UUID]*domain.StockItem, n)
	ids := make([]uuid.UUID, 0, n)
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		item, err := domain.NewProduct(ownerID, fmt.Sprintf("Product %d", i),
			decimal.NewFromInt(int64(i+1)), decimal.NewFromInt(int64(2*i+3)), 1_000_000, now)
		if err != nil {
			panic(err)
		}
		items[item.ID] = item
		ids = append(ids, item.ID)
	}
	return items, ids
}

// workbookFixture renders a product sheet with rows data rows
func workbookFixture(rows int) []byte {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		panic(err)
	}
	header := sheet.AddRow()
	for _, h := range []string{"Name", "Purchase Price", "Sale Price", "Quantity"} {
		header.AddCell().SetString(h)
	}
	for i := 0; i < rows; i++ {
		row := sheet.AddRow()
		row.AddCell().SetString(fmt.Sprintf("Imported item %d", i))
		row.AddCell().SetString("4.25")
		row.AddCell().SetString("$9.99")
		row.AddCell().SetInt(i % 50)
	}
	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

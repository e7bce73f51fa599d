// internal/core/domain/sale.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleLine is an immutable snapshot of one sold item.
// StockItemID is a weak reference; the item may no longer exist.
type SaleLine struct {
	StockItemID uuid.UUID       `json:"stock_item_id"`
	Kind        ItemKind        `json:"kind"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Sale is a ledger entry
type Sale struct {
	ID         uuid.UUID       `json:"id"`
	OwnerID    uuid.UUID       `json:"owner_id"`
	CreatedAt  time.Time       `json:"created_at"`
	Items      []SaleLine      `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// LineRequest asks for quantity units of one stock item
type LineRequest struct {
	StockItemID uuid.UUID `json:"stock_item_id"`
	Quantity    int       `json:"quantity"`
}

// ItemLookup resolves an item of the selling owner; nil when absent.
type ItemLookup func(id uuid.UUID) *StockItem

// NewSaleLine snapshots an item at sale time
func NewSaleLine(item *StockItem, quantity int) SaleLine {
	unit := item.UnitPrice()
	return SaleLine{
		StockItemID: item.ID,
		Kind:        item.Kind,
		Name:        item.Name,
		Quantity:    quantity,
		UnitPrice:   unit,
		Subtotal:    unit.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// CalculateTotal sums line subtotals into TotalPrice
func (s *Sale) CalculateTotal() {
	total := decimal.Zero
	for _, line := range s.Items {
		total = total.Add(line.Subtotal)
	}
	s.TotalPrice = total
}

// UnitsSold counts every unit across lines
func (s *Sale) UnitsSold() int {
	n := 0
	for _, line := range s.Items {
		n += line.Quantity
	}
	return n
}

// BuildSale validates every requested line before touching any item, then
// debits products and returns the sale with the items it mutated. On error
// nothing has been mutated.
func BuildSale(ownerID uuid.UUID, lines []LineRequest, lookup ItemLookup, now time.Time) (*Sale, []*StockItem, error) {
	if len(lines) == 0 {
		return nil, nil, ErrEmptySale
	}

	// Repeated lines for one product draw on the same stock.
	requested := make(map[uuid.UUID]int, len(lines))
	resolved := make([]*StockItem, len(lines))

	for idx, line := range lines {
		item := lookup(line.StockItemID)
		if item == nil || item.OwnerID != ownerID {
			return nil, nil, &SaleError{Kind: ErrItemNotFound, LineIndex: idx, ItemID: line.StockItemID}
		}
		if !item.IsActive() {
			return nil, nil, &SaleError{Kind: ErrItemNotActive, LineIndex: idx, ItemID: item.ID}
		}
		if line.Quantity < 1 {
			return nil, nil, &SaleError{Kind: ErrInvalidQuantity, LineIndex: idx, ItemID: item.ID, Requested: line.Quantity}
		}
		if item.Kind == KindProduct {
			requested[item.ID] += line.Quantity
			if requested[item.ID] > item.Product.Quantity {
				return nil, nil, &SaleError{
					Kind:      ErrInsufficientStock,
					LineIndex: idx,
					ItemID:    item.ID,
					Requested: requested[item.ID],
					Available: item.Product.Quantity,
				}
			}
		}
		resolved[idx] = item
	}

	sale := &Sale{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		CreatedAt: now,
		Items:     make([]SaleLine, 0, len(lines)),
	}

	var mutated []*StockItem
	seen := make(map[uuid.UUID]bool)
	for idx, line := range lines {
		item := resolved[idx]
		sale.Items = append(sale.Items, NewSaleLine(item, line.Quantity))
		if item.Kind != KindProduct {
			continue
		}
		if err := item.Debit(line.Quantity); err != nil {
			// unreachable after validation
			return nil, nil, &SaleError{Kind: err, LineIndex: idx, ItemID: item.ID}
		}
		item.UpdatedAt = now
		if !seen[item.ID] {
			seen[item.ID] = true
			mutated = append(mutated, item)
		}
	}
	sale.CalculateTotal()

	return sale, mutated, nil
}

// RestoreResult lists what a cancellation did to the catalog
type RestoreResult struct {
	Restored []*StockItem
	Skipped  []uuid.UUID
}

// RestoreSale credits every product line back to its item. Lines whose item
// is gone are skipped rather than failing the cancellation.
func RestoreSale(sale *Sale, lookup ItemLookup, now time.Time) RestoreResult {
	var result RestoreResult
	seen := make(map[uuid.UUID]bool)

	for _, line := range sale.Items {
		if line.Kind != KindProduct {
			continue
		}
		item := lookup(line.StockItemID)
		if item == nil || item.Kind != KindProduct {
			result.Skipped = append(result.Skipped, line.StockItemID)
			continue
		}
		item.Restore(line.Quantity)
		item.UpdatedAt = now
		if !seen[item.ID] {
			seen[item.ID] = true
			result.Restored = append(result.Restored, item)
		}
	}

	return result
}

// ProductLineIDs returns the distinct item ids of product lines
func (s *Sale) ProductLineIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Items))
	seen := make(map[uuid.UUID]bool)
	for _, line := range s.Items {
		if line.Kind == KindProduct && !seen[line.StockItemID] {
			seen[line.StockItemID] = true
			ids = append(ids, line.StockItemID)
		}
	}
	return ids
}

// DistinctItemIDs returns the distinct requested item ids in request order
func DistinctItemIDs(lines []LineRequest) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]bool)
	for _, l := range lines {
		if !seen[l.StockItemID] {
			seen[l.StockItemID] = true
			ids = append(ids, l.StockItemID)
		}
	}
	return ids
}

// SalesSummary aggregates an owner's ledger over a window
type SalesSummary struct {
	OwnerID   uuid.UUID       `json:"owner_id"`
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	SaleCount int             `json:"sale_count"`
	UnitsSold int             `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

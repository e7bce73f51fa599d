// internal/core/domain/stock_item.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemKind discriminates the stock item payload
type ItemKind string

// Kind constants
const (
	KindProduct ItemKind = "product"
	KindService ItemKind = "service"
)

// ItemState is the lifecycle state of a stock item
type ItemState string

// State constants
const (
	StateActive   ItemState = "active"
	StateInactive ItemState = "inactive"
	StateDepleted ItemState = "depleted"
)

// MaxItemNameLength bounds stock item names
const MaxItemNameLength = 50

// MoneyScale is the number of decimal places stored for amounts
const MoneyScale = 2

// IsCents reports whether d fits the stored money scale without rounding.
// Trailing zeros such as 1.500 are accepted.
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// ProductDetails holds the fields only products carry
type ProductDetails struct {
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	Quantity      int             `json:"quantity"`
}

// ServiceDetails holds the fields only services carry
type ServiceDetails struct {
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
}

// StockItem is one product or service in an owner's catalog.
// Exactly one of Product and Service is set, matching Kind.
type StockItem struct {
	ID           uuid.UUID       `json:"id"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	Kind         ItemKind        `json:"kind"`
	Name         string          `json:"name"`
	State        ItemState       `json:"state"`
	Product      *ProductDetails `json:"product,omitempty"`
	Service      *ServiceDetails `json:"service,omitempty"`
	RegisteredAt time.Time       `json:"registered_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewProduct builds a product entry; state follows quantity.
func NewProduct(ownerID uuid.UUID, name string, purchasePrice, salePrice decimal.Decimal, quantity int, now time.Time) (*StockItem, error) {
	item := &StockItem{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Kind:    KindProduct,
		Name:    strings.TrimSpace(name),
		State:   StateActive,
		Product: &ProductDetails{
			PurchasePrice: purchasePrice,
			SalePrice:     salePrice,
			Quantity:      quantity,
		},
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	item.SyncState()
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// NewService builds a service entry in the active state.
func NewService(ownerID uuid.UUID, name, description string, cost decimal.Decimal, now time.Time) (*StockItem, error) {
	item := &StockItem{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Kind:    KindService,
		Name:    strings.TrimSpace(name),
		State:   StateActive,
		Service: &ServiceDetails{
			Description: strings.TrimSpace(description),
			Cost:        cost,
		},
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Validate checks the tagged union and field ranges
func (i *StockItem) Validate() error {
	if i.Name == "" {
		return NewValidationError("name is required")
	}
	if len([]rune(i.Name)) > MaxItemNameLength {
		return NewValidationError("name must be at most %d characters", MaxItemNameLength)
	}

	switch i.State {
	case StateActive, StateInactive, StateDepleted:
	default:
		return NewValidationError("unknown state %q", i.State)
	}

	switch i.Kind {
	case KindProduct:
		if i.Product == nil || i.Service != nil {
			return NewValidationError("product must carry product details only")
		}
		p := i.Product
		if p.PurchasePrice.IsNegative() || p.SalePrice.IsNegative() {
			return NewValidationError("prices cannot be negative")
		}
		if !IsCents(p.PurchasePrice) || !IsCents(p.SalePrice) {
			return NewValidationError("prices must have at most %d decimal places", MoneyScale)
		}
		if p.Quantity < 0 {
			return NewValidationError("quantity cannot be negative")
		}
		if i.State == StateDepleted && p.Quantity != 0 {
			return NewValidationError("depleted product must have zero quantity")
		}
		if i.State == StateActive && p.Quantity == 0 {
			return NewValidationError("active product must have stock")
		}
	case KindService:
		if i.Service == nil || i.Product != nil {
			return NewValidationError("service must carry service details only")
		}
		if i.Service.Description == "" {
			return NewValidationError("description is required")
		}
		if i.Service.Cost.IsNegative() {
			return NewValidationError("cost cannot be negative")
		}
		if !IsCents(i.Service.Cost) {
			return NewValidationError("cost must have at most %d decimal places", MoneyScale)
		}
		if i.State == StateDepleted {
			return NewValidationError("services cannot be depleted")
		}
	default:
		return NewValidationError("unknown kind %q", i.Kind)
	}

	return nil
}

// IsActive reports whether the item can be sold
func (i *StockItem) IsActive() bool {
	return i.State == StateActive
}

// Quantity returns available units; services report zero.
func (i *StockItem) Quantity() int {
	if i.Product == nil {
		return 0
	}
	return i.Product.Quantity
}

// UnitPrice is the price snapshotted into a sale line
func (i *StockItem) UnitPrice() decimal.Decimal {
	if i.Kind == KindProduct {
		return i.Product.SalePrice
	}
	return i.Service.Cost
}

// SyncState keeps Depleted and quantity in step. Inactive is left alone.
func (i *StockItem) SyncState() {
	if i.Kind != KindProduct || i.State == StateInactive {
		return
	}
	if i.Product.Quantity == 0 {
		i.State = StateDepleted
	} else {
		i.State = StateActive
	}
}

// Debit removes sold units from a product
func (i *StockItem) Debit(quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if i.Kind != KindProduct {
		return nil
	}
	if quantity > i.Product.Quantity {
		return ErrInsufficientStock
	}
	i.Product.Quantity -= quantity
	i.SyncState()
	return nil
}

// Restore puts cancelled units back. A positive result always reactivates
// the product, including one that was deactivated by hand.
func (i *StockItem) Restore(quantity int) {
	if i.Kind != KindProduct || quantity < 1 {
		return
	}
	i.Product.Quantity += quantity
	if i.Product.Quantity > 0 {
		i.State = StateActive
	}
}

// Restock sets the quantity of a depleted product
func (i *StockItem) Restock(quantity int) error {
	if i.Kind != KindProduct {
		return ErrKindMismatch
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if i.State != StateDepleted && i.Product.Quantity != 0 {
		return ErrInvalidStateTransition
	}
	i.Product.Quantity = quantity
	if quantity > 0 {
		i.State = StateActive
	} else if i.State != StateInactive {
		i.State = StateDepleted
	}
	return nil
}

// Activate brings an inactive item back. A product without stock lands in Depleted.
func (i *StockItem) Activate() error {
	if i.State != StateInactive {
		return ErrInvalidStateTransition
	}
	i.State = StateActive
	i.SyncState()
	return nil
}

// Deactivate is the logical delete
func (i *StockItem) Deactivate() {
	i.State = StateInactive
}

// ProductPatch carries optional product changes
type ProductPatch struct {
	Name          *string
	PurchasePrice *decimal.Decimal
	SalePrice     *decimal.Decimal
	Quantity      *int
	State         *ItemState
}

// ServicePatch carries optional service changes
type ServicePatch struct {
	Name        *string
	Description *string
	Cost        *decimal.Decimal
	State       *ItemState
}

// ApplyProductPatch updates a product and re-syncs its state
func (i *StockItem) ApplyProductPatch(p ProductPatch) error {
	if i.Kind != KindProduct {
		return ErrKindMismatch
	}
	if p.Name != nil {
		i.Name = strings.TrimSpace(*p.Name)
	}
	if p.PurchasePrice != nil {
		i.Product.PurchasePrice = *p.PurchasePrice
	}
	if p.SalePrice != nil {
		i.Product.SalePrice = *p.SalePrice
	}
	if p.Quantity != nil {
		if *p.Quantity < 0 {
			return NewValidationError("quantity cannot be negative")
		}
		i.Product.Quantity = *p.Quantity
	}
	if p.State != nil {
		i.State = *p.State
	}
	i.SyncState()
	return i.Validate()
}

// ApplyServicePatch updates a service
func (i *StockItem) ApplyServicePatch(p ServicePatch) error {
	if i.Kind != KindService {
		return ErrKindMismatch
	}
	if p.Name != nil {
		i.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		i.Service.Description = strings.TrimSpace(*p.Description)
	}
	if p.Cost != nil {
		i.Service.Cost = *p.Cost
	}
	if p.State != nil {
		i.State = *p.State
	}
	return i.Validate()
}

// Clone returns a deep copy
func (i *StockItem) Clone() *StockItem {
	c := *i
	if i.Product != nil {
		p := *i.Product
		c.Product = &p
	}
	if i.Service != nil {
		s := *i.Service
		c.Service = &s
	}
	return &c
}

// StateFilter narrows catalog listings; empty means all.
type StateFilter string

// ParseStateFilter accepts all, active, inactive or depleted
func ParseStateFilter(kind ItemKind, raw string) (StateFilter, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return "", nil
	case string(StateActive):
		return StateFilter(StateActive), nil
	case string(StateInactive):
		return StateFilter(StateInactive), nil
	case string(StateDepleted):
		if kind == KindService {
			return "", NewValidationError("services have no depleted state")
		}
		return StateFilter(StateDepleted), nil
	}
	return "", NewValidationError("unknown state filter %q", raw)
}

// internal/core/ports/services.go
package ports

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger-be/internal/core/domain"
)

// CancelResult reports what a cancellation restored
type CancelResult struct {
	SaleID       uuid.UUID   `json:"sale_id"`
	Restored     []uuid.UUID `json:"restored"`
	Skipped      []uuid.UUID `json:"skipped"`
	OwnerMissing bool        `json:"owner_missing,omitempty"`
}

// SaleService builds, cancels and reports on sales
type SaleService interface {
	CreateSale(ctx context.Context, ownerID uuid.UUID, lines []domain.LineRequest) (*domain.Sale, error)
	CancelSale(ctx context.Context, ownerID, saleID uuid.UUID) (*CancelResult, error)
	GetSale(ctx context.Context, ownerID, saleID uuid.UUID) (*domain.Sale, error)
	ListSales(ctx context.Context, ownerID uuid.UUID, filter SaleFilter) ([]*domain.Sale, error)
	Summary(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (*domain.SalesSummary, error)
	RequestExport(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (*domain.Job, error)
}

// ProductInput creates a product
type ProductInput struct {
	Name          string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	Quantity      int
}

// ServiceInput creates a service
type ServiceInput struct {
	Name        string
	Description string
	Cost        decimal.Decimal
}

// ImportUpload is a file handed in for product import
type ImportUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// CatalogService manages an owner's products and services
type CatalogService interface {
	CreateProduct(ctx context.Context, ownerID uuid.UUID, in ProductInput) (*domain.StockItem, error)
	CreateService(ctx context.Context, ownerID uuid.UUID, in ServiceInput) (*domain.StockItem, error)
	UpdateProduct(ctx context.Context, ownerID, itemID uuid.UUID, patch domain.ProductPatch) (*domain.StockItem, error)
	UpdateService(ctx context.Context, ownerID, itemID uuid.UUID, patch domain.ServicePatch) (*domain.StockItem, error)
	Deactivate(ctx context.Context, ownerID, itemID uuid.UUID, kind domain.ItemKind) (*domain.StockItem, error)
	Activate(ctx context.Context, ownerID, itemID uuid.UUID, kind domain.ItemKind) (*domain.StockItem, error)
	Restock(ctx context.Context, ownerID, itemID uuid.UUID, quantity int) (*domain.StockItem, error)
	GetItem(ctx context.Context, ownerID, itemID uuid.UUID, kind domain.ItemKind) (*domain.StockItem, error)
	List(ctx context.Context, ownerID uuid.UUID, filter CatalogFilter) ([]*domain.StockItem, error)
	ImportProducts(ctx context.Context, ownerID uuid.UUID, drafts []ProductInput) (int, error)
	RequestImport(ctx context.Context, ownerID uuid.UUID, upload ImportUpload) (*domain.Job, error)
}

// JobService exposes asynchronous job status to their owners
type JobService interface {
	GetJob(ctx context.Context, ownerID uuid.UUID, jobID string) (*domain.Job, string, error)
}

// RegisterInput creates an account
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// LoginResult is returned on successful login
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// AuthService handles registration and sessions
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, claims *Claims) error
	Authenticate(ctx context.Context, token string) (*Claims, error)
	Me(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// UserPatch carries optional admin edits
type UserPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
}

// UserAdminService is restricted to administrators
type UserAdminService interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	ToggleUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, patch UserPatch) (*domain.User, error)
}

// cmd/seeder/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger-be/internal/adapters/db"
	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
	"github.com/ammerola/stockledger-be/internal/core/services"
	"github.com/ammerola/stockledger-be/internal/pkg/auth"
	"github.com/ammerola/stockledger-be/internal/pkg/bootstrap"
	"github.com/ammerola/stockledger-be/internal/pkg/config"
	"github.com/ammerola/stockledger-be/internal/pkg/logger"
	"github.com/ammerola/stockledger-be/internal/workers"
)

// account describes a user the seeder makes sure exists
type account struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      domain.Role
}

var demoProducts = []ports.ProductInput{
	{Name: "Claw hammer 16oz", PurchasePrice: decimal.RequireFromString("7.00"), SalePrice: decimal.RequireFromString("12.50"), Quantity: 12},
	{Name: "Wood chisel set", PurchasePrice: decimal.RequireFromString("15.25"), SalePrice: decimal.RequireFromString("24.00"), Quantity: 5},
	{Name: "Tape measure 5m", PurchasePrice: decimal.RequireFromString("3.10"), SalePrice: decimal.RequireFromString("6.99"), Quantity: 30},
	{Name: "Safety goggles", PurchasePrice: decimal.RequireFromString("1.80"), SalePrice: decimal.RequireFromString("4.50"), Quantity: 2},
}

var demoServices = []ports.ServiceInput{
	{Name: "Tool sharpening", Description: "Per blade", Cost: decimal.RequireFromString("8.00")},
	{Name: "Key cutting", Description: "Standard house keys", Cost: decimal.RequireFromString("3.50")},
}

func main() {
	var (
		adminEmail    = flag.String("admin-email", "admin@stockledger.local", "Administrator account email")
		adminPassword = flag.String("admin-password", "", "Administrator password (required unless -dry-run)")
		ownerEmail    = flag.String("owner-email", "demo@stockledger.local", "Demo owner account email")
		ownerPassword = flag.String("owner-password", "", "Demo owner password (required unless -dry-run)")
		catalogFile   = flag.String("catalog", "", "Optional .xlsx or .pdf file imported as the owner's products")
		withDemo      = flag.Bool("demo-items", true, "Create the built-in demo products and services")
		dryRun        = flag.Bool("dry-run", false, "Parse inputs and report without touching the database")
	)
	flag.Parse()

	slogger := logger.Setup(&logger.LogConfig{Level: "info", Format: "text", Output: "stdout"})

	drafts, err := loadCatalog(*catalogFile)
	if err != nil {
		slogger.Error("failed to read catalog file", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *withDemo {
		drafts = append(drafts, demoProducts...)
	}

	if *dryRun {
		fmt.Printf("[DRY RUN] %d product(s) and %d service(s) would be seeded\n", len(drafts), len(demoServices))
		for _, d := range drafts {
			fmt.Printf("  - %s (qty %d, %s / %s)\n", d.Name, d.Quantity, d.PurchasePrice.StringFixed(2), d.SalePrice.StringFixed(2))
		}
		return
	}

	if *adminPassword == "" || *ownerPassword == "" {
		slogger.Error("-admin-password and -owner-password are required")
		os.Exit(2)
	}

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := bootstrap.Migrate(ctx, cfg, slogger); err != nil {
		slogger.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	database, err := bootstrap.Database(ctx, cfg, 4, slogger)
	if err != nil {
		slogger.Error("failed to connect", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	uow := db.NewUnitOfWork(database, slogger)
	users := uow.Repositories().Users
	hasher := auth.NewBcryptHasher(cfg.Security.BcryptCost)

	if _, err := ensureAccount(ctx, users, hasher, account{
		FirstName: "Stock", LastName: "Admin", Email: *adminEmail, Password: *adminPassword, Role: domain.RoleAdmin,
	}); err != nil {
		slogger.Error("failed to seed admin", slog.String("error", err.Error()))
		os.Exit(1)
	}
	owner, err := ensureAccount(ctx, users, hasher, account{
		FirstName: "Demo", LastName: "Owner", Email: *ownerEmail, Password: *ownerPassword, Role: domain.RoleUser,
	})
	if err != nil {
		slogger.Error("failed to seed owner", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Catalog writes go straight through the service; nothing is published or cached.
	catalog := services.NewCatalogService(uow, nil, nil, nil, nil, slogger)

	imported := 0
	if len(drafts) > 0 {
		imported, err = catalog.ImportProducts(ctx, owner.ID, drafts)
		if err != nil {
			slogger.Error("failed to seed products", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	created := 0
	if *withDemo {
		for _, in := range demoServices {
			if _, err := catalog.CreateService(ctx, owner.ID, in); err != nil {
				slogger.Error("failed to seed service",
					slog.String("name", in.Name),
					slog.String("error", err.Error()))
				os.Exit(1)
			}
			created++
		}
	}

	slogger.Info("seed operation completed",
		slog.String("owner_id", owner.ID.String()),
		slog.Int("products", imported),
		slog.Int("services", created))
}

// loadCatalog parses an optional import file with the worker's parsers
func loadCatalog(path string) ([]ports.ProductInput, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	report, err := workers.ParseImportFile(format, data)
	if err != nil {
		return nil, err
	}
	for _, reason := range report.Skipped {
		slog.Warn("skipped catalog row", slog.String("reason", reason))
	}
	return report.Drafts, nil
}

// ensureAccount creates the account unless its email is already registered
func ensureAccount(ctx context.Context, users ports.UserRepository, hasher ports.PasswordHasher, a account) (*domain.User, error) {
	existing, err := users.FindByEmail(ctx, domain.NormalizeEmail(a.Email))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		slog.Info("account already exists", slog.String("email", existing.Email))
		return existing, nil
	}

	if err := domain.ValidatePassword(a.Password); err != nil {
		return nil, err
	}
	hash, err := hasher.Hash(a.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Email:        domain.NormalizeEmail(a.Email),
		PasswordHash: hash,
		Role:         a.Role,
		Enabled:      true,
		JoinedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return users.FindByEmail(ctx, user.Email)
		}
		return nil, err
	}
	slog.Info("account created", slog.String("email", user.Email), slog.String("role", string(a.Role)))
	return user, nil
}

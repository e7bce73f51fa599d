//go:build integration
// +build integration

package db_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/stockledger-be/internal/adapters/db"
	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
	"github.com/ammerola/stockledger-be/test/helpers"
)

type RepositorySuite struct {
	suite.Suite
	testDB *helpers.TestDB
	uow    *db.UnitOfWork
	ctx    context.Context
	owner  *domain.User
}

func (s *RepositorySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.uow = db.NewUnitOfWork(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *RepositorySuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
	s.owner = helpers.SeedUser(s.T(), s.testDB.PgxPool)
}

func (s *RepositorySuite) repos() ports.Repositories {
	return s.uow.Repositories()
}

func (s *RepositorySuite) TestUsers_CreateAndFind() {
	user := helpers.CreateTestUser()
	s.Require().NoError(s.repos().Users.Create(s.ctx, user))

	found, err := s.repos().Users.FindByEmail(s.ctx, user.Email)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(user.ID, found.ID)
	s.Equal(user.PasswordHash, found.PasswordHash)

	dup := helpers.CreateTestUser(func(u *domain.User) { u.Email = user.Email })
	s.ErrorIs(s.repos().Users.Create(s.ctx, dup), domain.ErrEmailTaken)

	taken, err := s.repos().Users.EmailTaken(s.ctx, user.Email, uuid.New())
	s.Require().NoError(err)
	s.True(taken)

	taken, err = s.repos().Users.EmailTaken(s.ctx, user.Email, user.ID)
	s.Require().NoError(err)
	s.False(taken)

	missing, err := s.repos().Users.FindByID(s.ctx, uuid.New())
	s.NoError(err)
	s.Nil(missing)
}

func (s *RepositorySuite) TestUsers_ListByRole() {
	admin := helpers.CreateTestUser(func(u *domain.User) { u.Role = domain.RoleAdmin })
	s.Require().NoError(s.repos().Users.Create(s.ctx, admin))

	users, err := s.repos().Users.ListByRole(s.ctx, domain.RoleUser)
	s.Require().NoError(err)
	s.Len(users, 1)
	s.Equal(s.owner.ID, users[0].ID)
}

func (s *RepositorySuite) TestCatalog_RoundTrip() {
	product := helpers.CreateTestProduct(s.owner.ID)
	service := helpers.CreateTestService(s.owner.ID)
	s.Require().NoError(s.repos().Catalog.InsertBatch(s.ctx, []*domain.StockItem{product, service}))

	got, err := s.repos().Catalog.FindByID(s.ctx, s.owner.ID, product.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.Product)
	s.Equal(product.Product.Quantity, got.Product.Quantity)
	s.True(product.Product.SalePrice.Equal(got.Product.SalePrice))
	s.Nil(got.Service)

	gotSvc, err := s.repos().Catalog.FindByID(s.ctx, s.owner.ID, service.ID)
	s.Require().NoError(err)
	s.Require().NotNil(gotSvc.Service)
	s.Equal(service.Service.Description, gotSvc.Service.Description)

	other, err := s.repos().Catalog.FindByID(s.ctx, uuid.New(), product.ID)
	s.NoError(err)
	s.Nil(other, "items are scoped to their owner")

	products, err := s.repos().Catalog.List(s.ctx, s.owner.ID, ports.CatalogFilter{Kind: domain.KindProduct})
	s.Require().NoError(err)
	s.Len(products, 1)

	inactive, err := s.repos().Catalog.List(s.ctx, s.owner.ID, ports.CatalogFilter{State: domain.StateFilter(domain.StateInactive)})
	s.Require().NoError(err)
	s.Empty(inactive)
}

func (s *RepositorySuite) TestCatalog_CheckConstraintRejectsActiveWithoutStock() {
	product := helpers.CreateTestProduct(s.owner.ID)
	s.Require().NoError(s.repos().Catalog.Insert(s.ctx, product))

	product.Product.Quantity = 0
	err := s.repos().Catalog.Update(s.ctx, product)
	s.Error(err)
}

func (s *RepositorySuite) TestSales_InsertFindDelete() {
	product := helpers.CreateTestProduct(s.owner.ID)
	s.Require().NoError(s.repos().Catalog.Insert(s.ctx, product))

	older := s.insertSale(product, 1, time.Now().Add(-time.Hour))
	newer := s.insertSale(product, 2, time.Now())

	got, err := s.repos().Sales.FindByID(s.ctx, newer.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Items, 1)
	s.Equal(2, got.Items[0].Quantity)
	s.True(newer.TotalPrice.Equal(got.TotalPrice))

	list, err := s.repos().Sales.FindByOwner(s.ctx, s.owner.ID, ports.SaleFilter{})
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(newer.ID, list[0].ID, "newest first")
	s.Equal(older.ID, list[1].ID)

	summary, err := s.repos().Sales.Summarize(s.ctx, s.owner.ID, time.Now().Add(-2*time.Hour), time.Now().Add(time.Minute))
	s.Require().NoError(err)
	s.Equal(2, summary.SaleCount)
	s.Equal(3, summary.UnitsSold)

	s.Require().NoError(s.repos().Sales.DeleteByID(s.ctx, older.ID))
	s.ErrorIs(s.repos().Sales.DeleteByID(s.ctx, older.ID), domain.ErrSaleNotFound)
}

func (s *RepositorySuite) TestUnitOfWork_RollsBackOnError() {
	product := helpers.CreateTestProduct(s.owner.ID)
	boom := errors.New("boom")

	err := s.uow.Within(s.ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := repos.Catalog.Insert(ctx, product); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.repos().Catalog.FindByID(s.ctx, s.owner.ID, product.ID)
	s.NoError(err)
	s.Nil(got)
}

func (s *RepositorySuite) TestUnitOfWork_OwnerLockSerialisesDebits() {
	product := helpers.CreateTestProduct(s.owner.ID, func(i *domain.StockItem) { i.Product.Quantity = 10 })
	s.Require().NoError(s.repos().Catalog.Insert(s.ctx, product))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.uow.Within(s.ctx, func(ctx context.Context, repos ports.Repositories) error {
				if _, err := repos.Users.LockByID(ctx, s.owner.ID); err != nil {
					return err
				}
				items, err := repos.Catalog.FindForUpdate(ctx, s.owner.ID, []uuid.UUID{product.ID})
				if err != nil {
					return err
				}
				item := items[product.ID]
				if err := item.Debit(1); err != nil {
					return err
				}
				return repos.Catalog.Update(ctx, item)
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, err := s.repos().Catalog.FindByID(s.ctx, s.owner.ID, product.ID)
	s.Require().NoError(err)
	s.Equal(0, got.Product.Quantity)
	s.Equal(domain.StateDepleted, got.State)
}

func (s *RepositorySuite) insertSale(item *domain.StockItem, qty int, at time.Time) *domain.Sale {
	line := domain.NewSaleLine(item, qty)
	sale := &domain.Sale{
		ID:        uuid.New(),
		OwnerID:   s.owner.ID,
		CreatedAt: at.UTC().Truncate(time.Microsecond),
		Items:     []domain.SaleLine{line},
	}
	sale.CalculateTotal()
	s.Require().True(sale.TotalPrice.Equal(decimal.NewFromInt(int64(qty)).Mul(item.Product.SalePrice)))
	s.Require().NoError(s.repos().Sales.Insert(s.ctx, sale))
	return sale
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

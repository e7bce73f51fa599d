package services_test

import (
	"context"

	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger-be/internal/core/ports"
	"github.com/ammerola/stockledger-be/test/mocks"
)

type repoMocks struct {
	uow     *mocks.MockUnitOfWork
	users   *mocks.MockUserRepository
	catalog *mocks.MockCatalogRepository
	sales   *mocks.MockSaleRepository
	cache   *mocks.MockCacheRepository
	tasks   *mocks.MockTaskPublisher
	jobs    *mocks.MockJobStore
	storage *mocks.MockFileStorage
}

// newRepoMocks wires a unit of work whose transactions run fn against the mocks
func newRepoMocks(ctrl *gomock.Controller) *repoMocks {
	m := &repoMocks{
		uow:     mocks.NewMockUnitOfWork(ctrl),
		users:   mocks.NewMockUserRepository(ctrl),
		catalog: mocks.NewMockCatalogRepository(ctrl),
		sales:   mocks.NewMockSaleRepository(ctrl),
		cache:   mocks.NewMockCacheRepository(ctrl),
		tasks:   mocks.NewMockTaskPublisher(ctrl),
		jobs:    mocks.NewMockJobStore(ctrl),
		storage: mocks.NewMockFileStorage(ctrl),
	}

	repos := ports.Repositories{Users: m.users, Catalog: m.catalog, Sales: m.sales}
	m.uow.EXPECT().Repositories().Return(repos).AnyTimes()
	m.uow.EXPECT().
		Within(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, ports.Repositories) error) error {
			return fn(ctx, repos)
		}).
		AnyTimes()

	return m
}

func (m *repoMocks) expectInvalidation() {
	m.cache.EXPECT().DeletePattern(gomock.Any(), gomock.Any()).Return(nil).Times(2)
}

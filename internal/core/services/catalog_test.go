package services_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
	"github.com/ammerola/stockledger-be/internal/core/services"
	"github.com/ammerola/stockledger-be/test/helpers"
)

func newCatalogService(m *repoMocks) *services.CatalogService {
	return services.NewCatalogService(m.uow, m.cache, m.storage, m.tasks, m.jobs, helpers.TestLogger())
}

func TestCatalogService_CreateProduct(t *testing.T) {
	owner := helpers.CreateTestUser()

	tests := []struct {
		name          string
		input         ports.ProductInput
		setupMocks    func(m *repoMocks)
		expectedState domain.ItemState
		expectedError error
	}{
		{
			name:  "stocked_product",
			input: ports.ProductInput{Name: "Widget", PurchasePrice: decimal.NewFromInt(2), SalePrice: decimal.NewFromInt(5), Quantity: 3},
			setupMocks: func(m *repoMocks) {
				m.users.EXPECT().LockByID(gomock.Any(), owner.ID).Return(owner, nil)
				m.catalog.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
				m.expectInvalidation()
			},
			expectedState: domain.StateActive,
		},
		{
			name:  "product_without_stock_starts_depleted",
			input: ports.ProductInput{Name: "Widget", Quantity: 0},
			setupMocks: func(m *repoMocks) {
				m.users.EXPECT().LockByID(gomock.Any(), owner.ID).Return(owner, nil)
				m.catalog.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
				m.expectInvalidation()
			},
			expectedState: domain.StateDepleted,
		},
		{
			name:          "missing_name",
			input:         ports.ProductInput{Quantity: 1},
			setupMocks:    func(m *repoMocks) {},
			expectedError: domain.ErrValidation,
		},
		{
			name:  "unknown_owner",
			input: ports.ProductInput{Name: "Widget", Quantity: 1},
			setupMocks: func(m *repoMocks) {
				m.users.EXPECT().LockByID(gomock.Any(), owner.ID).Return(nil, nil)
			},
			expectedError: domain.ErrOwnerNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			m := newRepoMocks(ctrl)
			tt.setupMocks(m)

			item, err := newCatalogService(m).CreateProduct(context.Background(), owner.ID, tt.input)
			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedState, item.State)
			assert.Equal(t, owner.ID, item.OwnerID)
			assert.False(t, item.RegisteredAt.IsZero())
		})
	}
}

func TestCatalogService_CreateService(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newRepoMocks(ctrl)
	owner := helpers.CreateTestUser()

	m.users.EXPECT().LockByID(gomock.Any(), owner.ID).Return(owner, nil)
	m.catalog.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	m.expectInvalidation()

	item, err := newCatalogService(m).CreateService(context.Background(), owner.ID, ports.ServiceInput{
		Name:        "Consulting",
		Description: "Hourly consulting",
		Cost:        decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KindService, item.Kind)
	assert.Equal(t, domain.StateActive, item.State)

	_, err = newCatalogService(m).CreateService(context.Background(), owner.ID, ports.ServiceInput{Name: "No description"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCatalogService_Mutations(t *testing.T) {
	owner := helpers.CreateTestUser()

	tests := []struct {
		name          string
		item          func() *domain.StockItem
		run           func(s *services.CatalogService, item *domain.StockItem) (*domain.StockItem, error)
		expectSave    bool
		expectedState domain.ItemState
		expectedError error
	}{
		{
			name: "deactivate_product",
			item: func() *domain.StockItem { return helpers.CreateTestProduct(owner.ID) },
			run: func(s *services.CatalogService, item *domain.StockItem) (*domain.StockItem, error) {
				return s.Deactivate(context.Background(), owner.ID, item.ID, domain.KindProduct)
			},
			expectSave:    true,
			expectedState: domain.StateInactive,
		},
		{
			name: "activate_inactive_service",
			item: func() *domain.StockItem {
				return helpers.CreateTestService(owner.ID, func(i *domain.StockItem) { i.State = domain.StateInactive })
			},
			run: func(s *services.CatalogService, item *domain.StockItem) (*domain.StockItem, error) {
				return s.Activate(context.Background(), owner.ID, item.ID, domain.KindService)
			},
			expectSave:    true,
			expectedState: domain.StateActive,
		},
		{
			name: "activate_active_product_fails",
			item: func() *domain.StockItem { return helpers.CreateTestProduct(owner.ID) },
			run: func(s *services.CatalogService, item *domain.StockItem) (*domain.StockItem, error) {
				return s.Activate(context.Background(), owner.ID, item.ID, domain.KindProduct)
			},
			expectedError: domain.ErrInvalidStateTransition,
		},
		{
			name: "restock_depleted_product",
			item: func() *domain.StockItem {
				return helpers.CreateTestProduct(owner.ID, func(i *domain.StockItem) {
					i.Product.Quantity = 0
					i.State = domain.StateDepleted
				})
			},
			run: func(s *services.CatalogService, item *domain.StockItem) (*domain.StockItem, error) {
				return s.Restock(context.Background(), owner.ID, item.ID, 12)
			},
			expectSave:    true,
			expectedState: domain.StateActive,
		},
		{
			name: "restock_stocked_product_fails",
			item: func() *domain.StockItem { return helpers.CreateTestProduct(owner.ID) },
			run: func(s *services.CatalogService, item *domain.StockItem) (*domain.StockItem, error) {
				return s.Restock(context.Background(), owner.ID, item.ID, 12)
			},
			expectedError: domain.ErrInvalidStateTransition,
		},
		{
			name: "product_route_does_not_touch_services",
			item: func() *domain.StockItem { return helpers.CreateTestService(owner.ID) },
			run: func(s *services.CatalogService, item *domain.StockItem) (*domain.StockItem, error) {
				return s.Deactivate(context.Background(), owner.ID, item.ID, domain.KindProduct)
			},
			expectedError: domain.ErrItemNotFound,
		},
		{
			name: "update_product_quantity_to_zero_depletes",
			item: func() *domain.StockItem { return helpers.CreateTestProduct(owner.ID) },
			run: func(s *services.CatalogService, item *domain.StockItem) (*domain.StockItem, error) {
				zero := 0
				return s.UpdateProduct(context.Background(), owner.ID, item.ID, domain.ProductPatch{Quantity: &zero})
			},
			expectSave:    true,
			expectedState: domain.StateDepleted,
		},
		{
			name: "update_service_rejects_empty_description",
			item: func() *domain.StockItem { return helpers.CreateTestService(owner.ID) },
			run: func(s *services.CatalogService, item *domain.StockItem) (*domain.StockItem, error) {
				empty := ""
				return s.UpdateService(context.Background(), owner.ID, item.ID, domain.ServicePatch{Description: &empty})
			},
			expectedError: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			m := newRepoMocks(ctrl)
			item := tt.item()

			m.users.EXPECT().LockByID(gomock.Any(), owner.ID).Return(owner, nil)
			m.catalog.EXPECT().
				FindForUpdate(gomock.Any(), owner.ID, []uuid.UUID{item.ID}).
				Return(map[uuid.UUID]*domain.StockItem{item.ID: item}, nil)
			if tt.expectSave {
				m.catalog.EXPECT().Update(gomock.Any(), item).Return(nil)
				m.expectInvalidation()
			}

			updated, err := tt.run(newCatalogService(m), item)
			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedState, updated.State)
		})
	}
}

func TestCatalogService_GetItem(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newRepoMocks(ctrl)
	ownerID := uuid.New()
	svc := helpers.CreateTestService(ownerID)

	m.catalog.EXPECT().FindByID(gomock.Any(), ownerID, svc.ID).Return(svc, nil).Times(2)
	m.catalog.EXPECT().FindByID(gomock.Any(), ownerID, gomock.Not(svc.ID)).Return(nil, nil)

	got, err := newCatalogService(m).GetItem(context.Background(), ownerID, svc.ID, domain.KindService)
	require.NoError(t, err)
	assert.Equal(t, svc.ID, got.ID)

	_, err = newCatalogService(m).GetItem(context.Background(), ownerID, svc.ID, domain.KindProduct)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)

	_, err = newCatalogService(m).GetItem(context.Background(), ownerID, uuid.New(), domain.KindService)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestCatalogService_ImportProducts(t *testing.T) {
	owner := helpers.CreateTestUser()

	t.Run("inserts_all_rows_in_one_batch", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m := newRepoMocks(ctrl)

		m.users.EXPECT().LockByID(gomock.Any(), owner.ID).Return(owner, nil)
		m.catalog.EXPECT().InsertBatch(gomock.Any(), gomock.Len(2)).Return(nil)
		m.expectInvalidation()

		n, err := newCatalogService(m).ImportProducts(context.Background(), owner.ID, []ports.ProductInput{
			{Name: "A", SalePrice: decimal.NewFromInt(1), Quantity: 1},
			{Name: "B", SalePrice: decimal.NewFromInt(2), Quantity: 0},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("invalid_row_rejects_import", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m := newRepoMocks(ctrl)

		_, err := newCatalogService(m).ImportProducts(context.Background(), owner.ID, []ports.ProductInput{
			{Name: "A", Quantity: 1},
			{Name: "", Quantity: 1},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 2")
	})

	t.Run("empty_import_is_noop", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m := newRepoMocks(ctrl)

		n, err := newCatalogService(m).ImportProducts(context.Background(), owner.ID, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestCatalogService_RequestImport(t *testing.T) {
	tests := []struct {
		name          string
		upload        ports.ImportUpload
		setupMocks    func(m *repoMocks)
		expectedFmt   string
		errorContains string
	}{
		{
			name:   "spreadsheet_upload",
			upload: ports.ImportUpload{Filename: "prices.xlsx", ContentType: "application/octet-stream", Body: bytes.NewReader([]byte("x"))},
			setupMocks: func(m *repoMocks) {
				m.storage.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("s3://bucket/key", nil)
				m.jobs.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
				m.tasks.EXPECT().EnqueueProductImport(gomock.Any(), gomock.Any()).Return(nil)
			},
			expectedFmt: "xlsx",
		},
		{
			name:   "pdf_upload",
			upload: ports.ImportUpload{Filename: "list", ContentType: "application/pdf", Body: bytes.NewReader([]byte("%PDF"))},
			setupMocks: func(m *repoMocks) {
				m.storage.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), "application/pdf").Return("", nil)
				m.jobs.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
				m.tasks.EXPECT().EnqueueProductImport(gomock.Any(), gomock.Any()).Return(nil)
			},
			expectedFmt: "pdf",
		},
		{
			name:          "unsupported_file",
			upload:        ports.ImportUpload{Filename: "prices.csv", ContentType: "text/csv", Body: bytes.NewReader(nil)},
			setupMocks:    func(m *repoMocks) {},
			errorContains: "only .xlsx and .pdf",
		},
		{
			name:   "storage_failure",
			upload: ports.ImportUpload{Filename: "prices.xlsx", Body: bytes.NewReader(nil)},
			setupMocks: func(m *repoMocks) {
				m.storage.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("access denied"))
			},
			errorContains: "failed to store import file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			m := newRepoMocks(ctrl)
			tt.setupMocks(m)
			ownerID := uuid.New()

			job, err := newCatalogService(m).RequestImport(context.Background(), ownerID, tt.upload)
			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedFmt, job.Format)
			assert.Equal(t, domain.JobProductImport, job.Kind)
			assert.Contains(t, job.ObjectKey, ownerID.String())
		})
	}
}

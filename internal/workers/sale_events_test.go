// internal/workers/sale_events_test.go
package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/workers"
	"github.com/ammerola/stockledger-be/test/helpers"
	"github.com/ammerola/stockledger-be/test/mocks"
)

type recordingNotifier struct {
	owner  *domain.User
	alerts []workers.LowStockAlert
	err    error
}

func (n *recordingNotifier) NotifyLowStock(_ context.Context, owner *domain.User, alerts []workers.LowStockAlert) error {
	n.owner = owner
	n.alerts = append(n.alerts, alerts...)
	return n.err
}

func saleEventTask(t *testing.T, typ string, payload workers.SaleEventPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(typ, data)
}

func TestSaleEventProcessor_HandleSaleCreated(t *testing.T) {
	owner := helpers.CreateTestUser()
	low := workers.StockSnapshot{ID: uuid.New(), Name: "Bolt", Kind: domain.KindProduct, State: domain.StateActive, Quantity: 2}
	gone := workers.StockSnapshot{ID: uuid.New(), Name: "Nut", Kind: domain.KindProduct, State: domain.StateDepleted, Quantity: 0}
	plenty := workers.StockSnapshot{ID: uuid.New(), Name: "Washer", Kind: domain.KindProduct, State: domain.StateActive, Quantity: 40}
	service := workers.StockSnapshot{ID: uuid.New(), Name: "Fitting", Kind: domain.KindService, State: domain.StateActive}

	tests := []struct {
		name          string
		items         []workers.StockSnapshot
		setupMocks    func(users *mocks.MockUserRepository, cache *mocks.MockCacheRepository)
		notifyErr     error
		expectedError bool
		expectAlerts  []workers.LowStockAlert
	}{
		{
			name:  "alerts_low_and_depleted_products",
			items: []workers.StockSnapshot{low, gone, plenty, service},
			setupMocks: func(users *mocks.MockUserRepository, cache *mocks.MockCacheRepository) {
				cache.EXPECT().SetNX(gomock.Any(), "alerts:"+low.ID.String()+":low", gomock.Any(), gomock.Any()).Return(true, nil)
				cache.EXPECT().SetNX(gomock.Any(), "alerts:"+gone.ID.String()+":depleted", gomock.Any(), gomock.Any()).Return(true, nil)
				users.EXPECT().FindByID(gomock.Any(), owner.ID).Return(owner, nil)
			},
			expectAlerts: []workers.LowStockAlert{
				{ItemID: low.ID, Name: "Bolt", Quantity: 2},
				{ItemID: gone.ID, Name: "Nut", Quantity: 0, Depleted: true},
			},
		},
		{
			name:       "no_alert_above_threshold",
			items:      []workers.StockSnapshot{plenty, service},
			setupMocks: func(*mocks.MockUserRepository, *mocks.MockCacheRepository) {},
		},
		{
			name:  "recent_alert_is_not_repeated",
			items: []workers.StockSnapshot{low},
			setupMocks: func(users *mocks.MockUserRepository, cache *mocks.MockCacheRepository) {
				cache.EXPECT().SetNX(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)
			},
		},
		{
			name:  "missing_owner_drops_alerts",
			items: []workers.StockSnapshot{gone},
			setupMocks: func(users *mocks.MockUserRepository, cache *mocks.MockCacheRepository) {
				cache.EXPECT().SetNX(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
				users.EXPECT().FindByID(gomock.Any(), owner.ID).Return(nil, nil)
			},
		},
		{
			name:  "notifier_failure_is_retried",
			items: []workers.StockSnapshot{gone},
			setupMocks: func(users *mocks.MockUserRepository, cache *mocks.MockCacheRepository) {
				cache.EXPECT().SetNX(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
				users.EXPECT().FindByID(gomock.Any(), owner.ID).Return(owner, nil)
			},
			notifyErr:     errors.New("smtp unavailable"),
			expectedError: true,
			expectAlerts:  []workers.LowStockAlert{{ItemID: gone.ID, Name: "Nut", Depleted: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			users := mocks.NewMockUserRepository(ctrl)
			cache := mocks.NewMockCacheRepository(ctrl)
			sales := mocks.NewMockSaleService(ctrl)
			notifier := &recordingNotifier{err: tt.notifyErr}
			tt.setupMocks(users, cache)

			if !tt.expectedError {
				sales.EXPECT().
					Summary(gomock.Any(), owner.ID, time.Time{}, time.Time{}).
					Return(&domain.SalesSummary{OwnerID: owner.ID}, nil)
			}

			p := workers.NewSaleEventProcessor(users, sales, cache, notifier, 3, helpers.TestLogger())
			task := saleEventTask(t, workers.TypeSaleCreated, workers.SaleEventPayload{
				SaleID:  uuid.New(),
				OwnerID: owner.ID,
				Items:   tt.items,
			})

			err := p.HandleSaleCreated(context.Background(), task)
			if tt.expectedError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expectAlerts, notifier.alerts)
		})
	}
}

func TestSaleEventProcessor_HandleSaleCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	ownerID := uuid.New()
	sales := mocks.NewMockSaleService(ctrl)
	sales.EXPECT().
		Summary(gomock.Any(), ownerID, time.Time{}, time.Time{}).
		Return(nil, errors.New("cache down"))

	p := workers.NewSaleEventProcessor(mocks.NewMockUserRepository(ctrl), sales, nil, &recordingNotifier{}, 3, helpers.TestLogger())
	task := saleEventTask(t, workers.TypeSaleCancelled, workers.SaleEventPayload{
		SaleID:  uuid.New(),
		OwnerID: ownerID,
		Items:   []workers.StockSnapshot{{ID: uuid.New(), Kind: domain.KindProduct, Quantity: 0, State: domain.StateDepleted}},
	})

	// summary refresh failures only cost freshness
	assert.NoError(t, p.HandleSaleCancelled(context.Background(), task))
}

func TestSaleEventProcessor_MalformedPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := workers.NewSaleEventProcessor(
		mocks.NewMockUserRepository(ctrl),
		mocks.NewMockSaleService(ctrl),
		nil,
		&recordingNotifier{},
		3,
		helpers.TestLogger(),
	)

	err := p.HandleSaleCreated(context.Background(), asynq.NewTask(workers.TypeSaleCreated, []byte("{")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

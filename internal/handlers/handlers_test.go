// internal/handlers/handlers_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
	"github.com/ammerola/stockledger-be/internal/handlers"
	"github.com/ammerola/stockledger-be/internal/pkg/metrics"
	"github.com/ammerola/stockledger-be/test/helpers"
	"github.com/ammerola/stockledger-be/test/mocks"
)

const (
	userToken  = "user-token"
	adminToken = "admin-token"
)

type fakeDB struct{ err error }

func (f fakeDB) Ping(context.Context) error { return f.err }
func (f fakeDB) Health(context.Context) map[string]interface{} {
	return map[string]interface{}{"total_conns": 1}
}

type testAPI struct {
	handler http.Handler
	sales   *mocks.MockSaleService
	catalog *mocks.MockCatalogService
	jobs    *mocks.MockJobService
	auth    *mocks.MockAuthService
	users   *mocks.MockUserAdminService
	userID  uuid.UUID
	adminID uuid.UUID
}

func newTestAPI(t *testing.T, dbErr error) *testAPI {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := helpers.TestLogger()

	api := &testAPI{
		sales:   mocks.NewMockSaleService(ctrl),
		catalog: mocks.NewMockCatalogService(ctrl),
		jobs:    mocks.NewMockJobService(ctrl),
		auth:    mocks.NewMockAuthService(ctrl),
		users:   mocks.NewMockUserAdminService(ctrl),
		userID:  uuid.New(),
		adminID: uuid.New(),
	}

	api.auth.EXPECT().Authenticate(gomock.Any(), userToken).
		Return(&ports.Claims{UserID: api.userID, Name: "Ada Lovelace", Role: domain.RoleUser, TokenID: "jti-user"}, nil).
		AnyTimes()
	api.auth.EXPECT().Authenticate(gomock.Any(), adminToken).
		Return(&ports.Claims{UserID: api.adminID, Name: "Root Admin", Role: domain.RoleAdmin, TokenID: "jti-admin"}, nil).
		AnyTimes()

	redis := helpers.SetupTestRedis(t)
	reg := prometheus.NewRegistry()

	rt := &handlers.Router{
		Auth:        handlers.NewAuthHandler(api.auth, log),
		Sales:       handlers.NewSaleHandler(api.sales, api.jobs, log),
		Catalog:     handlers.NewCatalogHandler(api.catalog, api.jobs, 1<<20, log),
		Admin:       handlers.NewAdminHandler(api.users, log),
		Health:      handlers.NewHealthHandler(fakeDB{err: dbErr}, redis.Client, nil, nil, helpers.LoadTestConfig(), log),
		AuthService: api.auth,
		Metrics:     metrics.New(reg),
		Logger:      log,
	}
	api.handler = rt.Handler(handlers.RouterConfig{
		AllowedOrigins: []string{"*"},
		RequestTimeout: 5 * time.Second,
		SecureHeaders:  true,
		EnableMetrics:  true,
		Gatherer:       reg,
	})
	return api
}

func (api *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	api.handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSaleHandler_CreateSale(t *testing.T) {
	itemID := uuid.New()
	missingID := uuid.New()

	tests := []struct {
		name           string
		body           any
		setup          func(api *testAPI)
		expectedStatus int
		validate       func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name: "creates_sale",
			body: `{"items":[{"stock_item_id":"` + itemID.String() + `","quantity":2}]}`,
			setup: func(api *testAPI) {
				api.sales.EXPECT().
					CreateSale(gomock.Any(), api.userID, []domain.LineRequest{{StockItemID: itemID, Quantity: 2}}).
					Return(&domain.Sale{
						ID:         uuid.New(),
						OwnerID:    api.userID,
						Items:      []domain.SaleLine{{StockItemID: itemID, Kind: domain.KindProduct, Name: "Widget", Quantity: 2, UnitPrice: decimal.NewFromInt(10), Subtotal: decimal.NewFromInt(20)}},
						TotalPrice: decimal.NewFromInt(20),
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				var sale domain.Sale
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sale))
				assert.True(t, decimal.NewFromInt(20).Equal(sale.TotalPrice))
				require.Len(t, sale.Items, 1)
				assert.Equal(t, "Widget", sale.Items[0].Name)
			},
		},
		{
			name: "fractional_quantity_is_invalid",
			body: `{"items":[{"stock_item_id":"` + itemID.String() + `","quantity":1.5}]}`,
			setup: func(api *testAPI) {
				api.sales.EXPECT().CreateSale(gomock.Any(), api.userID, []domain.LineRequest{{StockItemID: itemID, Quantity: 0}}).
					Return(nil, &domain.SaleError{Kind: domain.ErrInvalidQuantity, LineIndex: 0, ItemID: itemID})
			},
			expectedStatus: http.StatusBadRequest,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				resp := decodeError(t, w)
				assert.Equal(t, "invalid_quantity", resp.Code)
				require.NotNil(t, resp.LineIndex)
				assert.Equal(t, 0, *resp.LineIndex)
			},
		},
		{
			name: "fractional_quantity_keeps_line_order",
			body: `{"items":[{"stock_item_id":"` + missingID.String() + `","quantity":1},{"stock_item_id":"` + itemID.String() + `","quantity":1.5}]}`,
			setup: func(api *testAPI) {
				api.sales.EXPECT().CreateSale(gomock.Any(), api.userID, []domain.LineRequest{
					{StockItemID: missingID, Quantity: 1},
					{StockItemID: itemID, Quantity: 0},
				}).Return(nil, &domain.SaleError{Kind: domain.ErrItemNotFound, LineIndex: 0, ItemID: missingID})
			},
			expectedStatus: http.StatusNotFound,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				resp := decodeError(t, w)
				assert.Equal(t, "item_not_found", resp.Code)
				require.NotNil(t, resp.LineIndex)
				assert.Equal(t, 0, *resp.LineIndex)
			},
		},
		{
			name: "insufficient_stock_reports_line",
			body: `{"items":[{"stock_item_id":"` + itemID.String() + `","quantity":9}]}`,
			setup: func(api *testAPI) {
				api.sales.EXPECT().CreateSale(gomock.Any(), api.userID, gomock.Any()).
					Return(nil, &domain.SaleError{Kind: domain.ErrInsufficientStock, LineIndex: 0, ItemID: itemID, Requested: 9, Available: 5})
			},
			expectedStatus: http.StatusConflict,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				resp := decodeError(t, w)
				assert.Equal(t, "insufficient_stock", resp.Code)
				assert.Equal(t, itemID.String(), resp.ItemID)
				assert.Equal(t, 9, resp.Requested)
				require.NotNil(t, resp.Available)
				assert.Equal(t, 5, *resp.Available)
			},
		},
		{
			name: "inactive_item_conflicts",
			body: `{"items":[{"stock_item_id":"` + itemID.String() + `","quantity":1}]}`,
			setup: func(api *testAPI) {
				api.sales.EXPECT().CreateSale(gomock.Any(), api.userID, gomock.Any()).
					Return(nil, &domain.SaleError{Kind: domain.ErrItemNotActive, ItemID: itemID})
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "unknown_item_is_not_found",
			body: `{"items":[{"stock_item_id":"` + itemID.String() + `","quantity":1}]}`,
			setup: func(api *testAPI) {
				api.sales.EXPECT().CreateSale(gomock.Any(), api.userID, gomock.Any()).
					Return(nil, &domain.SaleError{Kind: domain.ErrItemNotFound, ItemID: itemID})
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "empty_sale_is_rejected",
			body: `{"items":[]}`,
			setup: func(api *testAPI) {
				api.sales.EXPECT().CreateSale(gomock.Any(), api.userID, []domain.LineRequest{}).
					Return(nil, domain.ErrEmptySale)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed_body",
			body:           `{"items":`,
			setup:          func(api *testAPI) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "storage_failure_is_hidden",
			body: `{"items":[{"stock_item_id":"` + itemID.String() + `","quantity":1}]}`,
			setup: func(api *testAPI) {
				api.sales.EXPECT().CreateSale(gomock.Any(), api.userID, gomock.Any()).
					Return(nil, errors.New("connection reset"))
			},
			expectedStatus: http.StatusInternalServerError,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.NotContains(t, w.Body.String(), "connection reset")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, nil)
			tt.setup(api)

			w := api.do(t, http.MethodPost, "/api/v1/sales", userToken, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.validate != nil {
				tt.validate(t, w)
			}
		})
	}
}

func TestSaleHandler_RequiresToken(t *testing.T) {
	api := newTestAPI(t, nil)
	api.auth.EXPECT().Authenticate(gomock.Any(), "revoked").Return(nil, domain.ErrInvalidCredentials)

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/api/v1/sales", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/api/v1/sales", "revoked", nil).Code)
}

func TestSaleHandler_CancelSale(t *testing.T) {
	saleID := uuid.New()
	restored := uuid.New()
	skipped := uuid.New()

	tests := []struct {
		name           string
		path           string
		setup          func(api *testAPI)
		expectedStatus int
		validate       func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name: "cancels_and_reports_restoration",
			path: "/api/v1/sales/" + saleID.String(),
			setup: func(api *testAPI) {
				api.sales.EXPECT().CancelSale(gomock.Any(), api.userID, saleID).
					Return(&ports.CancelResult{SaleID: saleID, Restored: []uuid.UUID{restored}, Skipped: []uuid.UUID{skipped}}, nil)
			},
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp handlers.CancelSaleResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, saleID, resp.SaleID)
				assert.Equal(t, []uuid.UUID{restored}, resp.Restored)
				assert.Equal(t, []uuid.UUID{skipped}, resp.Skipped)
				assert.NotEmpty(t, resp.Message)
			},
		},
		{
			name: "empty_lists_are_arrays",
			path: "/api/v1/sales/" + saleID.String(),
			setup: func(api *testAPI) {
				api.sales.EXPECT().CancelSale(gomock.Any(), api.userID, saleID).
					Return(&ports.CancelResult{SaleID: saleID}, nil)
			},
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Contains(t, w.Body.String(), `"restored":[]`)
				assert.Contains(t, w.Body.String(), `"skipped":[]`)
			},
		},
		{
			name: "unknown_sale",
			path: "/api/v1/sales/" + saleID.String(),
			setup: func(api *testAPI) {
				api.sales.EXPECT().CancelSale(gomock.Any(), api.userID, saleID).Return(nil, domain.ErrSaleNotFound)
			},
			expectedStatus: http.StatusNotFound,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, "sale_not_found", decodeError(t, w).Code)
			},
		},
		{
			name:           "invalid_id",
			path:           "/api/v1/sales/not-a-uuid",
			setup:          func(api *testAPI) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, nil)
			tt.setup(api)

			w := api.do(t, http.MethodDelete, tt.path, userToken, nil)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.validate != nil {
				tt.validate(t, w)
			}
		})
	}
}

func TestSaleHandler_ListSales_Filters(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected ports.SaleFilter
	}{
		{name: "no_query_lists_full_ledger", query: "", expected: ports.SaleFilter{}},
		{name: "invalid_limit_is_ignored", query: "?limit=abc", expected: ports.SaleFilter{}},
		{name: "limit_is_capped", query: "?limit=100000", expected: ports.SaleFilter{Limit: 500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, nil)
			api.sales.EXPECT().ListSales(gomock.Any(), api.userID, tt.expected).Return([]*domain.Sale{}, nil)

			w := api.do(t, http.MethodGet, "/api/v1/sales"+tt.query, userToken, nil)
			assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		})
	}
}

func TestSaleHandler_ListAndSummary(t *testing.T) {
	api := newTestAPI(t, nil)

	api.sales.EXPECT().ListSales(gomock.Any(), api.userID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, f ports.SaleFilter) ([]*domain.Sale, error) {
			assert.Equal(t, 10, f.Limit)
			assert.Equal(t, 2024, f.From.Year())
			return nil, nil
		})
	w := api.do(t, http.MethodGet, "/api/v1/sales?limit=10&from=2024-01-01", userToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	api.sales.EXPECT().Summary(gomock.Any(), api.userID, gomock.Any(), gomock.Any()).
		Return(&domain.SalesSummary{OwnerID: api.userID, SaleCount: 3, UnitsSold: 7, Revenue: decimal.NewFromInt(70)}, nil)
	w = api.do(t, http.MethodGet, "/api/v1/sales/summary", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary domain.SalesSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.SaleCount)

	w = api.do(t, http.MethodGet, "/api/v1/sales/summary?from=2024-02-01&to=2024-01-01", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaleHandler_Exports(t *testing.T) {
	api := newTestAPI(t, nil)
	job := domain.NewJob(domain.JobSalesExport, api.userID, time.Now())

	api.sales.EXPECT().RequestExport(gomock.Any(), api.userID, gomock.Any(), gomock.Any()).Return(job, nil)
	w := api.do(t, http.MethodPost, "/api/v1/sales/exports", userToken, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "/api/v1/sales/exports/"+job.ID, w.Header().Get("Location"))

	done := *job
	done.Status = domain.JobCompleted
	api.jobs.EXPECT().GetJob(gomock.Any(), api.userID, job.ID).Return(&done, "https://example.com/report.xlsx", nil)
	w = api.do(t, http.MethodGet, "/api/v1/sales/exports/"+job.ID, userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp["status"])
	assert.Equal(t, "https://example.com/report.xlsx", resp["download_url"])

	api.jobs.EXPECT().GetJob(gomock.Any(), api.userID, "missing").Return(nil, "", domain.ErrJobNotFound)
	w = api.do(t, http.MethodGet, "/api/v1/sales/exports/missing", userToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogHandler_Products(t *testing.T) {
	api := newTestAPI(t, nil)
	product := helpers.CreateTestProduct(api.userID)

	api.catalog.EXPECT().CreateProduct(gomock.Any(), api.userID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, in ports.ProductInput) (*domain.StockItem, error) {
			assert.Equal(t, "Widget", in.Name)
			assert.True(t, decimal.RequireFromString("10.50").Equal(in.SalePrice))
			assert.Equal(t, 5, in.Quantity)
			return product, nil
		})
	w := api.do(t, http.MethodPost, "/api/v1/products", userToken,
		`{"name":"Widget","purchase_price":"4","sale_price":"10.50","quantity":5}`)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	api.catalog.EXPECT().List(gomock.Any(), api.userID, ports.CatalogFilter{Kind: domain.KindProduct, State: domain.StateFilter(domain.StateDepleted)}).
		Return([]*domain.StockItem{product}, nil)
	w = api.do(t, http.MethodGet, "/api/v1/products?state=depleted", userToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/services?state=depleted", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	api.catalog.EXPECT().Activate(gomock.Any(), api.userID, product.ID, domain.KindProduct).
		Return(nil, domain.ErrInvalidStateTransition)
	w = api.do(t, http.MethodPost, "/api/v1/products/"+product.ID.String()+"/activate", userToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	api.catalog.EXPECT().Deactivate(gomock.Any(), api.userID, product.ID, domain.KindProduct).Return(product, nil)
	w = api.do(t, http.MethodDelete, "/api/v1/products/"+product.ID.String(), userToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	api.catalog.EXPECT().Restock(gomock.Any(), api.userID, product.ID, 12).Return(product, nil)
	w = api.do(t, http.MethodPost, "/api/v1/products/"+product.ID.String()+"/restock", userToken, `{"quantity":12}`)
	assert.Equal(t, http.StatusOK, w.Code)

	newName := "Gadget"
	api.catalog.EXPECT().UpdateProduct(gomock.Any(), api.userID, product.ID, domain.ProductPatch{Name: &newName}).
		Return(product, nil)
	w = api.do(t, http.MethodPatch, "/api/v1/products/"+product.ID.String(), userToken, `{"name":"Gadget"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	api.catalog.EXPECT().GetItem(gomock.Any(), api.userID, product.ID, domain.KindService).Return(nil, domain.ErrItemNotFound)
	w = api.do(t, http.MethodGet, "/api/v1/services/"+product.ID.String(), userToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogHandler_ImportProducts(t *testing.T) {
	api := newTestAPI(t, nil)
	job := domain.NewJob(domain.JobProductImport, api.userID, time.Now())

	api.catalog.EXPECT().RequestImport(gomock.Any(), api.userID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, up ports.ImportUpload) (*domain.Job, error) {
			assert.Equal(t, "prices.xlsx", up.Filename)
			return job, nil
		})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "prices.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte("PK fake workbook"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/imports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+userToken)
	w := httptest.NewRecorder()
	api.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/v1/products/imports", userToken, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler(t *testing.T) {
	api := newTestAPI(t, nil)
	user := helpers.CreateTestUser()

	api.auth.EXPECT().Register(gomock.Any(), ports.RegisterInput{
		FirstName: "Ada", LastName: "Lovelace", Email: user.Email, Password: helpers.TestPassword,
	}).Return(user, nil)
	w := api.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"first_name": "Ada", "last_name": "Lovelace", "email": user.Email, "password": helpers.TestPassword,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), user.PasswordHash)

	api.auth.EXPECT().Login(gomock.Any(), user.Email, "wrong").Return(nil, domain.ErrInvalidCredentials)
	w = api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": user.Email, "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	api.auth.EXPECT().Login(gomock.Any(), user.Email, helpers.TestPassword).Return(nil, domain.ErrUserDisabled)
	w = api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": user.Email, "password": helpers.TestPassword})
	assert.Equal(t, http.StatusForbidden, w.Code)

	api.auth.EXPECT().Logout(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c *ports.Claims) error {
			assert.Equal(t, "jti-user", c.TokenID)
			return nil
		})
	w = api.do(t, http.MethodPost, "/api/v1/auth/logout", userToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	api.auth.EXPECT().Me(gomock.Any(), api.userID).Return(user, nil)
	w = api.do(t, http.MethodGet, "/api/v1/auth/me", userToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminHandler_RequiresAdmin(t *testing.T) {
	api := newTestAPI(t, nil)
	target := helpers.CreateTestUser()

	w := api.do(t, http.MethodGet, "/api/v1/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	api.users.EXPECT().ListUsers(gomock.Any()).Return([]*domain.User{target}, nil)
	w = api.do(t, http.MethodGet, "/api/v1/admin/users", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	api.users.EXPECT().ToggleUser(gomock.Any(), target.ID).Return(target, nil)
	w = api.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/users/%s/toggle", target.ID), adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	api.users.EXPECT().UpdateUser(gomock.Any(), target.ID, gomock.Any()).Return(nil, domain.ErrEmailTaken)
	w = api.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/users/%s", target.ID), adminToken, `{"email":"taken@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email_taken", decodeError(t, w).Code)
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		dbErr          error
		path           string
		expectedStatus int
	}{
		{name: "healthy", path: "/health", expectedStatus: http.StatusOK},
		{name: "ready", path: "/ready", expectedStatus: http.StatusOK},
		{name: "database_down", dbErr: errors.New("refused"), path: "/health", expectedStatus: http.StatusServiceUnavailable},
		{name: "not_ready", dbErr: errors.New("refused"), path: "/ready", expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, tt.dbErr)
			w := api.do(t, http.MethodGet, tt.path, "", nil)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

type fakeInspector struct{ err error }

func (f fakeInspector) Queues() ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{"default"}, nil
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Pending: 2, Scheduled: 1, Retry: 1}, nil
}

func (f fakeInspector) Servers() ([]*asynq.ServerInfo, error) { return nil, nil }

func TestHealthHandler_QueueIsInformational(t *testing.T) {
	tests := []struct {
		name          string
		inspector     fakeInspector
		expectedQueue string
	}{
		{name: "queue_reachable", inspector: fakeInspector{}, expectedQueue: "healthy"},
		{name: "queue_down_keeps_api_healthy", inspector: fakeInspector{err: errors.New("no redis")}, expectedQueue: "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			redis := helpers.SetupTestRedis(t)
			h := handlers.NewHealthHandler(fakeDB{}, redis.Client, tt.inspector, nil, helpers.LoadTestConfig(), helpers.TestLogger())

			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var body handlers.HealthStatus
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "healthy", body.Status)
			queue := body.Services["asynq"]
			assert.Equal(t, tt.expectedQueue, queue.Status)
			assert.False(t, queue.Required)
			if tt.inspector.err == nil {
				assert.EqualValues(t, 3, queue.Details["backlog"])
			}

			w = httptest.NewRecorder()
			h.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.NotContains(t, w.Body.String(), "asynq")
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t, nil)
	api.sales.EXPECT().ListSales(gomock.Any(), api.userID, gomock.Any()).Return(nil, nil)
	api.do(t, http.MethodGet, "/api/v1/sales", userToken, nil)

	w := api.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `stockledger_http_requests_total{method="GET",route="GET /api/v1/sales",status_code="200"} 1`)
}

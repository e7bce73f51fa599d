// internal/handlers/router.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
	"github.com/ammerola/stockledger-be/internal/handlers/middleware"
	"github.com/ammerola/stockledger-be/internal/pkg/metrics"
)

const apiV1 = "/api/v1"

// RouterConfig holds the cross-cutting HTTP settings
type RouterConfig struct {
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitDuration time.Duration
	RequestTimeout    time.Duration
	SecureHeaders     bool
	EnableMetrics     bool
	Gatherer          prometheus.Gatherer
}

// Router bundles every handler the API serves
type Router struct {
	Auth    *AuthHandler
	Sales   *SaleHandler
	Catalog *CatalogHandler
	Admin   *AdminHandler
	Health  *HealthHandler

	AuthService ports.AuthService
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Handler builds the mux and wraps it in the global middleware chain
func (rt *Router) Handler(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	rt.register(mux, cfg)

	chain := []middleware.Middleware{
		middleware.RequestID,
		middleware.Logger(rt.Logger),
		middleware.Recovery(rt.Logger),
	}
	if cfg.RateLimitRequests > 0 {
		chain = append(chain, middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitDuration))
	}
	if len(cfg.AllowedOrigins) > 0 {
		chain = append(chain, middleware.CORS(cfg.AllowedOrigins))
	}
	if cfg.SecureHeaders {
		chain = append(chain, middleware.SecureHeaders)
	}
	chain = append(chain, middleware.Compression)
	if cfg.RequestTimeout > 0 {
		chain = append(chain, middleware.Timeout(cfg.RequestTimeout))
	}

	return middleware.Chain(mux, chain...)
}

func (rt *Router) register(mux *http.ServeMux, cfg RouterConfig) {
	authn := middleware.Authenticate(rt.AuthService, rt.Logger)
	admin := middleware.RequireRole(domain.RoleAdmin)

	public := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.Chain(h, middleware.Metrics(rt.Metrics, pattern)))
	}
	private := func(pattern string, h http.HandlerFunc, extra ...middleware.Middleware) {
		mws := append([]middleware.Middleware{middleware.Metrics(rt.Metrics, pattern), authn}, extra...)
		mux.Handle(pattern, middleware.Chain(h, mws...))
	}

	// Health and readiness
	mux.HandleFunc("GET /health", rt.Health.Health)
	mux.HandleFunc("GET /ready", rt.Health.Readiness)
	mux.HandleFunc("GET "+apiV1+"/health", rt.Health.Health)
	if cfg.EnableMetrics && cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// Accounts
	public("POST "+apiV1+"/auth/register", rt.Auth.Register)
	public("POST "+apiV1+"/auth/login", rt.Auth.Login)
	private("POST "+apiV1+"/auth/logout", rt.Auth.Logout)
	private("GET "+apiV1+"/auth/me", rt.Auth.Me)

	// Sales
	private("POST "+apiV1+"/sales", rt.Sales.CreateSale)
	private("GET "+apiV1+"/sales", rt.Sales.ListSales)
	private("GET "+apiV1+"/sales/summary", rt.Sales.Summary)
	private("POST "+apiV1+"/sales/exports", rt.Sales.RequestExport)
	private("GET "+apiV1+"/sales/exports/{jobId}", rt.Sales.GetExport)
	private("GET "+apiV1+"/sales/{id}", rt.Sales.GetSale)
	private("DELETE "+apiV1+"/sales/{id}", rt.Sales.CancelSale)

	// Products
	private("GET "+apiV1+"/products", rt.Catalog.ListProducts)
	private("POST "+apiV1+"/products", rt.Catalog.CreateProduct)
	private("POST "+apiV1+"/products/imports", rt.Catalog.ImportProducts)
	private("GET "+apiV1+"/products/imports/{jobId}", rt.Catalog.GetImport)
	private("GET "+apiV1+"/products/{id}", rt.Catalog.GetProduct)
	private("PATCH "+apiV1+"/products/{id}", rt.Catalog.UpdateProduct)
	private("DELETE "+apiV1+"/products/{id}", rt.Catalog.DeactivateProduct)
	private("POST "+apiV1+"/products/{id}/activate", rt.Catalog.ActivateProduct)
	private("POST "+apiV1+"/products/{id}/restock", rt.Catalog.RestockProduct)

	// Services
	private("GET "+apiV1+"/services", rt.Catalog.ListServices)
	private("POST "+apiV1+"/services", rt.Catalog.CreateService)
	private("GET "+apiV1+"/services/{id}", rt.Catalog.GetService)
	private("PATCH "+apiV1+"/services/{id}", rt.Catalog.UpdateService)
	private("DELETE "+apiV1+"/services/{id}", rt.Catalog.DeactivateService)
	private("POST "+apiV1+"/services/{id}/activate", rt.Catalog.ActivateService)

	// Administration
	private("GET "+apiV1+"/admin/users", rt.Admin.ListUsers, admin)
	private("POST "+apiV1+"/admin/users/{id}/toggle", rt.Admin.ToggleUser, admin)
	private("PATCH "+apiV1+"/admin/users/{id}", rt.Admin.UpdateUser, admin)
}

package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/servicelane/servicelane-backend/api/controllers"
	"github.com/servicelane/servicelane-backend/api/middleware"
	"github.com/servicelane/servicelane-backend/internal/audit"
	"github.com/servicelane/servicelane-backend/internal/branches"
	"github.com/servicelane/servicelane-backend/internal/catalog"
	"github.com/servicelane/servicelane-backend/internal/customers"
	"github.com/servicelane/servicelane-backend/internal/joborders"
	"github.com/servicelane/servicelane-backend/internal/pricing"
	"github.com/servicelane/servicelane-backend/internal/vehicles"
	"github.com/servicelane/servicelane-backend/pkg/config"
	"github.com/servicelane/servicelane-backend/pkg/db"
	"github.com/servicelane/servicelane-backend/pkg/logger"
	"github.com/servicelane/servicelane-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	auditRepo audit.Repository,
	branchService branches.Service,
	customerService customers.Service,
	vehicleService vehicles.Service,
	catalogService catalog.Service,
	pricingService pricing.Service,
	jobOrderService joborders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	// Assign through interfaces only when the client exists, so a nil
	// *redis.Client never hides inside a non-nil interface value.
	var redisP redis.Pinger
	var idemStore redis.IdempotencyStore
	if redisClient != nil {
		redisP = redisClient
		idemStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/branches", func(r chi.Router) {
			r.Get("/", controllers.BranchList(branchService, logg))
			r.Post("/", controllers.BranchCreate(branchService, logg))
			r.Get("/{branchId}", controllers.BranchDetail(branchService, logg))
			r.Patch("/{branchId}", controllers.BranchUpdate(branchService, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerList(customerService, logg))
			r.Post("/", controllers.CustomerCreate(customerService, logg))
			r.Get("/{customerId}", controllers.CustomerDetail(customerService, logg))
			r.Patch("/{customerId}", controllers.CustomerUpdate(customerService, logg))
			r.Delete("/{customerId}", controllers.CustomerDelete(customerService, logg))
			r.Get("/{customerId}/vehicles", controllers.VehicleList(vehicleService, logg))
			r.Post("/{customerId}/vehicles", controllers.VehicleCreate(vehicleService, logg))
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/{vehicleId}", controllers.VehicleDetail(vehicleService, logg))
			r.Patch("/{vehicleId}", controllers.VehicleUpdate(vehicleService, logg))
			r.Delete("/{vehicleId}", controllers.VehicleDelete(vehicleService, logg))
		})

		r.Route("/catalog-items", func(r chi.Router) {
			r.Get("/", controllers.CatalogItemList(catalogService, logg))
			r.Post("/", controllers.CatalogItemCreate(catalogService, logg))
			r.Get("/{itemId}", controllers.CatalogItemDetail(catalogService, logg))
			r.Patch("/{itemId}", controllers.CatalogItemUpdate(catalogService, logg))
			r.Delete("/{itemId}", controllers.CatalogItemDelete(catalogService, logg))
		})

		r.Route("/pricing-rules", func(r chi.Router) {
			r.Get("/", controllers.PricingRuleList(pricingService, logg))
			r.Post("/", controllers.PricingRuleCreate(pricingService, logg))
			r.Get("/resolve", controllers.PricingResolve(pricingService, logg))
			r.Get("/{ruleId}", controllers.PricingRuleDetail(pricingService, logg))
			r.Patch("/{ruleId}", controllers.PricingRuleUpdate(pricingService, logg))
			r.Delete("/{ruleId}", controllers.PricingRuleDelete(pricingService, logg))
		})

		r.Get("/job-orders", controllers.JobOrderList(jobOrderService, logg))
		r.Post("/job-orders", controllers.JobOrderCreate(jobOrderService, logg))
		r.Route("/job-orders/{orderId}", func(r chi.Router) {
			r.Get("/", controllers.JobOrderDetail(jobOrderService, logg))
			r.Patch("/", controllers.JobOrderUpdateNotes(jobOrderService, logg))
			r.Delete("/", controllers.JobOrderDelete(jobOrderService, logg))
			r.Post("/request-approval", controllers.JobOrderRequestApproval(jobOrderService, logg))
			r.Post("/approval", controllers.JobOrderApproval(jobOrderService, logg))
		})

		r.Route("/audit-logs", func(r chi.Router) {
			r.Use(middleware.RequireHeadManager(logg))
			r.Get("/", controllers.AuditLogList(auditRepo, logg))
		})
	})

	return r
}

package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opremico/opremico-backend/api/controllers"
	"github.com/opremico/opremico-backend/api/middleware"
	"github.com/opremico/opremico-backend/internal/analytics"
	"github.com/opremico/opremico-backend/internal/archive"
	"github.com/opremico/opremico-backend/internal/documents"
	"github.com/opremico/opremico-backend/internal/orders"
	"github.com/opremico/opremico-backend/pkg/config"
	"github.com/opremico/opremico-backend/pkg/db"
	"github.com/opremico/opremico-backend/pkg/logger"
	pkgredis "github.com/opremico/opremico-backend/pkg/redis"
	"github.com/opremico/opremico-backend/pkg/storage/gcs"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	gcsClient gcs.Pinger,
	ordersSvc orders.Service,
	documentsSvc documents.Service,
	archiveSvc archive.Service,
	analyticsSvc analytics.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessDeps(dbP, redisClient, gcsClient)))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Post("/checkout", controllers.Checkout(ordersSvc, documentsSvc, logg))
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(ordersSvc, logg))
				r.Route("/{orderID}", func(r chi.Router) {
					r.Get("/", controllers.AdminGetOrder(ordersSvc, logg))
					r.Patch("/", controllers.AdminUpdateOrder(ordersSvc, logg))
					r.Put("/items", controllers.AdminReplaceOrderItems(ordersSvc, logg))
					r.Delete("/", controllers.AdminDeleteOrder(ordersSvc, logg))

					r.Route("/documents", func(r chi.Router) {
						r.Get("/", controllers.AdminListOrderDocuments(documentsSvc, logg))
						r.Post("/", controllers.AdminGenerateDocument(documentsSvc, logg))
						r.Get("/latest", controllers.AdminLatestDocument(documentsSvc, logg))
						r.Post("/attachments", controllers.AdminRecordAttachment(documentsSvc, logg))
					})
				})
			})

			r.Delete("/documents/{documentID}", controllers.AdminDeleteDocument(documentsSvc, logg))

			r.Route("/archive", func(r chi.Router) {
				r.Get("/", controllers.AdminListArchive(archiveSvc, logg))
				r.Post("/restore", controllers.AdminRestoreArchive(archiveSvc, logg))
				r.Post("/purge", controllers.AdminPurgeArchive(archiveSvc, logg))
			})

			r.Get("/analytics/orders", controllers.AdminOrdersReport(analyticsSvc, logg))
		})
	})

	return r
}

func readinessDeps(dbP db.Pinger, redisClient *pkgredis.Client, gcsClient gcs.Pinger) map[string]controllers.Pinger {
	deps := map[string]controllers.Pinger{}
	if dbP != nil {
		deps["postgres"] = dbP
	}
	if redisClient != nil {
		deps["redis"] = redisClient
	}
	if gcsClient != nil {
		deps["gcs"] = gcsClient
	}
	return deps
}

package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/murtazox04/kelishamiz-backend/config"
	v1 "github.com/murtazox04/kelishamiz-backend/internal/controller/restapi/v1"
	"github.com/murtazox04/kelishamiz-backend/internal/usecase"
	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
	"github.com/murtazox04/kelishamiz-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// @title Kelishamiz listing images
// @version 1.0.0
// @host localhost:8080
// @BasePath /v1
func NewRouter(
	app *fiber.App,
	cfg *config.Config,
	img usecase.ImageUseCase,
	ingest usecase.IngestUseCase,
	m *metrics.Metrics,
	l logger.Interface,
) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// Prometheus
	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewImageRoutes(apiV1Group, img, ingest, l)
	}
}

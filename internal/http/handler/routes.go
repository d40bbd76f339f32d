package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"uploadapi/internal/service"
	"uploadapi/internal/storage"
)

// Dependencies are the collaborators the routes need.
type Dependencies struct {
	Uploads      service.UploadService
	Sink         storage.Sink
	UploadDir    string
	MaxPartBytes int64
	Counter      *Counter
	// Gatherer serves /metrics; nil disables the route.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: decoding lives in codec, ingest in service.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/health", HealthCheck(deps.Sink, deps.UploadDir))
	app.Get("/healthz", LivenessProbe())

	app.Post("/vectors", DecodeVector())
	app.Post("/videos", UploadVideo(deps.Uploads, deps.MaxPartBytes))

	counter := deps.Counter
	if counter == nil {
		counter = &Counter{}
	}
	app.Get("/counter", ShowCount(counter))
	app.Post("/counter/add", AddOne(counter))

	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
}

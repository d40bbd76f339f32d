package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"uploadapi/docs"
	"uploadapi/internal/config"
	handlers "uploadapi/internal/http/handler"
	"uploadapi/internal/http/middleware"
	"uploadapi/internal/logging"
	"uploadapi/internal/otel"
	"uploadapi/internal/service"
	"uploadapi/internal/storage"
)

// @title Upload API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.Location(), slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log, cfg.ServiceName)
	if err != nil {
		log.Error("tracing_init_failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Error("tracing_shutdown_failed", "error", err)
		}
	}()

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.HTTP.BodyLimitBytes),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.LoggerWithWriter(os.Stdout, cfg.Location()))
	app.Use(otelfiber.Middleware(otelfiber.WithServerName(cfg.AppHost)))

	var (
		gatherer prometheus.Gatherer
		metrics  *service.Metrics
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		promMW, err := middleware.NewPrometheusMiddleware(reg)
		if err != nil {
			log.Error("metrics_init_failed", "error", err)
			os.Exit(1)
		}
		app.Use(promMW.Handler())

		if metrics, err = service.NewMetrics(reg); err != nil {
			log.Error("metrics_init_failed", "error", err)
			os.Exit(1)
		}
		gatherer = reg
	}

	// Initialize storage and the ingest service
	sink := storage.NewLocal()
	uploads := service.NewUploadService(sink, service.UploadOptions{
		Dir:        cfg.Upload.Dir,
		BufferSize: cfg.Upload.CopyBufferBytes,
		Logger:     log,
		Metrics:    metrics,
	})

	handlers.RegisterRoutes(app, handlers.Dependencies{
		Uploads:      uploads,
		Sink:         sink,
		UploadDir:    cfg.Upload.Dir,
		MaxPartBytes: cfg.Upload.MaxPartBytes,
		Counter:      &handlers.Counter{},
		Gatherer:     gatherer,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server_shutdown_failed", "error", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Info("server_starting", "addr", addr, "upload_dir", cfg.Upload.Dir, "max_part_bytes", cfg.Upload.MaxPartBytes)

	if err := app.Listen(addr); err != nil {
		log.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

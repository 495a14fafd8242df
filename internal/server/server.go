// Package server is the web front end: the departures board, the email
// upload hook and a JSON feed.
package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/classify"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/index"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/ingest"
)

// uploads carry a whole email with its PDF
const defaultBodyLimit = 32 << 20

type Options struct {
	DB       *index.DB
	Pipeline *ingest.Pipeline
	Palette  classify.Palette
	Gatherer prometheus.Gatherer // nil serves the default registry
	Logger   zerolog.Logger
	Now      func() time.Time // nil means time.Now
	// BoardLimit caps rows on the board page, 0 for all.
	BoardLimit int
}

type Server struct {
	app  *fiber.App
	opts Options
}

func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Palette.Default == "" && len(opts.Palette.Entries) == 0 {
		opts.Palette = classify.DefaultPalette()
	}

	app := fiber.New(fiber.Config{
		AppName:               "ESMS Bus Timetable",
		BodyLimit:             defaultBodyLimit,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${status} ${method} ${path} ${latency}\n",
		Output: opts.Logger,
	}))

	app.Get("/", BoardHandler(opts))
	app.Post("/upload", UploadHandler(opts))
	app.Get("/api/departures", DeparturesHandler(opts))
	app.Get("/healthz", HealthHandler(opts.DB))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	return &Server{app: app, opts: opts}
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.opts.Logger.Info().Str("addr", addr).Msg("listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/Imdraks/faxcloud-analyzer/internal/config"
	"github.com/Imdraks/faxcloud-analyzer/internal/dataprocessing"
	apierrors "github.com/Imdraks/faxcloud-analyzer/internal/errors"
	"github.com/Imdraks/faxcloud-analyzer/internal/infrastructure"
	customMiddleware "github.com/Imdraks/faxcloud-analyzer/internal/middleware"
	"github.com/Imdraks/faxcloud-analyzer/internal/services"
	"github.com/Imdraks/faxcloud-analyzer/internal/storage"
	handlers "github.com/Imdraks/faxcloud-analyzer/internal/transport/http"
	ws "github.com/Imdraks/faxcloud-analyzer/internal/websocket"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.AnalysisMetrics
	Store         storage.ReportStore
	WebSocketHub  *ws.Hub
	ReportService *services.ReportService
	HealthService *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler
}

// NewApplication loads the configuration, sets up logging and wires the
// application. configPath may be empty to use the default lookup.
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(context.Background(), cfg, logger)
}

// New wires every component from an already loaded configuration
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("storage", cfg.Storage.Driver),
		slog.Bool("cache", cfg.Cache.Enabled))

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Level == "debug"),
	}

	if err := app.initializeServices(ctx); err != nil {
		app.shutdownProviders(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context) error {
	metrics, err := infrastructure.NewAnalysisMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create analysis metrics: %w", err)
	}
	a.Metrics = metrics

	store, err := storage.Open(ctx, a.Config.Storage, a.Config.Cache, metrics, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open report store: %w", err)
	}
	a.Store = store

	hubMetrics, err := ws.NewHubMetrics(a.OTelProviders.Meter)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}
	a.WebSocketHub = ws.NewHub(a.Logger,
		ws.WithMetrics(hubMetrics),
		ws.WithKeepalive(a.Config.WebSocket.PingPeriod, a.Config.WebSocket.PongWait))
	a.WebSocketHub.Start()

	analyzer := dataprocessing.NewAnalyzer(a.Logger)
	a.ReportService = services.NewReportService(analyzer, store, a.WebSocketHub, a.Logger,
		services.WithTracer(a.OTelProviders.Tracer),
		services.WithMetrics(metrics))
	a.HealthService = services.NewHealthService(store, a.WebSocketHub, a.Logger)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Hijacked connections must not pass through response-wrapping middleware
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	wsHandler := ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle("/ws", wsHandler)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		reportHandler := handlers.NewReportHandler(a.ReportService, a.Config.Server.MaxUploadBytes, a.Logger, a.ErrorHandler)
		r.Mount("/reports", reportHandler.Routes())

		r.Post("/logs", handlers.NewClientLogHandler(a.Logger).Handle)
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Start binds the listener and serves in the background. A serve failure
// calls cancel so Run can shut down.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	a.Logger.InfoContext(ctx, "Server listening",
		slog.String("address", ln.Addr().String()),
		slog.String("level", a.Config.Logging.Level),
		slog.Int64("max_upload_bytes", a.Config.Server.MaxUploadBytes))

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}
	if a.WebSocketHub != nil {
		a.WebSocketHub.Stop()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close report store: %w", err))
		}
	}
	a.shutdownProviders(shutdownCtx)

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}
	return errors.Join(errs...)
}

func (a *Application) shutdownProviders(ctx context.Context) {
	if a.OTelProviders == nil {
		return
	}
	if err := a.OTelProviders.Shutdown(ctx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(serveCtx, cancel); err != nil {
		return err
	}

	<-serveCtx.Done()
	a.Logger.InfoContext(ctx, "Received shutdown signal")
	return a.Stop(context.Background())
}

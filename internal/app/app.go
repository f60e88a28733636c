package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"bhavcli/internal/config"
	transport "bhavcli/internal/transport/http"
)

// BuildTime is set at link time with -ldflags "-X bhavcli/internal/app.BuildTime=..."
var BuildTime = "unknown"

// Application represents the web server and its dependencies
type Application struct {
	Config     *config.Config
	Components *Components
	Logger     *slog.Logger
	Router     chi.Router
	Server     *http.Server
}

// NewApplication creates the web server around already built components
func NewApplication(c *Components) *Application {
	app := &Application{
		Config:     c.Config,
		Components: c,
		Logger:     c.Logger.With(slog.String("component", "app")),
	}
	app.Router = app.createRouter()
	app.Server = app.createServer()
	return app
}

func (a *Application) createRouter() chi.Router {
	c := a.Components
	deps := transport.RouterDeps{
		Reports:           c.Reports,
		Directory:         c.Directory,
		Health:            c.Health,
		Metrics:           c.Metrics,
		Tracer:            c.OTel.Tracer,
		PrometheusHandler: c.OTel.PrometheusHTTP,
		ReportMemoTTL:     a.Config.Server.ReportCacheTTL,
		IncludeStack:      a.Config.Observability.Environment == "development",
		Logger:            c.Logger,
	}
	// a nil *store.Store must not reach the interface field
	if c.Store != nil {
		deps.Archive = c.Store
	}
	if a.Config.Server.RateLimit.Enabled {
		deps.RateLimit = a.Config.Server.RateLimit.RPS
		deps.RateBurst = a.Config.Server.RateLimit.Burst
	}
	return transport.NewRouter(deps)
}

func (a *Application) createServer() *http.Server {
	var handler http.Handler = a.Router
	if a.Config.Server.RequestTimeout > 0 {
		handler = chimw.Timeout(a.Config.Server.RequestTimeout)(handler)
	}

	return &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        handler,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start serves HTTP in the background. Listen errors are sent on the
// returned channel.
func (a *Application) Start() <-chan error {
	errCh := make(chan error, 1)

	a.Logger.Info("starting server",
		slog.String("addr", a.Server.Addr),
		slog.String("version", config.AppVersion),
		slog.Bool("archive", a.Components.Store != nil),
		slog.String("directory_backend", a.Config.Directory.Backend),
	)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
		close(errCh)
	}()

	return errCh
}

// Stop shuts the server down gracefully and releases the components
func (a *Application) Stop() error {
	a.Logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if err := a.Components.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("component shutdown: %w", err))
	}

	if len(errs) == 0 {
		a.Logger.Info("server stopped")
	}
	return errors.Join(errs...)
}

// Run starts the server and blocks until an interrupt or a listen error
func (a *Application) Run() error {
	errCh := a.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errCh:
		if err != nil {
			_ = a.Components.Close(context.Background())
			return err
		}
		return nil
	case sig := <-sigChan:
		a.Logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	return a.Stop()
}

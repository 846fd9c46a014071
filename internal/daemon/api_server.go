package daemon

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hashicorp/go-hclog"

	"github.com/opencode-portal/portal/internal/api"
	"github.com/opencode-portal/portal/internal/cmd"
	"github.com/opencode-portal/portal/internal/errors"
)

// installErrorHandler guards the process wide huma error constructor.
var installErrorHandler sync.Once

// APIServer manages the HTTP API for the daemon.
// NewAPIServer should be used to create instances of APIServer.
type APIServer struct {
	logger            hclog.Logger
	services          api.Services
	addr              string
	cors              CORSConfig
	shutdownTimeout   time.Duration
	readHeaderTimeout time.Duration
}

// NewAPIServer creates a new API server with the provided dependencies and options.
func NewAPIServer(deps APIDependencies, opt ...APIOption) (*APIServer, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for API server: %w", err)
	}

	apiOpts, err := NewAPIOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid API options: %w", err)
	}

	return &APIServer{
		logger:            deps.Logger.Named("api"),
		services:          deps.Services,
		addr:              deps.Addr,
		cors:              apiOpts.CORS,
		shutdownTimeout:   apiOpts.ShutdownTimeout,
		readHeaderTimeout: apiOpts.ReadHeaderTimeout,
	}, nil
}

// Handler builds the HTTP handler serving every API route, along with the OpenAPI docs.
func (a *APIServer) Handler() (http.Handler, error) {
	mux := chi.NewMux()
	mux.Use(middleware.StripSlashes)

	if a.cors.Enabled {
		a.applyCORS(mux)
	}

	config := huma.DefaultConfig(cmd.AppName()+" docs", cmd.Version())
	router := humachi.New(mux, config)

	logger := a.logger
	installErrorHandler.Do(func() {
		huma.NewErrorWithContext = errorHandler(logger)
	})

	prefix, err := api.RegisterRoutes(router, a.services)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Registered API routes", "prefix", prefix)

	return mux, nil
}

// Start starts the API server and blocks until the context is canceled or an error occurs.
// The ready channel, when not nil, is closed once the server is listening.
func (a *APIServer) Start(ctx context.Context, ready chan<- struct{}) error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on '%s': %w", a.addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: a.readHeaderTimeout,
	}
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("Starting API server", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if ready != nil {
		close(ready)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()
		a.logger.Info("Shutting down API server...")
		_ = srv.Shutdown(shutdownCtx)
		a.logger.Info("Shutdown complete")
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// applyCORS applies CORS middleware to the router based on the configured options.
func (a *APIServer) applyCORS(mux *chi.Mux) {
	a.logger.Info("Enabling CORS", "origins", a.cors.AllowOrigins)

	corsOptions := cors.Options{
		AllowedOrigins:   a.cors.AllowOrigins,
		AllowedMethods:   a.cors.AllowMethods,
		AllowedHeaders:   a.cors.AllowedHeaders,
		ExposedHeaders:   a.cors.ExposedHeaders,
		AllowCredentials: a.cors.AllowCredentials,
		MaxAge:           int(a.cors.MaxAge.Seconds()),
	}

	// Credentials are never allowed alongside a wildcard origin.
	for _, origin := range corsOptions.AllowedOrigins {
		if origin == "*" {
			corsOptions.AllowedOrigins = []string{"*"}
			corsOptions.AllowCredentials = false
			break
		}
	}

	mux.Use(cors.Handler(corsOptions))
}

// mapError maps application domain errors to appropriate HTTP status codes.
//
// NOTE: Keep this function in sync with internal/errors/errors.go.
// Every error defined there should have an explicit case here otherwise it will default to 500.
//
// Mapping guidelines:
//   - 400: Client errors (bad input, invalid requests)
//   - 404: Resource not found errors
//   - 409: Conflicting concurrent requests
//   - 502: OpenCode server failures
//   - 500: Unexpected internal errors (default case)
func mapError(logger hclog.Logger, err error) huma.StatusError {
	switch {
	case stdErrors.Is(err, errors.ErrEmptyURL),
		stdErrors.Is(err, errors.ErrInvalidURL),
		stdErrors.Is(err, errors.ErrBadRequest):
		return huma.Error400BadRequest(err.Error())
	case stdErrors.Is(err, errors.ErrServerNotFound),
		stdErrors.Is(err, errors.ErrHealthNotTracked):
		return huma.Error404NotFound(err.Error())
	case stdErrors.Is(err, errors.ErrConnectInProgress):
		return huma.Error409Conflict(err.Error())
	case stdErrors.Is(err, errors.ErrServerUnhealthy):
		logger.Warn("Server is not healthy", "error", err)
		return huma.Error502BadGateway(err.Error())
	case stdErrors.Is(err, errors.ErrServerUnreachable):
		logger.Warn("Server is unreachable", "error", err)
		return huma.Error502BadGateway(err.Error())
	default:
		logger.Error("Unexpected error handling API request", "error", err)
		return huma.Error500InternalServerError("Internal server error", err)
	}
}

// errorHandler wraps error handling for the application when converting to API friendly errors.
// Request validation failures keep the status huma assigned, everything else is mapped from domain errors.
func errorHandler(logger hclog.Logger) func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
	return func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if len(errs) == 0 || allDetails(errs) {
			return huma.NewError(status, msg, errs...)
		}
		if len(errs) == 1 {
			return mapError(logger, errs[0])
		}
		return mapError(logger, stdErrors.Join(errs...))
	}
}

func allDetails(errs []error) bool {
	for _, err := range errs {
		var detailer huma.ErrorDetailer
		if !stdErrors.As(err, &detailer) {
			return false
		}
	}
	return true
}

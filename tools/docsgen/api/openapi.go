//go:build docsgen_api
// +build docsgen_api

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"

	"github.com/opencode-portal/portal/internal/api"
	"github.com/opencode-portal/portal/internal/connect"
	"github.com/opencode-portal/portal/internal/domain"
	"github.com/opencode-portal/portal/internal/opencode"
	"github.com/opencode-portal/portal/internal/serverurl"
)

// stubConnector provides a stub implementation for documentation generation.
type stubConnector struct{}

func (stubConnector) Connect(context.Context, string) (serverurl.URL, error) { return "", nil }
func (stubConnector) Status() connect.Status                                 { return connect.Status{} }

// stubServers provides a stub implementation for documentation generation.
type stubServers struct{}

func (stubServers) List() []domain.ServerRecord { return nil }
func (stubServers) Remove(string) error         { return nil }

// stubHealthMonitor provides a stub implementation for documentation generation.
type stubHealthMonitor struct{}

func (stubHealthMonitor) Status(string) (domain.ServerHealth, error) {
	return domain.ServerHealth{}, nil
}
func (stubHealthMonitor) List() []domain.ServerHealth                              { return nil }
func (stubHealthMonitor) Update(string, domain.HealthStatus, *time.Duration) error { return nil }
func (stubHealthMonitor) Track(string)                                             {}
func (stubHealthMonitor) Untrack(string)                                           {}

// stubClients provides a stub implementation for documentation generation.
type stubClients struct{}

func (stubClients) GetWithKey(int) (*opencode.Client, string, error) { return nil, "", nil }
func (stubClients) Clear(int) error                                  { return nil }
func (stubClients) ClearAll()                                        {}

// main generates the OpenAPI specification for the portal API.
// It assumes it is run from the repository root.
func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "portal.docsgen.api",
		Level:  hclog.Info,
		Output: os.Stderr,
	})

	// Output path for the OpenAPI spec, relative to the repository root.
	outputPath := "./docs/api/openapi.yaml"

	// Create a chi router (same as the daemon).
	mux := chi.NewMux()
	mux.Use(middleware.StripSlashes)

	config := huma.DefaultConfig("portal docs", api.APIVersion)
	router := humachi.New(mux, config)

	// The OpenAPI spec generation only needs the route definitions, not the actual handlers.
	apiPathPrefix, err := api.RegisterRoutes(router, api.Services{
		Connector:     stubConnector{},
		Servers:       stubServers{},
		HealthMonitor: stubHealthMonitor{},
		Clients:       stubClients{},
	})
	if err != nil {
		logger.Error("failed to register API routes", "error", err)
		os.Exit(1)
	}

	logger.Info("Routes registered", "prefix", apiPathPrefix)

	yamlBytes, err := router.OpenAPI().YAML()
	if err != nil {
		logger.Error("failed to generate OpenAPI YAML", "error", err)
		os.Exit(1)
	}

	docsDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		logger.Error("failed to create docs directory", "path", docsDir, "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outputPath, yamlBytes, 0o644); err != nil {
		logger.Error("failed to write OpenAPI spec", "path", outputPath, "error", err)
		os.Exit(1)
	}

	logger.Info("OpenAPI spec generated", "path", outputPath, "size", fmt.Sprintf("%d bytes", len(yamlBytes)))
}

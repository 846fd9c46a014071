package api

import (
	"fmt"
	"net/url"
	"reflect"

	"github.com/danielgtaylor/huma/v2"

	"github.com/opencode-portal/portal/internal/contracts"
)

// APIVersion is the version used in the OpenAPI spec and URL paths.
const APIVersion = "v1"

// Services groups the components exposed by the API.
type Services struct {
	Connector     Connector
	Servers       contracts.ServerLister
	HealthMonitor contracts.HealthMonitor
	Clients       ClientCache
}

// Validate ensures every service is provided.
func (s Services) Validate() error {
	if isNil(s.Connector) {
		return fmt.Errorf("connector cannot be nil")
	}
	if isNil(s.Servers) {
		return fmt.Errorf("server lister cannot be nil")
	}
	if isNil(s.HealthMonitor) {
		return fmt.Errorf("health monitor cannot be nil")
	}
	if isNil(s.Clients) {
		return fmt.Errorf("client cache cannot be nil")
	}
	return nil
}

// RegisterRoutes registers all API routes on the provided Huma router.
// This is the single source of truth for the API route structure.
// Returns the API path prefix (e.g., "/api/v1") under which the routes are created.
func RegisterRoutes(router huma.API, services Services) (string, error) {
	if isNil(router) {
		return "", fmt.Errorf("router cannot be nil")
	}
	if err := services.Validate(); err != nil {
		return "", err
	}

	// Safe way to ensure /api/{version}.
	apiPathPrefix, err := url.JoinPath("/api", APIVersion)
	if err != nil {
		return "", fmt.Errorf("failed to construct API path prefix: %w", err)
	}

	// Group all routes under the /api/{version} prefix.
	versionedGroup := huma.NewGroup(router, apiPathPrefix)
	RegisterConnectRoutes(versionedGroup, services.Connector, "/connect")
	RegisterServerRoutes(versionedGroup, services.Servers, services.HealthMonitor, "/servers")
	RegisterHealthRoutes(versionedGroup, services.HealthMonitor, "/health")
	RegisterClientRoutes(versionedGroup, services.Clients, "/clients")

	return apiPathPrefix, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

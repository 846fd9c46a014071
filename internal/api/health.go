package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/opencode-portal/portal/internal/contracts"
	"github.com/opencode-portal/portal/internal/domain"
	"github.com/opencode-portal/portal/internal/serverurl"
)

const (
	HealthStatusOK          HealthStatus = "ok"
	HealthStatusUnhealthy   HealthStatus = "unhealthy"
	HealthStatusTimeout     HealthStatus = "timeout"
	HealthStatusUnreachable HealthStatus = "unreachable"
	HealthStatusUnknown     HealthStatus = "unknown"
)

// DomainServerHealth is a wrapper that allows receivers to be declared in the API package that deal with domain types.
type DomainServerHealth domain.ServerHealth

// HealthStatus represents the most recent probe outcome for a server.
type HealthStatus string

// ServerHealth describes the most recent probe of a known server.
type ServerHealth struct {
	URL            string       `json:"url"`
	Status         HealthStatus `json:"status"`
	Latency        *string      `json:"latency,omitempty"`
	LastChecked    *time.Time   `json:"lastChecked,omitempty"`
	LastSuccessful *time.Time   `json:"lastSuccessful,omitempty"`
}

// ServersHealthResponse is the response for GET /health/servers.
type ServersHealthResponse struct {
	Body struct {
		Servers []ServerHealth `doc:"Tracked server health statuses" json:"servers"`
	}
}

// ServerHealthRequest is the request for GET /health/server.
type ServerHealthRequest struct {
	URL string `doc:"Server address, normalized before lookup" example:"http://localhost:4096" query:"url" required:"true"`
}

// ServerHealthResponse is the response for GET /health/server.
type ServerHealthResponse struct {
	Body ServerHealth
}

// ToAPIType can be used to convert a wrapped domain type to an API-safe type.
func (d DomainServerHealth) ToAPIType() (ServerHealth, error) {
	status, err := parseHealthStatus(d.Status)
	if err != nil {
		return ServerHealth{}, err
	}

	var latency *string
	if d.Latency != nil {
		s := d.Latency.String()
		latency = &s
	}
	return ServerHealth{
		URL:            d.URL,
		Status:         status,
		Latency:        latency,
		LastChecked:    d.LastChecked,
		LastSuccessful: d.LastSuccessful,
	}, nil
}

// RegisterHealthRoutes sets up health-related API endpoint routes.
func RegisterHealthRoutes(routerAPI huma.API, monitor contracts.HealthMonitor, apiPathPrefix string) {
	healthAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Health"}

	huma.Register(
		healthAPI,
		huma.Operation{
			OperationID: "listServersHealth",
			Method:      http.MethodGet,
			Path:        "/servers",
			Summary:     "List the health statuses for all known servers",
			Tags:        tags,
		},
		func(_ context.Context, _ *struct{}) (*ServersHealthResponse, error) {
			return handleHealthServers(monitor)
		},
	)

	huma.Register(
		healthAPI,
		huma.Operation{
			OperationID: "getServerHealth",
			Method:      http.MethodGet,
			Path:        "/server",
			Summary:     "Get the health status of a single known server",
			Tags:        tags,
		},
		func(_ context.Context, input *ServerHealthRequest) (*ServerHealthResponse, error) {
			return handleHealthServer(monitor, input.URL)
		},
	)
}

// handleHealthServers is the handler for retrieving the current health for all tracked servers.
func handleHealthServers(monitor contracts.HealthMonitor) (*ServersHealthResponse, error) {
	servers := monitor.List()

	slices.SortFunc(servers, func(a, b domain.ServerHealth) int {
		return strings.Compare(a.URL, b.URL)
	})

	apiServers := make([]ServerHealth, 0, len(servers))
	for _, s := range servers {
		data, err := DomainServerHealth(s).ToAPIType()
		if err != nil {
			return nil, err
		}
		apiServers = append(apiServers, data)
	}

	resp := &ServersHealthResponse{}
	resp.Body.Servers = apiServers

	return resp, nil
}

// handleHealthServer is the handler for retrieving the current health of one tracked server.
func handleHealthServer(monitor contracts.HealthMonitor, input string) (*ServerHealthResponse, error) {
	u, err := serverurl.Normalize(input)
	if err != nil {
		return nil, err
	}

	h, err := monitor.Status(u.String())
	if err != nil {
		return nil, err
	}

	data, err := DomainServerHealth(h).ToAPIType()
	if err != nil {
		return nil, err
	}

	return &ServerHealthResponse{Body: data}, nil
}

func parseHealthStatus(status domain.HealthStatus) (HealthStatus, error) {
	switch status {
	case domain.HealthStatusOK:
		return HealthStatusOK, nil
	case domain.HealthStatusUnhealthy:
		return HealthStatusUnhealthy, nil
	case domain.HealthStatusTimeout:
		return HealthStatusTimeout, nil
	case domain.HealthStatusUnreachable:
		return HealthStatusUnreachable, nil
	case domain.HealthStatusUnknown:
		return HealthStatusUnknown, nil
	default:
		return "", fmt.Errorf("unknown health status: %s", status)
	}
}

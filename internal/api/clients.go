package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/opencode-portal/portal/internal/health"
	"github.com/opencode-portal/portal/internal/opencode"
)

// ClientCache hands out OpenCode clients keyed by port.
type ClientCache interface {
	// GetWithKey returns the client for port and the key it is cached under.
	GetWithKey(port int) (*opencode.Client, string, error)
	Clear(port int) error
	ClearAll()
}

// ClientRequest identifies the client for an OpenCode port.
type ClientRequest struct {
	Port  int  `doc:"OpenCode server port" example:"4096" maximum:"65535" minimum:"1" path:"port"`
	Probe bool `doc:"Probe the server health using the client" query:"probe"`
}

// ClientPortRequest identifies the client for an OpenCode port.
type ClientPortRequest struct {
	Port int `doc:"OpenCode server port" example:"4096" maximum:"65535" minimum:"1" path:"port"`
}

// Client describes a cached OpenCode client.
type Client struct {
	Key     string  `doc:"Cache key, hostname and port" json:"key"`
	BaseURL string  `doc:"Server URL the client is bound to" json:"baseUrl"`
	Health  *Health `doc:"Probe outcome, only present when requested" json:"health,omitempty"`
}

// Health is the outcome of probing a server through its client.
type Health struct {
	Status  HealthStatus `json:"status"`
	Version string       `json:"version,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// ClientResponse is the response for GET /clients/{port}.
type ClientResponse struct {
	Body Client
}

// RegisterClientRoutes sets up client cache API endpoint routes.
func RegisterClientRoutes(routerAPI huma.API, clients ClientCache, apiPathPrefix string) {
	tags := []string{"Clients"}

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "getClient",
			Method:      http.MethodGet,
			Path:        apiPathPrefix + "/{port}",
			Summary:     "Get the client for a port",
			Description: "Resolves the hostname for the port, creating and caching the client on first use.",
			Tags:        tags,
		},
		func(ctx context.Context, input *ClientRequest) (*ClientResponse, error) {
			return handleClientGet(ctx, clients, input.Port, input.Probe)
		},
	)

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID:   "clearClient",
			Method:        http.MethodDelete,
			Path:          apiPathPrefix + "/{port}",
			Summary:       "Remove the cached client for a port",
			Tags:          tags,
			DefaultStatus: http.StatusNoContent,
		},
		func(_ context.Context, input *ClientPortRequest) (*struct{}, error) {
			if err := clients.Clear(input.Port); err != nil {
				return nil, err
			}
			return nil, nil
		},
	)

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID:   "clearClients",
			Method:        http.MethodDelete,
			Path:          apiPathPrefix,
			Summary:       "Remove every cached client",
			Tags:          tags,
			DefaultStatus: http.StatusNoContent,
		},
		func(_ context.Context, _ *struct{}) (*struct{}, error) {
			clients.ClearAll()
			return nil, nil
		},
	)
}

// handleClientGet is the handler for retrieving, and optionally probing, the client for a port.
func handleClientGet(ctx context.Context, clients ClientCache, port int, probe bool) (*ClientResponse, error) {
	cl, key, err := clients.GetWithKey(port)
	if err != nil {
		return nil, err
	}

	resp := &ClientResponse{}
	resp.Body = Client{
		Key:     key,
		BaseURL: cl.BaseURL().String(),
	}

	if probe {
		result, err := cl.Health(ctx)
		status, _ := parseHealthStatus(health.Classify(result, err))
		h := &Health{Status: status}
		if err == nil {
			h.Version = result.Version
			h.Latency = result.Latency.String()
		}
		resp.Body.Health = h
	}

	return resp, nil
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/opencode-portal/portal/internal/connect"
	"github.com/opencode-portal/portal/internal/serverurl"
)

// Connector runs connection attempts and reports their progress.
type Connector interface {
	Connect(ctx context.Context, input string) (serverurl.URL, error)
	Status() connect.Status
}

// ConnectRequest is the request body for POST /connect.
type ConnectRequest struct {
	Body struct {
		URL string `doc:"Server address, the scheme defaults to http" example:"localhost:4096" json:"url"`
	}
}

// ConnectResult describes a successful connection attempt.
type ConnectResult struct {
	URL   string `doc:"Normalized server URL" json:"url"`
	State string `doc:"State of the connection flow" json:"state"`
}

// ConnectResponse is the response for POST /connect.
type ConnectResponse struct {
	Body ConnectResult
}

// ConnectStatus describes the connection flow.
type ConnectStatus struct {
	State   string `doc:"Current state of the connection flow" enum:"idle,validating,probing,persisting,connected" json:"state"`
	Busy    bool   `doc:"Whether an attempt is in flight" json:"busy"`
	Message string `doc:"Message from the most recent failed attempt" json:"message,omitempty"`
	URL     string `doc:"Server of the current or most recent attempt" json:"url,omitempty"`
}

// ConnectStatusResponse is the response for GET /connect/status.
type ConnectStatusResponse struct {
	Body ConnectStatus
}

// RegisterConnectRoutes sets up connection flow API endpoint routes.
func RegisterConnectRoutes(routerAPI huma.API, connector Connector, apiPathPrefix string) {
	tags := []string{"Connect"}

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID:   "connectServer",
			Method:        http.MethodPost,
			Path:          apiPathPrefix,
			Summary:       "Connect to a server",
			Description:   "Validates the address, probes the server health and makes it the active server.",
			Tags:          tags,
			DefaultStatus: http.StatusOK,
		},
		func(ctx context.Context, input *ConnectRequest) (*ConnectResponse, error) {
			return handleConnect(ctx, connector, input.Body.URL)
		},
	)

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "getConnectStatus",
			Method:      http.MethodGet,
			Path:        apiPathPrefix + "/status",
			Summary:     "Get the connection flow status",
			Tags:        tags,
		},
		func(_ context.Context, _ *struct{}) (*ConnectStatusResponse, error) {
			return handleConnectStatus(connector), nil
		},
	)
}

// handleConnect is the handler for running a connection attempt.
func handleConnect(ctx context.Context, connector Connector, input string) (*ConnectResponse, error) {
	u, err := connector.Connect(ctx, input)
	if err != nil {
		return nil, err
	}

	resp := &ConnectResponse{}
	resp.Body = ConnectResult{
		URL:   u.String(),
		State: string(connector.Status().State),
	}

	return resp, nil
}

// handleConnectStatus is the handler for reporting the connection flow status.
func handleConnectStatus(connector Connector) *ConnectStatusResponse {
	status := connector.Status()

	resp := &ConnectStatusResponse{}
	resp.Body = ConnectStatus{
		State:   string(status.State),
		Busy:    status.Busy,
		Message: status.Message,
		URL:     status.URL.String(),
	}

	return resp
}

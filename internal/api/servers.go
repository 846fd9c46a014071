package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/opencode-portal/portal/internal/contracts"
	"github.com/opencode-portal/portal/internal/domain"
	"github.com/opencode-portal/portal/internal/serverurl"
)

// DomainServerRecord is a wrapper that allows receivers to be declared in the API package that deal with domain types.
type DomainServerRecord domain.ServerRecord

// Server is a known OpenCode server.
type Server struct {
	ID      string    `doc:"Record identifier" json:"id"`
	URL     string    `doc:"Normalized server URL" json:"url"`
	Active  bool      `doc:"Whether this is the active server" json:"active"`
	AddedAt time.Time `doc:"When the server was first added" json:"addedAt"`
}

// ServerListResponse is the response for GET /servers.
type ServerListResponse struct {
	Body []Server
}

// ServerRemoveRequest is the request body for DELETE /servers.
type ServerRemoveRequest struct {
	Body struct {
		URL string `doc:"Server address to remove" example:"http://localhost:4096" json:"url"`
	}
}

// ToAPIType can be used to convert a wrapped domain type to an API-safe type.
func (d DomainServerRecord) ToAPIType() Server {
	return Server{
		ID:      d.ID,
		URL:     d.URL,
		Active:  d.Active,
		AddedAt: d.AddedAt,
	}
}

// RegisterServerRoutes sets up server registry API endpoint routes.
// Removing a server also stops tracking its health in monitor.
func RegisterServerRoutes(
	routerAPI huma.API,
	servers contracts.ServerLister,
	monitor contracts.HealthMonitor,
	apiPathPrefix string,
) {
	tags := []string{"Servers"}

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "listServers",
			Method:      http.MethodGet,
			Path:        apiPathPrefix,
			Summary:     "List known servers",
			Tags:        tags,
		},
		func(_ context.Context, _ *struct{}) (*ServerListResponse, error) {
			return handleServerList(servers), nil
		},
	)

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID:   "removeServer",
			Method:        http.MethodDelete,
			Path:          apiPathPrefix,
			Summary:       "Remove a known server",
			Tags:          tags,
			DefaultStatus: http.StatusNoContent,
		},
		func(_ context.Context, input *ServerRemoveRequest) (*struct{}, error) {
			if err := handleServerRemove(servers, monitor, input.Body.URL); err != nil {
				return nil, err
			}
			return nil, nil
		},
	)
}

// handleServerList is the handler for listing the known servers.
func handleServerList(servers contracts.ServerLister) *ServerListResponse {
	records := servers.List()

	resp := &ServerListResponse{Body: make([]Server, 0, len(records))}
	for _, r := range records {
		resp.Body = append(resp.Body, DomainServerRecord(r).ToAPIType())
	}

	return resp
}

// handleServerRemove is the handler for removing a known server.
// The address is normalized first so any spelling of a known server matches its record.
func handleServerRemove(servers contracts.ServerLister, monitor contracts.HealthMonitor, input string) error {
	u, err := serverurl.Normalize(input)
	if err != nil {
		return err
	}

	if err := servers.Remove(u.String()); err != nil {
		return err
	}
	monitor.Untrack(u.String())

	return nil
}

package daemon

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"

	"github.com/opencode-portal/portal/internal/api"
	"github.com/opencode-portal/portal/internal/connect"
)

// Dependencies contains required dependencies for the Daemon.
// NewDependencies should be used to create instances of Dependencies.
type Dependencies struct {
	// APIAddr specifies the network address for the APIServer to bind (e.g., "localhost:8095").
	APIAddr string

	// Logger for daemon and subcomponent (API server) operations.
	Logger hclog.Logger

	// Services are exposed through the API, their server lister and health monitor also drive health checks.
	Services api.Services

	// Prober checks the health of known servers.
	Prober connect.Prober
}

// NewDependencies creates and validates Dependencies.
func NewDependencies(
	logger hclog.Logger,
	apiAddr string,
	services api.Services,
	prober connect.Prober,
) (Dependencies, error) {
	deps := Dependencies{
		APIAddr:  apiAddr,
		Logger:   logger,
		Services: services,
		Prober:   prober,
	}

	if err := deps.Validate(); err != nil {
		return Dependencies{}, err
	}

	return deps, nil
}

// Validate ensures all required dependencies are provided and valid.
func (d Dependencies) Validate() error {
	if d.Logger == nil || reflect.ValueOf(d.Logger).IsNil() {
		return fmt.Errorf("logger cannot be nil")
	}
	if err := IsValidAddr(d.APIAddr); err != nil {
		return fmt.Errorf("invalid API address '%s': %w", d.APIAddr, err)
	}
	if err := d.Services.Validate(); err != nil {
		return err
	}
	if d.Prober == nil || reflect.ValueOf(d.Prober).IsNil() {
		return fmt.Errorf("prober cannot be nil")
	}
	return nil
}

// Package registry keeps the list of known OpenCode servers and which one is active.
package registry

import (
	stdErrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/opencode-portal/portal/internal/domain"
	"github.com/opencode-portal/portal/internal/errors"
	"github.com/opencode-portal/portal/internal/perms"
)

// Registry holds the known servers and the active server pointer.
// It is safe for concurrent use by multiple goroutines.
// Use New for an in-memory registry, or Load for one persisted to a TOML file.
type Registry struct {
	mu      sync.RWMutex
	path    string
	servers []entry
	active  string
}

// file is the on-disk representation of the registry.
type file struct {
	Active  string  `toml:"active,omitempty"`
	Servers []entry `toml:"servers"`
}

type entry struct {
	ID      string    `toml:"id"`
	URL     string    `toml:"url"`
	AddedAt time.Time `toml:"added_at"`
}

// New returns an empty registry that is never written to disk.
func New() *Registry {
	return &Registry{}
}

// Load reads the registry stored at path.
// A missing file yields an empty registry which will be created at path on the first change.
func Load(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("registry path cannot be empty")
	}

	r := &Registry{path: path}

	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if stdErrors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("registry file '%s' could not be parsed: %w", path, err)
	}

	seen := make(map[string]struct{}, len(f.Servers))
	for _, e := range f.Servers {
		if strings.TrimSpace(e.URL) == "" {
			return nil, fmt.Errorf("registry file '%s' contains a server with an empty url", path)
		}
		if _, ok := seen[e.URL]; ok {
			return nil, fmt.Errorf("registry file '%s' contains duplicate server '%s'", path, e.URL)
		}
		seen[e.URL] = struct{}{}
	}

	if _, ok := seen[f.Active]; f.Active != "" && !ok {
		return nil, fmt.Errorf("registry file '%s' has unknown active server '%s'", path, f.Active)
	}

	r.servers = f.Servers
	r.active = f.Active

	return r, nil
}

// Add records the server URL. Adding a URL that is already known does nothing.
func (r *Registry) Add(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("%w: server url cannot be empty", errors.ErrBadRequest)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(url) != -1 {
		return nil
	}

	prev := r.servers
	r.servers = append(slices.Clone(r.servers), entry{
		ID:      uuid.NewString(),
		URL:     url,
		AddedAt: time.Now().UTC(),
	})

	if err := r.save(); err != nil {
		r.servers = prev
		return err
	}

	return nil
}

// SetActive marks a known server as the active server.
func (r *Registry) SetActive(url string) error {
	url = strings.TrimSpace(url)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(url) == -1 {
		return fmt.Errorf("%w: %s", errors.ErrServerNotFound, url)
	}
	if r.active == url {
		return nil
	}

	prev := r.active
	r.active = url

	if err := r.save(); err != nil {
		r.active = prev
		return err
	}

	return nil
}

// Remove deletes the server, clearing the active pointer when it referred to it.
func (r *Registry) Remove(url string) error {
	url = strings.TrimSpace(url)

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(url)
	if idx == -1 {
		return fmt.Errorf("%w: %s", errors.ErrServerNotFound, url)
	}

	prevServers, prevActive := r.servers, r.active
	r.servers = slices.Delete(slices.Clone(r.servers), idx, idx+1)
	if r.active == url {
		r.active = ""
	}

	if err := r.save(); err != nil {
		r.servers, r.active = prevServers, prevActive
		return err
	}

	return nil
}

// List returns a copy of all known server records in the order they were added.
func (r *Registry) List() []domain.ServerRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]domain.ServerRecord, 0, len(r.servers))
	for _, e := range r.servers {
		records = append(records, r.record(e))
	}

	return records
}

// Active returns the active server record, if there is one.
func (r *Registry) Active() (domain.ServerRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(r.active)
	if r.active == "" || idx == -1 {
		return domain.ServerRecord{}, false
	}

	return r.record(r.servers[idx]), true
}

func (r *Registry) record(e entry) domain.ServerRecord {
	return domain.ServerRecord{
		ID:      e.ID,
		URL:     e.URL,
		Active:  e.URL == r.active,
		AddedAt: e.AddedAt,
	}
}

func (r *Registry) indexOf(url string) int {
	return slices.IndexFunc(r.servers, func(e entry) bool {
		return e.URL == url
	})
}

// save writes the registry to disk, callers must hold the write lock.
func (r *Registry) save() error {
	if r.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(r.path), perms.RegularDir); err != nil {
		return fmt.Errorf("could not ensure directory exists for '%s': %w", r.path, err)
	}

	data, err := toml.Marshal(file{Active: r.active, Servers: r.servers})
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}

	if err := os.WriteFile(r.path, data, perms.RegularFile); err != nil {
		return fmt.Errorf("failed to save registry '%s': %w", r.path, err)
	}

	return nil
}

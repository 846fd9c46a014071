// Package settings persists per-user OpenCode settings, such as the default server URL.
package settings

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/opencode-portal/portal/internal/perms"
)

const (
	// FileName is the name of the settings document shared with the OpenCode desktop app.
	FileName = "opencode.settings.dat"

	// KeyDefaultServerURL is the settings key holding the default server URL.
	KeyDefaultServerURL = "defaultServerUrl"
)

// Store reads and writes a JSON settings document.
// Keys it does not know about are preserved when writing.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore returns a Store for the settings document at path.
// The file is not created until a value is written.
func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("settings path cannot be empty")
	}

	return &Store{path: path}, nil
}

// Path returns the location of the settings document.
func (s *Store) Path() string {
	return s.path
}

// DefaultServerURL returns the stored default server URL.
// The boolean is false when no default has been stored.
func (s *Store) DefaultServerURL() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return "", false, err
	}

	raw, ok := doc[KeyDefaultServerURL]
	if !ok {
		return "", false, nil
	}

	var url string
	if err := json.Unmarshal(raw, &url); err != nil {
		return "", false, fmt.Errorf("settings key '%s' is not a string: %w", KeyDefaultServerURL, err)
	}

	return url, url != "", nil
}

// SetDefaultServerURL stores url as the default server URL.
func (s *Store) SetDefaultServerURL(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(url)
	if err != nil {
		return err
	}
	doc[KeyDefaultServerURL] = raw

	return s.write(doc)
}

// read loads the settings document, a missing file is an empty document.
func (s *Store) read() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if stdErrors.Is(err, os.ErrNotExist) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("failed to read settings '%s': %w", s.path, err)
	}

	doc := map[string]json.RawMessage{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("settings '%s' could not be parsed: %w", s.path, err)
	}

	return doc, nil
}

// write replaces the settings document atomically.
// A missing parent directory is created owner-only, an existing one is left as is.
func (s *Store) write(doc map[string]json.RawMessage) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, perms.SecureDir); err != nil {
		return fmt.Errorf("could not ensure directory exists for '%s': %w", s.path, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-*.settings")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = os.Remove(tmpPath) // Clean up on any error.
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmpFile.Chmod(perms.SecureFile); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to set settings permissions: %w", err)
	}
	_ = tmpFile.Close()

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to rename settings file: %w", err)
	}

	return nil
}

// File: endemism/pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrNotFound is returned when a registry file does not exist.
var ErrNotFound = errors.New("registry not found")

// Read reads and parses the registry at path.
func Read[M ~map[string]V, V any](path string) (M, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, err
	}
	var m M
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("could not parse registry %s: %w", path, err)
	}
	// "null" is valid JSON but not a usable registry.
	if m == nil {
		m = make(M)
	}
	return m, nil
}

// ReadOrInit is Read, except a missing file yields an empty registry.
func ReadOrInit[M ~map[string]V, V any](path string) (M, error) {
	m, err := Read[M](path)
	if errors.Is(err, ErrNotFound) {
		return make(M), nil
	}
	return m, err
}

// Write saves the registry to path, creating parent directories as needed.
func Write[M ~map[string]V, V any](path string, m M) error {
	if m == nil {
		m = make(M)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Names returns the registry keys in sorted order.
func Names[M ~map[string]V, V any](m M) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

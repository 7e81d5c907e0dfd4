// File: pkg/types/types.go
package types

// RegistryEntry is one package in the global registry.
type RegistryEntry struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

// GlobalRegistry maps a package name to where its source lives.
type GlobalRegistry map[string]RegistryEntry

// ProjectRegistry maps an installed package name to its installed version.
type ProjectRegistry map[string]string

// PackageDetail is the part of package.json we care about.
type PackageDetail struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Listing is a single row printed by the list command.
type Listing struct {
	Name     string
	Version  string
	Path     string
	// Orphaned is set for project entries whose node_modules directory is gone.
	Orphaned bool
}

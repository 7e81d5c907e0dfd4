// File: endemism/pkg/manager/manager.go
package manager

import (
	"errors"
	"fmt"
	"path/filepath"

	"endemism/pkg/config"
	"endemism/pkg/project"
	"endemism/pkg/registry"
	"endemism/pkg/types"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrRegistryNotFound is returned when a registry file has not been created yet.
	ErrRegistryNotFound = registry.ErrNotFound
	// ErrNotRegistered is returned for names missing from the global registry.
	ErrNotRegistered = errors.New("package is not registered")
	// ErrAlreadyInstalled is returned when node_modules already holds the package.
	ErrAlreadyInstalled = errors.New("package is already installed")
	// ErrNotInstalled is returned for names missing from the project registry.
	ErrNotInstalled = errors.New("package is not installed")
	// ErrMismatch is returned when the project registry and node_modules disagree.
	ErrMismatch = errors.New("project registry and node_modules disagree")
	// ErrConstraintUnsatisfied is returned when the registered version does not match a requested range.
	ErrConstraintUnsatisfied = errors.New("registered version does not satisfy constraint")
)

// Outcome describes what an operation did to a single package.
type Outcome int

const (
	Registered Outcome = iota
	AlreadyRegistered
	Deregistered
	Installed
	Uninstalled
	Updated
	Downgraded
	Reinstalled
	UpToDate
)

func (o Outcome) String() string {
	switch o {
	case Registered:
		return "registered"
	case AlreadyRegistered:
		return "already registered"
	case Deregistered:
		return "deregistered"
	case Installed:
		return "installed"
	case Uninstalled:
		return "uninstalled"
	case Updated:
		return "updated"
	case Downgraded:
		return "downgraded"
	case Reinstalled:
		return "reinstalled"
	case UpToDate:
		return "up to date"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result reports the outcome for one package.
type Result struct {
	Name     string
	Version  string
	Previous string
	Outcome  Outcome
}

// Scope selects which registry List reads.
type Scope int

const (
	ScopeGlobal Scope = iota
	ScopeProject
)

// Manager runs registry operations for one project against one global registry.
type Manager struct {
	settings config.Settings
	log      log.FieldLogger
}

// New creates a Manager. A nil logger falls back to the logrus standard logger.
func New(settings config.Settings, logger log.FieldLogger) *Manager {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Manager{settings: settings, log: logger}
}

// Settings returns the configuration the manager was built with.
func (m *Manager) Settings() config.Settings {
	return m.settings
}

func (m *Manager) readGlobal() (types.GlobalRegistry, error) {
	reg, err := registry.Read[types.GlobalRegistry](m.settings.GlobalRegistry)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, fmt.Errorf("global registry (register a package first): %w", err)
	}
	return reg, err
}

func (m *Manager) readProject() (types.ProjectRegistry, error) {
	reg, err := registry.Read[types.ProjectRegistry](m.settings.ProjectRegistryPath())
	if errors.Is(err, registry.ErrNotFound) {
		return nil, fmt.Errorf("project registry (nothing installed yet): %w", err)
	}
	return reg, err
}

// List returns the packages in the selected registry, sorted by name.
// Project listings flag entries whose node_modules directory is missing.
func (m *Manager) List(scope Scope) ([]types.Listing, error) {
	if scope == ScopeProject {
		reg, err := m.readProject()
		if err != nil {
			return nil, err
		}
		listings := make([]types.Listing, 0, len(reg))
		for _, name := range registry.Names(reg) {
			listings = append(listings, types.Listing{
				Name:     name,
				Version:  reg[name],
				Path:     project.PackagePath(m.settings.ModulesPath(), name),
				Orphaned: !project.IsInstalled(m.settings.ModulesPath(), name),
			})
		}
		return listings, nil
	}

	reg, err := m.readGlobal()
	if err != nil {
		return nil, err
	}
	listings := make([]types.Listing, 0, len(reg))
	for _, name := range registry.Names(reg) {
		listings = append(listings, types.Listing{Name: name, Version: reg[name].Version, Path: reg[name].Path})
	}
	return listings, nil
}

// Register adds the package in dir to the global registry. An empty dir means the current project.
func (m *Manager) Register(dir string) (Result, error) {
	if dir == "" {
		dir = m.settings.ProjectDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Result{}, err
	}
	detail, err := project.ReadDetail(abs)
	if err != nil {
		return Result{}, err
	}

	reg, err := registry.ReadOrInit[types.GlobalRegistry](m.settings.GlobalRegistry)
	if err != nil {
		return Result{}, err
	}

	res := Result{Name: detail.Name, Version: detail.Version, Outcome: Registered}
	if entry, ok := reg[detail.Name]; ok {
		if entry.Version == detail.Version {
			res.Outcome = AlreadyRegistered
			return res, nil
		}
		res.Previous = entry.Version
		res.Outcome = Updated
	}
	reg[detail.Name] = types.RegistryEntry{Path: abs, Version: detail.Version}

	m.log.WithFields(log.Fields{"package": detail.Name, "version": detail.Version, "path": abs}).Debug("writing global registry")
	if err := registry.Write(m.settings.GlobalRegistry, reg); err != nil {
		return Result{}, fmt.Errorf("failed to update global registry: %w", err)
	}
	return res, nil
}

// Deregister removes name from the global registry. An empty name means the current project.
// Copies already installed in other projects are left alone.
func (m *Manager) Deregister(name string) (Result, error) {
	if name == "" {
		detail, err := project.ReadDetail(m.settings.ProjectDir)
		if err != nil {
			return Result{}, err
		}
		name = detail.Name
	}

	reg, err := m.readGlobal()
	if err != nil {
		return Result{}, err
	}
	entry, ok := reg[name]
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", name, ErrNotRegistered)
	}
	delete(reg, name)

	m.log.WithField("package", name).Debug("writing global registry")
	if err := registry.Write(m.settings.GlobalRegistry, reg); err != nil {
		return Result{}, fmt.Errorf("failed to update global registry: %w", err)
	}
	return Result{Name: name, Version: entry.Version, Outcome: Deregistered}, nil
}

// File: endemism/pkg/manager/install.go
package manager

import (
	"errors"
	"fmt"

	"endemism/pkg/project"
	"endemism/pkg/registry"
	"endemism/pkg/types"
	"endemism/pkg/utils"

	"github.com/Masterminds/semver/v3"
	log "github.com/sirupsen/logrus"
)

// Install copies each registered package into node_modules and records it in the project registry.
// Arguments are 'name' or 'name@constraint'. Packages that succeed are kept even when others fail.
func (m *Manager) Install(args ...string) ([]Result, error) {
	if len(args) == 0 {
		return nil, errors.New("install requires at least one package name")
	}
	global, err := m.readGlobal()
	if err != nil {
		return nil, err
	}
	local, err := registry.ReadOrInit[types.ProjectRegistry](m.settings.ProjectRegistryPath())
	if err != nil {
		return nil, err
	}

	modules := m.settings.ModulesPath()
	existed, err := project.EnsureModulesDir(modules)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", modules, err)
	}
	if !existed {
		m.log.WithField("dir", modules).Debug("created modules directory")
	}

	var results []Result
	var errs []error
	for _, arg := range args {
		name, constraint := utils.ParsePackageArg(arg)
		res, err := m.installOne(global, name, constraint)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		local[name] = res.Version
		results = append(results, res)
	}

	if len(results) > 0 {
		if err := registry.Write(m.settings.ProjectRegistryPath(), local); err != nil {
			errs = append(errs, fmt.Errorf("failed to update project registry: %w", err))
		}
	}
	return results, errors.Join(errs...)
}

func (m *Manager) installOne(global types.GlobalRegistry, name, constraint string) (Result, error) {
	if err := project.ValidateName(name); err != nil {
		return Result{}, err
	}
	entry, ok := global[name]
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", name, ErrNotRegistered)
	}
	if constraint != "" {
		if err := checkConstraint(name, entry.Version, constraint); err != nil {
			return Result{}, err
		}
	}
	if err := m.checkSource(name, entry); err != nil {
		return Result{}, err
	}
	if project.IsInstalled(m.settings.ModulesPath(), name) {
		return Result{}, fmt.Errorf("%s: %w (use 'update' to refresh it)", name, ErrAlreadyInstalled)
	}

	if err := m.copyIn(name, entry); err != nil {
		return Result{}, err
	}
	return Result{Name: name, Version: entry.Version, Outcome: Installed}, nil
}

// Uninstall removes each package from node_modules and from the project registry.
func (m *Manager) Uninstall(names ...string) ([]Result, error) {
	if len(names) == 0 {
		return nil, errors.New("uninstall requires at least one package name")
	}
	local, err := m.readProject()
	if err != nil {
		return nil, err
	}

	modules := m.settings.ModulesPath()
	var results []Result
	var errs []error
	for _, name := range names {
		if err := project.ValidateName(name); err != nil {
			errs = append(errs, err)
			continue
		}
		version, ok := local[name]
		if !ok {
			if project.IsInstalled(modules, name) {
				errs = append(errs, fmt.Errorf("%s: found in %s but not in the project registry: %w", name, m.settings.ModulesDir, ErrMismatch))
			} else {
				errs = append(errs, fmt.Errorf("%s: %w", name, ErrNotInstalled))
			}
			continue
		}
		removed, err := project.Remove(modules, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("there was an error while uninstalling %s: %w", name, err))
			continue
		}
		if !removed {
			errs = append(errs, fmt.Errorf("%s: listed in the project registry but missing from %s: %w", name, m.settings.ModulesDir, ErrMismatch))
			continue
		}
		m.log.WithFields(log.Fields{"package": name, "version": version}).Debug("removed package directory")
		delete(local, name)
		results = append(results, Result{Name: name, Version: version, Outcome: Uninstalled})
	}

	if len(results) > 0 {
		if err := registry.Write(m.settings.ProjectRegistryPath(), local); err != nil {
			errs = append(errs, fmt.Errorf("failed to update project registry: %w", err))
		}
	}
	return results, errors.Join(errs...)
}

// Update replaces installed copies with the version currently in the global registry.
// With no names every package in the project registry is checked. force recopies
// packages whose version has not changed.
func (m *Manager) Update(force bool, names ...string) ([]Result, error) {
	local, err := m.readProject()
	if err != nil {
		return nil, err
	}
	global, err := m.readGlobal()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = registry.Names(local)
	}

	var results []Result
	var errs []error
	changed := false
	for _, name := range names {
		res, err := m.updateOne(global, local, name, force)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if res.Outcome != UpToDate {
			local[name] = res.Version
			changed = true
		}
		results = append(results, res)
	}

	if changed {
		if err := registry.Write(m.settings.ProjectRegistryPath(), local); err != nil {
			errs = append(errs, fmt.Errorf("failed to update project registry: %w", err))
		}
	}
	return results, errors.Join(errs...)
}

func (m *Manager) updateOne(global types.GlobalRegistry, local types.ProjectRegistry, name string, force bool) (Result, error) {
	if err := project.ValidateName(name); err != nil {
		return Result{}, err
	}
	installed, ok := local[name]
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", name, ErrNotInstalled)
	}
	entry, ok := global[name]
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", name, ErrNotRegistered)
	}
	modules := m.settings.ModulesPath()
	if !project.IsInstalled(modules, name) {
		return Result{}, fmt.Errorf("%s: listed in the project registry but missing from %s: %w", name, m.settings.ModulesDir, ErrMismatch)
	}
	if err := m.checkSource(name, entry); err != nil {
		return Result{}, err
	}

	res := Result{Name: name, Version: entry.Version, Previous: installed}
	switch {
	case installed == entry.Version && !force:
		res.Outcome = UpToDate
		return res, nil
	case installed == entry.Version:
		res.Outcome = Reinstalled
	case isDowngrade(installed, entry.Version):
		res.Outcome = Downgraded
		m.log.WithFields(log.Fields{"package": name, "installed": installed, "registered": entry.Version}).Warn("registered version is older than the installed one")
	default:
		res.Outcome = Updated
	}

	m.log.WithFields(log.Fields{"package": name, "version": entry.Version, "from": entry.Path}).Debug("replacing package")
	if err := project.ReplacePackage(entry.Path, modules, name, m.settings.Ignore); err != nil {
		return Result{}, fmt.Errorf("failed to update %s, the installed copy is kept: %w", name, err)
	}
	return res, nil
}

// copyIn copies a registered package into node_modules, cleaning up after a failed copy.
func (m *Manager) copyIn(name string, entry types.RegistryEntry) error {
	dst, err := project.PackageDir(m.settings.ModulesPath(), name)
	if err != nil {
		return err
	}
	m.log.WithFields(log.Fields{"package": name, "version": entry.Version, "from": entry.Path, "to": dst}).Debug("copying package")
	if err := project.CopyPackage(entry.Path, dst, m.settings.Ignore); err != nil {
		if _, rmErr := project.Remove(m.settings.ModulesPath(), name); rmErr != nil {
			m.log.WithError(rmErr).WithField("package", name).Warn("failed to clean up partial copy")
		}
		return fmt.Errorf("failed to copy %s into %s: %w", name, m.settings.ModulesDir, err)
	}
	return nil
}

func checkConstraint(name, version, constraint string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("%s: invalid version constraint %q: %w", name, constraint, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("registered version %s for %s is not a valid semver", version, name)
	}
	if !c.Check(v) {
		return fmt.Errorf("%s@%s does not satisfy %q: %w", name, version, constraint, ErrConstraintUnsatisfied)
	}
	return nil
}

func isDowngrade(installed, registered string) bool {
	iv, err := semver.NewVersion(installed)
	if err != nil {
		return false
	}
	rv, err := semver.NewVersion(registered)
	if err != nil {
		return false
	}
	return rv.LessThan(iv)
}

// checkSource rejects sources that contain the project, since the copy would
// land inside the tree being copied.
func (m *Manager) checkSource(name string, entry types.RegistryEntry) error {
	if project.Contains(entry.Path, m.settings.ProjectDir) {
		return fmt.Errorf("%s: cannot install %s into %s, which is inside it", name, entry.Path, m.settings.ProjectDir)
	}
	return nil
}

// File: endemism/pkg/project/project.go
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"endemism/pkg/config"
	"endemism/pkg/types"

	"github.com/Masterminds/semver/v3"
)

var (
	// ErrNoPackageFile is returned when a directory has no package.json.
	ErrNoPackageFile = errors.New("no package.json found")
	// ErrInvalidName is returned for names that are not 'name' or '@scope/name'.
	ErrInvalidName = errors.New("invalid package name")
)

// ValidateName checks that name is a plain or scoped package name that
// resolves to a directory inside node_modules.
func ValidateName(name string) error {
	invalid := func(reason string) error {
		return fmt.Errorf("%q %s: %w", name, reason, ErrInvalidName)
	}
	if name == "" {
		return invalid("is empty")
	}
	if strings.ContainsAny(name, "\\\x00") || filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return invalid("is not a relative name")
	}
	parts := strings.Split(name, "/")
	switch {
	case strings.HasPrefix(name, "@"):
		if len(parts) != 2 || len(parts[0]) < 2 {
			return invalid("must look like @scope/name")
		}
	case len(parts) != 1:
		return invalid("may only contain '/' after a @scope")
	}
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return invalid("has an empty or relative path segment")
		}
	}
	return nil
}

// ReadDetail reads the name and version from dir/package.json.
func ReadDetail(dir string) (*types.PackageDetail, error) {
	path := filepath.Join(dir, config.PackageFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", dir, ErrNoPackageFile)
		}
		return nil, err
	}
	var detail types.PackageDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}
	if strings.TrimSpace(detail.Name) == "" {
		return nil, fmt.Errorf("%s has no name field", path)
	}
	if err := ValidateName(detail.Name); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if strings.TrimSpace(detail.Version) == "" {
		return nil, fmt.Errorf("%s has no version field", path)
	}
	if _, err := semver.NewVersion(detail.Version); err != nil {
		return nil, fmt.Errorf("version %q in %s is not a valid semver: %w", detail.Version, path, err)
	}
	return &detail, nil
}

// PackagePath returns where name lives under modulesDir. Scoped names stay nested.
func PackagePath(modulesDir, name string) string {
	return filepath.Join(modulesDir, filepath.FromSlash(name))
}

// PackageDir validates name and returns its directory, which is always inside modulesDir.
func PackageDir(modulesDir, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	path := PackagePath(modulesDir, name)
	if !within(filepath.Clean(modulesDir), path) || filepath.Clean(modulesDir) == path {
		return "", fmt.Errorf("%q escapes %s: %w", name, modulesDir, ErrInvalidName)
	}
	return path, nil
}

// Contains reports whether path is parent itself or lies beneath it.
// Both are compared after resolving symlinks where possible.
func Contains(parent, path string) bool {
	return within(resolve(parent), resolve(path))
}

func within(parent, path string) bool {
	rel, err := filepath.Rel(parent, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel))
}

// resolve makes p absolute and follows symlinks in its longest existing prefix.
func resolve(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	var rest []string
	cur := abs
	for {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}

// EnsureModulesDir creates modulesDir when missing and reports whether it already existed.
func EnsureModulesDir(modulesDir string) (bool, error) {
	info, err := os.Stat(modulesDir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", modulesDir)
		}
		return true, nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}
	return false, os.MkdirAll(modulesDir, 0755)
}

// IsInstalled reports whether name has a directory under modulesDir.
// Invalid names are never installed.
func IsInstalled(modulesDir, name string) bool {
	path, err := PackageDir(modulesDir, name)
	if err != nil {
		return false
	}
	_, err = os.Lstat(path)
	return err == nil
}

// Remove deletes the installed copy of name. It returns false when there was nothing to remove.
func Remove(modulesDir, name string) (bool, error) {
	path, err := PackageDir(modulesDir, name)
	if err != nil {
		return false, err
	}
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.RemoveAll(path); err != nil {
		return false, fmt.Errorf("failed to remove %s: %w", path, err)
	}
	if scope := filepath.Dir(path); scope != filepath.Clean(modulesDir) && strings.HasPrefix(filepath.Base(scope), "@") {
		// Only succeeds when the scope is empty.
		_ = os.Remove(scope)
	}
	return true, nil
}

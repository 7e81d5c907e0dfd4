// File: endemism/pkg/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// GlobalRegistryName is the file name of the global registry inside the home directory.
	GlobalRegistryName = ".endemism_registry"
	// ProjectRegistryName is the file name of the registry kept in each project.
	ProjectRegistryName = ".endemism.json"
	// PackageFile is the node manifest read on register.
	PackageFile = "package.json"
	// ModulesDir is the directory where packages are installed.
	ModulesDir = "node_modules"

	// ConfigEnv points at an alternative settings file.
	ConfigEnv = "ENDEMISM_CONFIG"
	// RegistryEnv overrides the global registry path.
	RegistryEnv = "ENDEMISM_REGISTRY"
)

// DefaultIgnore lists the top-level entries never copied into node_modules.
var DefaultIgnore = []string{".git", ".gitignore"}

// FileConfig matches the structure of the optional config.yaml.
type FileConfig struct {
	Registry        string   `yaml:"registry"`
	ModulesDir      string   `yaml:"modules_dir"`
	ProjectRegistry string   `yaml:"project_registry"`
	Ignore          []string `yaml:"ignore"`
	LogLevel        string   `yaml:"log_level"`
}

// Settings is the resolved configuration a manager runs with.
type Settings struct {
	GlobalRegistry      string
	ProjectDir          string
	ModulesDir          string
	ProjectRegistryName string
	Ignore              []string
	LogLevel            string
}

// ProjectRegistryPath returns the project registry file for the configured project.
func (s Settings) ProjectRegistryPath() string {
	return filepath.Join(s.ProjectDir, s.ProjectRegistryName)
}

// ModulesPath returns the project's dependency folder.
func (s Settings) ModulesPath() string {
	return filepath.Join(s.ProjectDir, s.ModulesDir)
}

// ConfigPath returns where the settings file is looked up.
// An empty string means no location could be determined.
func ConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(ConfigEnv)); p != "" {
		return ExpandHome(p)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "endemism", "config.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "endemism", "config.yaml")
	}
	return ""
}

// ReadFileConfig parses the settings file at path. A missing file yields a zero config.
func ReadFileConfig(path string) (FileConfig, error) {
	var cfg FileConfig
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse %s: %w", path, err)
	}
	return cfg, nil
}

// Load resolves settings from defaults, the settings file and the environment.
// projectDir is the project the command operates on; empty means the working directory.
func Load(projectDir string) (Settings, error) {
	fc, err := ReadFileConfig(ConfigPath())
	if err != nil {
		return Settings{}, err
	}
	return Resolve(fc, projectDir)
}

// Resolve merges a parsed settings file with defaults and the environment.
func Resolve(fc FileConfig, projectDir string) (Settings, error) {
	s := Settings{
		ModulesDir:          ModulesDir,
		ProjectRegistryName: ProjectRegistryName,
		LogLevel:            fc.LogLevel,
	}

	switch {
	case strings.TrimSpace(os.Getenv(RegistryEnv)) != "":
		s.GlobalRegistry = ExpandHome(strings.TrimSpace(os.Getenv(RegistryEnv)))
	case fc.Registry != "":
		s.GlobalRegistry = ExpandHome(fc.Registry)
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return s, fmt.Errorf("could not locate home directory: %w", err)
		}
		s.GlobalRegistry = filepath.Join(home, GlobalRegistryName)
	}

	if fc.ModulesDir != "" {
		s.ModulesDir = fc.ModulesDir
	}
	if fc.ProjectRegistry != "" {
		s.ProjectRegistryName = fc.ProjectRegistry
	}
	s.Ignore = append(append([]string{}, DefaultIgnore...), fc.Ignore...)

	if projectDir == "" {
		projectDir = "."
	}
	abs, err := filepath.Abs(ExpandHome(projectDir))
	if err != nil {
		return s, fmt.Errorf("could not resolve project directory: %w", err)
	}
	s.ProjectDir = abs
	return s, s.Validate()
}

// Validate rejects settings where the project registry and the global registry are one file.
func (s Settings) Validate() error {
	if global, err := filepath.Abs(s.GlobalRegistry); err == nil && global == s.ProjectRegistryPath() {
		return fmt.Errorf("project registry %s is the global registry, set project_registry to another name", s.ProjectRegistryPath())
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

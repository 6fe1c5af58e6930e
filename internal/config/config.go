// Package config loads the global harbormaster configuration from the XDG
// config directory, applying defaults for anything not set.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"harbormaster/internal/constants"
	"harbormaster/internal/xdg"

	"github.com/pelletier/go-toml/v2"
)

// GlobalConfig represents the global harbormaster configuration
type GlobalConfig struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Tools   ToolsConfig   `toml:"tools"`
	Log     LogConfig     `toml:"log"`
}

type ServerConfig struct {
	Host string `toml:"host"` // Bind address (default localhost)
	Port int    `toml:"port"` // Server port (default 8080)
}

type StorageConfig struct {
	ProjectsDir  string `toml:"projects_dir"`  // Root directory for project checkouts
	RegistryPath string `toml:"registry_path"` // Path of the registry JSON file
}

type ToolsConfig struct {
	PrimaryCompose string `toml:"primary_compose"` // Primary orchestration binary (docker compose plugin)
	LegacyCompose  string `toml:"legacy_compose"`  // Legacy standalone compose binary
	Docker         string `toml:"docker"`          // Container runtime CLI for queries
}

type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultGlobalConfig returns the default global configuration
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Server: ServerConfig{
			Host: "localhost",
			Port: constants.DefaultServerPort,
		},
		Storage: StorageConfig{
			ProjectsDir:  "~/harbormaster/projects",
			RegistryPath: "", // Will use XDG state default
		},
		Tools: ToolsConfig{
			PrimaryCompose: constants.DefaultPrimaryComposeBinary,
			LegacyCompose:  constants.DefaultLegacyComposeBinary,
			Docker:         constants.DefaultDockerBinary,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads the global configuration from the XDG config directory
func Load() (*GlobalConfig, error) {
	configDir, err := xdg.ConfigDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(configDir, "config.toml"))
}

// LoadFrom loads the configuration from an explicit path. A missing file
// yields the defaults.
func LoadFrom(path string) (*GlobalConfig, error) {
	config := DefaultGlobalConfig()

	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyDefaults(config)

	if err := expandPaths(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save writes the configuration to the XDG config directory
func (g *GlobalConfig) Save() error {
	configDir, err := xdg.ConfigDir()
	if err != nil {
		return err
	}

	if err := xdg.EnsureDir(configDir); err != nil {
		return err
	}

	data, err := toml.Marshal(g)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.toml"), data, constants.FilePermissions)
}

// applyDefaults fills any zero value with the built-in default
func applyDefaults(config *GlobalConfig) {
	defaults := DefaultGlobalConfig()
	if config.Server.Host == "" {
		config.Server.Host = defaults.Server.Host
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Storage.ProjectsDir == "" {
		config.Storage.ProjectsDir = defaults.Storage.ProjectsDir
	}
	if config.Storage.RegistryPath == "" {
		if stateDir, err := xdg.StateDir(); err == nil {
			config.Storage.RegistryPath = filepath.Join(stateDir, "registry.json")
		}
	}
	if config.Tools.PrimaryCompose == "" {
		config.Tools.PrimaryCompose = defaults.Tools.PrimaryCompose
	}
	if config.Tools.LegacyCompose == "" {
		config.Tools.LegacyCompose = defaults.Tools.LegacyCompose
	}
	if config.Tools.Docker == "" {
		config.Tools.Docker = defaults.Tools.Docker
	}
	if config.Log.Level == "" {
		config.Log.Level = defaults.Log.Level
	}
}

// expandPaths expands tilde prefixes in configured paths
func expandPaths(config *GlobalConfig) error {
	expanded, err := expandTilde(config.Storage.ProjectsDir)
	if err != nil {
		return err
	}
	config.Storage.ProjectsDir = expanded

	expanded, err = expandTilde(config.Storage.RegistryPath)
	if err != nil {
		return err
	}
	config.Storage.RegistryPath = expanded

	return nil
}

func expandTilde(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, path[2:]), nil
}

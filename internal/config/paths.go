package config

import (
	"os"
	"path/filepath"
)

const (
	// ConfigFileName is the config file looked up in the working directory.
	ConfigFileName = "triplestore.yaml"
	// ConfigDirName is the config directory name under XDG.
	ConfigDirName = "triplestore"

	// EnvConfigPath names an explicit config file.
	EnvConfigPath = "TRIPLESTORE_CONFIG"
	// EnvDatabasePath overrides database.path.
	EnvDatabasePath = "TRIPLESTORE_DB"
)

// FindConfigPath returns the first existing config file in priority
// order, or "" if there is none.
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}

	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		path := filepath.Join(xdgHome, ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	if home := os.Getenv("HOME"); home != "" {
		path := filepath.Join(home, ".config", ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	return ""
}

// EnsureConfigDir creates the directory holding configPath.
func EnsureConfigDir(configPath string) error {
	dir := filepath.Dir(configPath)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

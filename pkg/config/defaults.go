package config

import (
	"os"
	"path/filepath"
)

// defaultDBPath returns the default database file path.
//
// Returns: ~/.config/ysdb/ysdb.db.
func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./ysdb.db"
	}

	return filepath.Join(homeDir, ".config", "ysdb", "ysdb.db")
}

// DefaultConfigPath returns the default configuration file path.
//
// Returns: ~/.config/ysdb/config.yaml.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}

	return filepath.Join(homeDir, ".config", "ysdb", "config.yaml")
}

// SearchPaths returns the locations searched for a config file, in order.
func SearchPaths() []string {
	return []string{
		"./ysdb.yaml",
		"./config.yaml",
		DefaultConfigPath(),
	}
}

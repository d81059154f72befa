package config

import (
	"os"
	"path/filepath"
)

// Dir returns the veilstream config directory.
// Uses XDG_CONFIG_HOME/veilstream, defaulting to ~/.config/veilstream.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "veilstream"), nil
}

// DefaultKeyFile returns the default wallet key file path.
func DefaultKeyFile() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "wallet.json"), nil
}

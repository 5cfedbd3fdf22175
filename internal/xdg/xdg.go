// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

// Package xdg locates accountd files under the XDG Base Directory layout.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "accountd"

// ConfigDir returns $XDG_CONFIG_HOME/accountd, falling back to ~/.config/accountd.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DefaultConfigFile returns the config file path used when --config is not given.
func DefaultConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ResolveConfigFile picks the config file to load.
// An explicit path is returned unchanged. Otherwise the default file is used
// when it exists, and "" means no file.
func ResolveConfigFile(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	path := DefaultConfigFile()
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return path, nil
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	default:
		return "", oops.Code("CONFIG_INVALID").With("config_file", path).Wrap(err)
	}
}

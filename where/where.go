// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/emeltv/emel/constant"
	"github.com/emeltv/emel/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath is the environment variable used to override the default configuration directory.
const EnvConfigPath = "EMEL_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the application configuration directory.
// It follows XDG_CONFIG_HOME on Linux and the user profile equivalents on Darwin and Windows,
// unless EMEL_CONFIG_PATH is set.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Emel))
}

// ConfigFile resolves the path of the TOML configuration file.
func ConfigFile() string {
	return filepath.Join(Config(), constant.Emel+".toml")
}

// Logs resolves the directory used for diagnostic logs.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Sockets resolves the directory holding player IPC sockets.
// Kept under the system temp dir: unix socket paths are length-limited.
func Sockets() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Emel))
}

// Package filesystem provides a virtualized abstraction layer for all filesystem operations.
//
// Every path the application touches (config, logs, IPC sockets) goes through API(),
// so tests can swap in an in-memory backend.
package filesystem

import (
	"errors"
	"os"

	"github.com/spf13/afero"
)

var backend = afero.Afero{Fs: afero.NewOsFs()}

// API returns the active afero.Afero instance for filesystem interaction.
func API() afero.Afero {
	return backend
}

// SetOsFs restores the filesystem backend to the native operating system implementation.
func SetOsFs() {
	backend = afero.Afero{Fs: afero.NewOsFs()}
}

// SetMemMapFs initializes a volatile in-memory filesystem backend for unit testing.
func SetMemMapFs() {
	backend = afero.Afero{Fs: afero.NewMemMapFs()}
}

// RemoveIfExists deletes path, treating a missing file as success.
func RemoveIfExists(path string) error {
	if path == "" {
		return nil
	}

	err := backend.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}

// Delete recursively removes a file or directory.
func Delete(path string) error {
	stat, err := backend.Stat(path)
	if err != nil {
		return err
	}

	if stat.IsDir() {
		return backend.RemoveAll(path)
	}
	return backend.Remove(path)
}

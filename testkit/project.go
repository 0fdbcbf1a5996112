// Package testkit holds helpers for tests: locating the project a test
// lives in and reading resources embedded next to it.
package testkit

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// ErrProjectRootNotFound is returned when no go.mod exists above a directory.
var ErrProjectRootNotFound = errors.New("project root not found: no go.mod above directory")

// ErrCallerUnknown is returned when the calling source file cannot be determined.
var ErrCallerUnknown = errors.New("cannot determine caller source file")

// CallerDir returns the directory of the source file skip frames above the
// caller. CallerDir(0) is the directory of the file calling CallerDir.
func CallerDir(skip int) (string, error) {
	_, file, _, ok := runtime.Caller(skip + 1)
	if !ok || file == "" {
		return "", ErrCallerUnknown
	}
	return filepath.Dir(file), nil
}

// ProjectRoot returns the directory holding the nearest go.mod above the
// caller's source file.
//
//	root, err := testkit.ProjectRoot()
func ProjectRoot() (string, error) {
	dir, err := CallerDir(1)
	if err != nil {
		return "", err
	}
	return FindProjectRoot(dir)
}

// ProjectPath joins elem onto the caller's project root.
//
//	schema, err := testkit.ProjectPath("migrations", "001_init.sql")
func ProjectPath(elem ...string) (string, error) {
	dir, err := CallerDir(1)
	if err != nil {
		return "", err
	}

	root, err := FindProjectRoot(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{root}, elem...)...), nil
}

// FindProjectRoot walks up from dir to the first directory containing go.mod.
func FindProjectRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		info, err := os.Stat(filepath.Join(dir, "go.mod"))
		if err == nil && !info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrProjectRootNotFound
		}
		dir = parent
	}
}

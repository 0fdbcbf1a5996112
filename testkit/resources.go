package testkit

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// ErrResourceNameEmpty is returned for an empty resource name.
	ErrResourceNameEmpty = errors.New("resource name cannot be empty")

	// ErrResourceNotFound is matched by ResourceNotFoundError with errors.Is.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrResourcesNil is returned by NewResources given a nil file system.
	ErrResourcesNil = errors.New("resource file system cannot be nil")
)

// ResourceNotFoundError reports a missing resource and the names that exist.
type ResourceNotFoundError struct {
	Name      string
	Available []string
}

func (e ResourceNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("resource %q not found", e.Name)
	}
	return fmt.Sprintf("resource %q not found (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

func (e ResourceNotFoundError) Is(target error) bool {
	return target == ErrResourceNotFound
}

// Resources reads named files from a file system, normally an embed.FS.
// Names are slash-separated and relative to the base directory.
//
//	//go:embed testdata
//	var testdata embed.FS
//
//	var fixtures = testkit.MustResources(testdata, "testdata")
type Resources struct {
	fsys fs.FS
	base string
}

// NewResources returns Resources reading from fsys under base. An empty
// base or "." reads from the root of fsys.
func NewResources(fsys fs.FS, base string) (*Resources, error) {
	if fsys == nil {
		return nil, ErrResourcesNil
	}

	base = path.Clean(strings.TrimPrefix(base, "/"))
	if base != "." {
		sub, err := fs.Sub(fsys, base)
		if err != nil {
			return nil, err
		}
		fsys = sub
	}

	return &Resources{fsys: fsys, base: base}, nil
}

// MustResources is NewResources that panics on error. It is meant for
// package-level fixture variables.
func MustResources(fsys fs.FS, base string) *Resources {
	r, err := NewResources(fsys, base)
	if err != nil {
		panic(err)
	}
	return r
}

// Open returns a reader for the named resource. The caller closes it.
func (r *Resources) Open(name string) (io.ReadCloser, error) {
	name, err := r.clean(name)
	if err != nil {
		return nil, err
	}

	f, err := r.fsys.Open(name)
	if err != nil {
		return nil, r.wrap(name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, r.notFound(name)
	}

	return f, nil
}

// Bytes returns the content of the named resource.
func (r *Resources) Bytes(name string) ([]byte, error) {
	rc, err := r.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read resource %q: %w", name, err)
	}
	return data, nil
}

// String returns the content of the named resource as a string.
func (r *Resources) String(name string) (string, error) {
	data, err := r.Bytes(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Names returns every resource name, sorted.
func (r *Resources) Names() ([]string, error) {
	var names []string
	err := fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			names = append(names, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(names)
	return names, nil
}

func (r *Resources) clean(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrResourceNameEmpty
	}

	name = path.Clean(strings.TrimPrefix(name, "/"))
	if !fs.ValidPath(name) || name == "." {
		return "", r.notFound(name)
	}
	return name, nil
}

func (r *Resources) wrap(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
		return r.notFound(name)
	}
	return fmt.Errorf("open resource %q: %w", path.Join(r.base, name), err)
}

func (r *Resources) notFound(name string) error {
	available, _ := r.Names()
	return ResourceNotFoundError{Name: name, Available: available}
}

// MustBytes returns the named resource or fails the test.
func MustBytes(t testing.TB, r *Resources, name string) []byte {
	t.Helper()
	data, err := r.Bytes(name)
	require.NoError(t, err, "failed to read resource %q", name)
	return data
}

// MustString returns the named resource as a string or fails the test.
func MustString(t testing.TB, r *Resources, name string) string {
	t.Helper()
	return string(MustBytes(t, r, name))
}

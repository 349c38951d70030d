package pod

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dolthub/fslock"
	"github.com/pkg/errors"

	"github.com/bertrandchenal/lakota/lkerr"
)

// FilePod is a Pod backed by the local filesystem. Writes are made
// atomic by writing to a temp file in the target directory and
// renaming it into place, so a reader never observes a
// partially-written file.
type FilePod struct {
	root string
}

var _ Pod = (*FilePod)(nil)

// NewFile creates a FilePod rooted at dir, creating it if absent.
func NewFile(dir string) (*FilePod, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "pod: create root dir")
	}
	return &FilePod{root: dir}, nil
}

func (f *FilePod) abs(key string) string {
	return filepath.Join(f.root, filepath.FromSlash(key))
}

func (f *FilePod) Read(_ context.Context, key string) ([]byte, error) {
	data, err := ioutil.ReadFile(f.abs(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &lkerr.NotFound{Key: key}
		}
		return nil, &lkerr.BackendError{Op: "read " + key, Err: err}
	}
	return data, nil
}

func (f *FilePod) Write(_ context.Context, key string, data []byte) error {
	abs := f.abs(key)
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &lkerr.BackendError{Op: "mkdir " + dir, Err: err}
	}

	// Guard the directory while we check for an identical write and
	// swap the temp file into place, so two writers racing to create
	// the same two-level digest directory never observe a half state.
	lock := fslock.New(filepath.Join(dir, ".lakota.lock"))
	if err := lock.Lock(); err != nil {
		return &lkerr.BackendError{Op: "lock " + dir, Err: err}
	}
	defer lock.Unlock()

	if existing, err := ioutil.ReadFile(abs); err == nil {
		if string(existing) == string(data) {
			return nil
		}
	}

	tmp, err := ioutil.TempFile(dir, ".tmp-*")
	if err != nil {
		return &lkerr.BackendError{Op: "create temp file", Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &lkerr.BackendError{Op: "write temp file", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &lkerr.BackendError{Op: "close temp file", Err: err}
	}
	if err := os.Rename(tmpName, abs); err != nil {
		os.Remove(tmpName)
		return &lkerr.BackendError{Op: "rename into place", Err: err}
	}
	return nil
}

func (f *FilePod) Ls(_ context.Context, prefix string) ([]string, error) {
	dir := f.abs(prefix)
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &lkerr.BackendError{Op: "ls " + prefix, Err: err}
	}
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

func (f *FilePod) Walk(ctx context.Context, prefix string) ([]string, error) {
	root := f.abs(prefix)
	var out []string
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, &lkerr.BackendError{Op: "walk " + prefix, Err: err}
	}
	sort.Strings(out)
	return out, nil
}

func (f *FilePod) Rm(_ context.Context, key string) error {
	if err := os.Remove(f.abs(key)); err != nil {
		if os.IsNotExist(err) {
			return &lkerr.NotFound{Key: key}
		}
		return &lkerr.BackendError{Op: "rm " + key, Err: err}
	}
	return nil
}

// Package pod implements a uniform key→bytes storage surface: a small
// interface that every backend (in-memory, local filesystem, S3) and
// every composition (cached, LRU-bounded) satisfies identically, so
// the layers above never know which backend they are talking to.
package pod

import (
	"context"
	"path"
	"sort"
	"strings"
)

// Pod is the uniform storage surface. Every method may block on I/O;
// callers are expected to pass a context that can cancel that wait.
type Pod interface {
	// Read returns the bytes stored at key, or a *lkerr.NotFound error.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write stores data at key. Writing identical bytes to an
	// already-written key is a no-op (idempotent).
	Write(ctx context.Context, key string, data []byte) error

	// Ls lists the immediate children of prefix. Order is unspecified;
	// callers that need a stable order must sort.
	Ls(ctx context.Context, prefix string) ([]string, error)

	// Walk recursively lists every key under prefix.
	Walk(ctx context.Context, prefix string) ([]string, error)

	// Rm removes key. Removing an absent key returns *lkerr.NotFound.
	Rm(ctx context.Context, key string) error
}

// Cd returns a Pod rooted at prefix below p, so callers can work with
// relative keys the way the object store and changelog prefixes do.
func Cd(p Pod, prefix string) Pod {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return p
	}
	return &scoped{base: p, prefix: prefix}
}

type scoped struct {
	base   Pod
	prefix string
}

func (s *scoped) full(key string) string {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return s.prefix
	}
	return s.prefix + "/" + key
}

func (s *scoped) Read(ctx context.Context, key string) ([]byte, error) {
	return s.base.Read(ctx, s.full(key))
}

func (s *scoped) Write(ctx context.Context, key string, data []byte) error {
	return s.base.Write(ctx, s.full(key), data)
}

func (s *scoped) Ls(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.base.Ls(ctx, s.full(prefix))
	if err != nil {
		return nil, err
	}
	return stripPrefix(keys, s.prefix), nil
}

func (s *scoped) Walk(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.base.Walk(ctx, s.full(prefix))
	if err != nil {
		return nil, err
	}
	return stripPrefix(keys, s.prefix), nil
}

func (s *scoped) Rm(ctx context.Context, key string) error {
	return s.base.Rm(ctx, s.full(key))
}

func stripPrefix(keys []string, prefix string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(strings.TrimPrefix(k, prefix), "/"))
	}
	return out
}

// SortedLs lists prefix and returns the keys in lexicographic order,
// needed by callers since Ls order is otherwise unspecified.
func SortedLs(ctx context.Context, p Pod, prefix string) ([]string, error) {
	keys, err := p.Ls(ctx, prefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// HashedPath splits a digest string into a short directory head and a
// tail filename, so object storage fans digests out into many small
// directories instead of one huge flat one: object path =
// <first-two-characters>/<rest-of-digest>.
func HashedPath(digestHex string) (dir, file string) {
	if len(digestHex) <= 2 {
		return digestHex, digestHex
	}
	return digestHex[:2], digestHex[2:]
}

// JoinHashedPath is the inverse helper used by backends that want a
// single path string rather than a (dir, file) pair.
func JoinHashedPath(digestHex string) string {
	dir, file := HashedPath(digestHex)
	return path.Join(dir, file)
}

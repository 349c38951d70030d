// Package objstore is a thin content-addressed skin over a Pod: Put
// computes a digest and writes it if absent, Get fetches by digest.
// Objects live under the pod's root — callers choose the role-specific
// prefix (registry, changelog, segments) by scoping the Pod with
// pod.Cd before constructing a Store.
package objstore

import (
	"bytes"
	"context"

	"github.com/bertrandchenal/lakota/digest"
	"github.com/bertrandchenal/lakota/lkerr"
	"github.com/bertrandchenal/lakota/pod"
)

// Store is a content-addressed object store layered over a Pod.
type Store struct {
	pod pod.Pod
}

// New wraps p as an object store. p should already be scoped (via
// pod.Cd) to whatever prefix this store's objects live under.
func New(p pod.Pod) *Store {
	return &Store{pod: p}
}

// Put computes data's digest, writes (digest) → data if not already
// present, and returns the digest. Writes are idempotent: two Puts of
// identical bytes produce the same digest and at most one underlying
// pod write.
func (s *Store) Put(ctx context.Context, data []byte) (digest.Digest, error) {
	d := digest.Of(data)
	key := pod.JoinHashedPath(d.String())
	if existing, err := s.pod.Read(ctx, key); err == nil && bytes.Equal(existing, data) {
		return d, nil
	}
	if err := s.pod.Write(ctx, key, data); err != nil {
		return digest.Digest{}, err
	}
	return d, nil
}

// Get fetches the payload named by d. A missing object surfaces as
// *lkerr.NotFound; a payload whose content no longer hashes to d
// surfaces as *lkerr.IntegrityError.
func (s *Store) Get(ctx context.Context, d digest.Digest) ([]byte, error) {
	key := pod.JoinHashedPath(d.String())
	data, err := s.pod.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	if got := digest.Of(data); got != d {
		return nil, &lkerr.IntegrityError{Context: "object " + d.String() + " digest mismatch on read"}
	}
	return data, nil
}

// Has reports whether d resolves in the store, without fetching it.
func (s *Store) Has(ctx context.Context, d digest.Digest) bool {
	_, err := s.Get(ctx, d)
	return err == nil
}

// Pod returns the underlying (already-scoped) pod, for layers that
// need to enumerate objects directly (GC, pull/push).
func (s *Store) Pod() pod.Pod { return s.pod }

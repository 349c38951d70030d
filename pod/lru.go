package pod

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bertrandchenal/lakota/lkerr"
)

// LRUPod is a bounded in-memory Pod, useful as the local layer of a
// CachedPod in long-running processes where an unbounded MemoryPod
// would grow without limit while still caching hot segment objects
// from a remote collection.
type LRUPod struct {
	cache *lru.Cache[string, []byte]
}

var _ Pod = (*LRUPod)(nil)

// NewLRU creates an LRUPod holding at most size entries.
func NewLRU(size int) (*LRUPod, error) {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &LRUPod{cache: c}, nil
}

func (l *LRUPod) Read(_ context.Context, key string) ([]byte, error) {
	v, ok := l.cache.Get(key)
	if !ok {
		return nil, &lkerr.NotFound{Key: key}
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (l *LRUPod) Write(_ context.Context, key string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	l.cache.Add(key, cp)
	return nil
}

// Ls and Walk always return an empty listing, even when entries are
// resident — an LRUPod is meant to sit as the *local* side of a
// CachedPod, whose Ls/Walk are always delegated to the authoritative
// remote.
func (l *LRUPod) Ls(context.Context, string) ([]string, error) { return nil, nil }

func (l *LRUPod) Walk(context.Context, string) ([]string, error) { return nil, nil }

func (l *LRUPod) Rm(_ context.Context, key string) error {
	if !l.cache.Remove(key) {
		return &lkerr.NotFound{Key: key}
	}
	return nil
}

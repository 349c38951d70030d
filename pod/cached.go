package pod

import (
	"context"

	"github.com/bertrandchenal/lakota/lkerr"
)

// CachedPod composes an ordered list of pods [local, ..., remote]:
//
//   - Read tries each pod in order, populating every earlier (more
//     local) pod on a hit so subsequent reads avoid the remote.
//   - Write only ever touches the first (most local) pod; propagating
//     writes upstream is the caller's job (Repo.Push).
//   - Ls/Walk are delegated to the *last* (authoritative) pod only —
//     listings are never cached, so upstream deletions and new
//     changelog entries are always visible even through a warm cache.
type CachedPod struct {
	pods []Pod
}

var _ Pod = (*CachedPod)(nil)

// NewCached builds a CachedPod from pods ordered local-to-remote. At
// least one pod is required; a single pod degenerates to itself.
func NewCached(pods ...Pod) Pod {
	if len(pods) == 0 {
		panic("pod: NewCached requires at least one pod")
	}
	if len(pods) == 1 {
		return pods[0]
	}
	return &CachedPod{pods: pods}
}

func (c *CachedPod) Read(ctx context.Context, key string) ([]byte, error) {
	for i, p := range c.pods {
		data, err := p.Read(ctx, key)
		if err == nil {
			// Backfill every pod closer to the caller than the one
			// that actually served this read.
			for j := 0; j < i; j++ {
				_ = c.pods[j].Write(ctx, key, data)
			}
			return data, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}
	return nil, &lkerr.NotFound{Key: key}
}

func (c *CachedPod) Write(ctx context.Context, key string, data []byte) error {
	return c.pods[0].Write(ctx, key, data)
}

func (c *CachedPod) Ls(ctx context.Context, prefix string) ([]string, error) {
	return c.authoritative().Ls(ctx, prefix)
}

func (c *CachedPod) Walk(ctx context.Context, prefix string) ([]string, error) {
	return c.authoritative().Walk(ctx, prefix)
}

func (c *CachedPod) Rm(ctx context.Context, key string) error {
	var lastErr error
	found := false
	for _, p := range c.pods {
		err := p.Rm(ctx, key)
		if err == nil {
			found = true
		} else if !isNotFound(err) {
			lastErr = err
		}
	}
	if lastErr == nil && !found {
		return &lkerr.NotFound{Key: key}
	}
	return lastErr
}

func (c *CachedPod) authoritative() Pod {
	return c.pods[len(c.pods)-1]
}

func isNotFound(err error) bool {
	_, ok := err.(*lkerr.NotFound)
	return ok
}

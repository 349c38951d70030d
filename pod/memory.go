package pod

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bertrandchenal/lakota/lkerr"
)

// MemoryPod is a per-instance, in-memory Pod backed by a map. It is
// never shared across instances — state is scoped to this one
// MemoryPod value.
type MemoryPod struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ Pod = (*MemoryPod)(nil)

// NewMemory creates an empty MemoryPod.
func NewMemory() *MemoryPod {
	return &MemoryPod{data: make(map[string][]byte)}
}

func (m *MemoryPod) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, &lkerr.NotFound{Key: key}
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryPod) Write(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok && bytes.Equal(existing, data) {
		return nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[key] = cp
	return nil
}

func (m *MemoryPod) Ls(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix = strings.Trim(prefix, "/")
	seen := map[string]struct{}{}
	var out []string
	for k := range m.data {
		rest := k
		if prefix != "" {
			if !strings.HasPrefix(k, prefix+"/") {
				continue
			}
			rest = strings.TrimPrefix(k, prefix+"/")
		}
		head := rest
		if idx := strings.Index(rest, "/"); idx >= 0 {
			head = rest[:idx]
		}
		if _, ok := seen[head]; !ok {
			seen[head] = struct{}{}
			out = append(out, head)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryPod) Walk(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix = strings.Trim(prefix, "/")
	var out []string
	for k := range m.data {
		if prefix == "" {
			out = append(out, k)
			continue
		}
		if strings.HasPrefix(k, prefix+"/") {
			out = append(out, strings.TrimPrefix(k, prefix+"/"))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryPod) Rm(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return &lkerr.NotFound{Key: key}
	}
	delete(m.data, key)
	return nil
}

package pod

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// Open builds a Pod from one or more URIs: "file:///path" for the
// local filesystem, "s3://bucket[/prefix]" for an S3-compatible
// bucket, and "memory://" for a per-process map. A list of URIs
// composes a CachedPod, first = cache, last = authoritative; a single
// URI containing "+" is split the same way.
func Open(ctx context.Context, uris ...string) (Pod, error) {
	if len(uris) == 0 {
		return NewMemory(), nil
	}
	if len(uris) == 1 && strings.Contains(uris[0], "+") {
		uris = strings.Split(uris[0], "+")
	}
	if len(uris) == 1 {
		return openOne(ctx, uris[0])
	}
	pods := make([]Pod, 0, len(uris))
	for _, u := range uris {
		p, err := openOne(ctx, u)
		if err != nil {
			return nil, err
		}
		pods = append(pods, p)
	}
	return NewCached(pods...), nil
}

func openOne(ctx context.Context, uri string) (Pod, error) {
	switch {
	case uri == "" || uri == "memory://":
		return NewMemory(), nil
	case strings.HasPrefix(uri, "memory://"):
		return NewMemory(), nil
	case strings.HasPrefix(uri, "file://"):
		return NewFile(strings.TrimPrefix(uri, "file://"))
	case strings.HasPrefix(uri, "s3://"):
		rest := strings.TrimPrefix(uri, "s3://")
		bucket, prefix := rest, ""
		if idx := strings.Index(rest, "/"); idx >= 0 {
			bucket, prefix = rest[:idx], rest[idx+1:]
		}
		return NewS3(ctx, bucket, prefix)
	case strings.Contains(uri, "://"):
		return nil, errors.Errorf("pod: unsupported scheme in uri %q", uri)
	default:
		// No scheme: treat as a local path.
		return NewFile(uri)
	}
}

package collection

import (
	"context"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/bertrandchenal/lakota/pod"
)

// GCStats summarizes one GC pass over a collection's segment store.
type GCStats struct {
	Buried     int
	Deleted    int
	BytesFreed uint64
}

// GC is a two-phase soft/hard delete: a segment no longer reachable
// from any current leaf's ancestry is buried (marked, not removed)
// the first time it's seen unreferenced, and only hard-deleted once it
// has stayed buried for at least grace — giving a concurrent reader
// that started before the GC pass time to finish using it. A segment
// that becomes reachable again (a merge resurrecting an abandoned
// branch) is un-buried instead of deleted. A non-positive grace uses
// the collection's configured GCGrace instead of deleting immediately.
func (c *Collection) GC(ctx context.Context, grace time.Duration) (GCStats, error) {
	if grace <= 0 {
		grace = c.cfg.GCGrace()
	}
	reachable, err := c.reachableDigests(ctx)
	if err != nil {
		return GCStats{}, err
	}

	segKeys, err := c.store.Pod().Walk(ctx, "")
	if err != nil {
		return GCStats{}, err
	}
	trashPod := pod.Cd(c.base, "trash")
	trashKeys, err := trashPod.Walk(ctx, "")
	if err != nil {
		return GCStats{}, err
	}
	trashed := make(map[string]bool, len(trashKeys))
	for _, k := range trashKeys {
		trashed[k] = true
	}

	var stats GCStats
	now := time.Now()
	for _, segKey := range segKeys {
		digestStr := unjoinHashedPath(segKey)

		if reachable[digestStr] {
			if trashed[digestStr] {
				_ = trashPod.Rm(ctx, digestStr)
			}
			continue
		}

		if trashed[digestStr] {
			buriedAt, err := readBuryTime(ctx, trashPod, digestStr)
			if err != nil || now.Sub(buriedAt) < grace {
				continue
			}
			if data, err := c.store.Pod().Read(ctx, segKey); err == nil {
				stats.BytesFreed += uint64(len(data))
			}
			if err := c.store.Pod().Rm(ctx, segKey); err != nil {
				return stats, err
			}
			_ = trashPod.Rm(ctx, digestStr)
			stats.Deleted++
			continue
		}

		if err := trashPod.Write(ctx, digestStr, []byte(now.Format(time.RFC3339))); err != nil {
			return stats, err
		}
		stats.Buried++
	}

	c.log.WithFields(logrus.Fields{
		"collection": c.Name,
		"buried":     stats.Buried,
		"deleted":    stats.Deleted,
		"freed":      humanize.Bytes(stats.BytesFreed),
	}).Info("collection: gc pass complete")
	return stats, nil
}

// reachableDigests collects every non-embedded column digest named by
// any revision reachable from any current leaf — GC never prunes a
// live branch's dependencies, merged or not.
func (c *Collection) reachableDigests(ctx context.Context) (map[string]bool, error) {
	leafs, err := c.cl.Leafs(ctx)
	if err != nil {
		return nil, err
	}
	out := map[string]bool{}
	for _, leaf := range leafs {
		revs, err := c.cl.Log(ctx, leaf)
		if err != nil {
			return nil, err
		}
		for _, rev := range revs {
			for _, e := range rev.Payload.Entries {
				for _, cd := range e.Segment.Columns {
					if !cd.Embedded {
						out[cd.Digest.String()] = true
					}
				}
			}
		}
	}
	return out, nil
}

func unjoinHashedPath(segKey string) string {
	parts := strings.SplitN(segKey, "/", 2)
	if len(parts) != 2 {
		return segKey
	}
	return parts[0] + parts[1]
}

func readBuryTime(ctx context.Context, trashPod pod.Pod, key string) (time.Time, error) {
	data, err := trashPod.Read(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, string(data))
}

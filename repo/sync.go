package repo

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/bertrandchenal/lakota/lkerr"
	"github.com/bertrandchenal/lakota/pod"
)

// SyncStats summarizes one Push or Pull.
type SyncStats struct {
	Segments  int
	Revisions int
}

// Push replicates collection name from this repo onto remotePod under
// the same name, registering it there first if absent.
func (r *Repo) Push(ctx context.Context, name string, remotePod pod.Pod) (SyncStats, error) {
	return r.PushAs(ctx, name, name, remotePod)
}

// PushAs replicates collection localName from this repo onto
// remotePod as remoteName, registering remoteName there first if
// absent. Segments are copied before changelog revisions, so a reader
// on the remote never observes a revision whose referenced segment
// hasn't landed yet.
func (r *Repo) PushAs(ctx context.Context, localName, remoteName string, remotePod pod.Pod) (SyncStats, error) {
	local, err := r.Collection(ctx, localName)
	if err != nil {
		return SyncStats{}, err
	}
	remoteRepo := Open(remotePod, r.cfg, r.log)
	if _, err := remoteRepo.CreateCollection(ctx, remoteName, "push", local.Schema); err != nil {
		return SyncStats{}, err
	}
	remoteCol, err := remoteRepo.Collection(ctx, remoteName)
	if err != nil {
		return SyncStats{}, err
	}

	segN, err := copyPodTree(ctx, local.Store().Pod(), remoteCol.Store().Pod())
	if err != nil {
		return SyncStats{Segments: segN}, err
	}
	revN, err := local.Changelog().Push(ctx, remoteCol.Changelog().Pod())
	return SyncStats{Segments: segN, Revisions: revN}, err
}

// Pull replicates collection name from remotePod into this repo under
// the same name.
func (r *Repo) Pull(ctx context.Context, name string, remotePod pod.Pod) (SyncStats, error) {
	return r.PullAs(ctx, name, name, remotePod)
}

// PullAs is PushAs with source and destination reversed: it registers
// localName locally (if absent) from remotePod's remoteName entry,
// then copies segments and changelog revisions in the same safe
// order.
func (r *Repo) PullAs(ctx context.Context, localName, remoteName string, remotePod pod.Pod) (SyncStats, error) {
	remoteRepo := Open(remotePod, r.cfg, r.log)
	remoteCol, err := remoteRepo.Collection(ctx, remoteName)
	if err != nil {
		return SyncStats{}, err
	}
	if _, err := r.CreateCollection(ctx, localName, "pull", remoteCol.Schema); err != nil {
		return SyncStats{}, err
	}
	local, err := r.Collection(ctx, localName)
	if err != nil {
		return SyncStats{}, err
	}

	segN, err := copyPodTree(ctx, remoteCol.Store().Pod(), local.Store().Pod())
	if err != nil {
		return SyncStats{Segments: segN}, err
	}
	revN, err := local.Changelog().Pull(ctx, remoteCol.Changelog().Pod())
	return SyncStats{Segments: segN, Revisions: revN}, err
}

// copyPodTree copies every key under src absent from dst, retrying a
// transient *lkerr.BackendError with bounded exponential backoff
// before giving up.
func copyPodTree(ctx context.Context, src, dst pod.Pod) (int, error) {
	names, err := src.Walk(ctx, "")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, name := range names {
		if _, err := dst.Read(ctx, name); err == nil {
			continue
		}
		op := func() error {
			data, err := src.Read(ctx, name)
			if err != nil {
				if _, retryable := err.(*lkerr.BackendError); retryable {
					return err
				}
				return backoff.Permanent(err)
			}
			if err := dst.Write(ctx, name, data); err != nil {
				if _, retryable := err.(*lkerr.BackendError); retryable {
					return err
				}
				return backoff.Permanent(err)
			}
			return nil
		}
		bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
		if err := backoff.Retry(op, bo); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

package repo

import "github.com/google/uuid"

// NewAuthorToken generates a fresh per-process author identity for
// callers that don't manage their own, so a Write/Commit call always
// has something non-empty to record. The token is opaque to lakota
// itself; it's only ever recorded for provenance.
func NewAuthorToken() string {
	return "lk-" + uuid.NewString()
}

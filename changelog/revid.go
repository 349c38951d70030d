package changelog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bertrandchenal/lakota/digest"
)

// epochHexWidth is 11 hex digits, i.e. 44 bits of millisecond
// resolution — good for roughly 557 years from the Unix epoch.
const epochHexWidth = 11

// RevID names one end of a revision edge: an epoch (milliseconds since
// the Unix epoch) plus the digest of the object at that point.
type RevID struct {
	Epoch  uint64
	Digest digest.Digest
}

// Phi is the root parent identifier: an all-zero digest standing in
// for "no parent" at the start of a collection's history.
var Phi = RevID{Epoch: 0, Digest: digest.Zero}

func (r RevID) String() string {
	return fmt.Sprintf("%0*x-%s", epochHexWidth, r.Epoch, r.Digest.Hex())
}

// ParseRevID parses the "{epoch_hex}-{digest_hex}" form.
func ParseRevID(s string) (RevID, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return RevID{}, fmt.Errorf("changelog: malformed revision id %q", s)
	}
	epoch, err := strconv.ParseUint(parts[0], 16, 64)
	if err != nil {
		return RevID{}, fmt.Errorf("changelog: malformed epoch in %q: %w", s, err)
	}
	d, err := digest.ParseHex(parts[1])
	if err != nil {
		return RevID{}, fmt.Errorf("changelog: malformed digest in %q: %w", s, err)
	}
	return RevID{Epoch: epoch, Digest: d}, nil
}

// nowEpoch returns the current time as milliseconds since the Unix
// epoch, masked to the 44 bits epochHexWidth hex digits can hold.
func nowEpoch() uint64 {
	const mask = (uint64(1) << 44) - 1
	return uint64(time.Now().UnixMilli()) & mask
}

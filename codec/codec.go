// Package codec treats compression as an opaque byte→byte transform: a
// Codec has a declared identity string and reversible Encode/Decode.
// Only the identity codec and a snappy codec are implemented here; any
// other codec is a pluggable collaborator identified by name in a
// segment descriptor.
package codec

import (
	"fmt"

	"github.com/golang/snappy"
)

// Codec compresses and decompresses column byte payloads.
type Codec interface {
	// Identity is the string recorded in a segment descriptor so a
	// reader written against a different codec set still knows which
	// transform to reverse.
	Identity() string
	Encode(data []byte) []byte
	Decode(data []byte) ([]byte, error)
}

// Identity is the no-op codec: declared identity is "raw".
type identityCodec struct{}

func (identityCodec) Identity() string { return "raw" }
func (identityCodec) Encode(data []byte) []byte { return data }
func (identityCodec) Decode(data []byte) ([]byte, error) { return data, nil }

// Snappy wraps golang/snappy, a fast block compressor well suited to
// column data that is mostly-sorted numeric or repeated-string values.
type snappyCodec struct{}

func (snappyCodec) Identity() string { return "snappy" }

func (snappyCodec) Encode(data []byte) []byte {
	return snappy.Encode(nil, data)
}

func (snappyCodec) Decode(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}

var registry = map[string]Codec{
	"raw":    identityCodec{},
	"snappy": snappyCodec{},
}

// Default is the codec new segments are written with.
var Default Codec = snappyCodec{}

// ByIdentity resolves the codec a segment descriptor declared.
func ByIdentity(id string) (Codec, error) {
	c, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("codec: unknown identity %q", id)
	}
	return c, nil
}

// SetDefault overrides Default by identity, for callers resolving
// their compression choice from configuration rather than a literal.
func SetDefault(identity string) error {
	c, err := ByIdentity(identity)
	if err != nil {
		return err
	}
	Default = c
	return nil
}

package changelog

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bertrandchenal/lakota/digest"
	"github.com/bertrandchenal/lakota/frame"
	"github.com/bertrandchenal/lakota/schema"
	"github.com/bertrandchenal/lakota/segment"
)

// Entry is one series' contribution to a revision's payload: the
// label it belongs to and the segment it wrote (or shadowed), naming
// the segment's column digests plus the key interval it covers.
type Entry struct {
	Label   string
	Segment segment.Descriptor
}

// Payload is the decoded body of a revision: every entry it carries,
// plus the author token recorded for provenance and tie-breaking.
type Payload struct {
	Author  string
	Entries []Entry
}

// Encode serializes a Payload using fixed, length-prefixed fields with
// a fixed byte order.
func Encode(s *schema.Schema, p Payload) []byte {
	var buf []byte
	buf = appendString(buf, p.Author)
	buf = appendUint32(buf, uint32(len(p.Entries)))
	for _, e := range p.Entries {
		buf = appendString(buf, e.Label)
		buf = appendKey(buf, s.KeyColumns(), e.Segment.Start)
		buf = appendKey(buf, s.KeyColumns(), e.Segment.Stop)
		buf = appendUint32(buf, uint32(e.Segment.Count))
		buf = appendUint32(buf, uint32(len(s.Columns)))
		for _, col := range s.Columns {
			cd := e.Segment.Columns[col.Name]
			buf = appendString(buf, cd.Codec)
			buf = append(buf, cd.Digest[:]...)
			if cd.Embedded {
				buf = append(buf, 1)
				buf = appendBytes(buf, cd.Bytes)
			} else {
				buf = append(buf, 0)
			}
		}
	}
	return buf
}

// Decode is Encode's inverse.
func Decode(s *schema.Schema, data []byte) (Payload, error) {
	var p Payload
	r := &reader{buf: data}

	author, err := r.string()
	if err != nil {
		return p, err
	}
	p.Author = author

	n, err := r.uint32()
	if err != nil {
		return p, err
	}
	p.Entries = make([]Entry, 0, n)
	keyCols := s.KeyColumns()
	for i := uint32(0); i < n; i++ {
		label, err := r.string()
		if err != nil {
			return p, err
		}
		start, err := r.key(keyCols)
		if err != nil {
			return p, err
		}
		stop, err := r.key(keyCols)
		if err != nil {
			return p, err
		}
		count, err := r.uint32()
		if err != nil {
			return p, err
		}
		colCount, err := r.uint32()
		if err != nil {
			return p, err
		}
		desc := segment.Descriptor{Start: start, Stop: stop, Count: int(count), Columns: make(map[string]segment.ColumnData, colCount)}
		for j := uint32(0); j < colCount; j++ {
			if int(j) >= len(s.Columns) {
				return p, fmt.Errorf("changelog: payload has more columns than schema")
			}
			col := s.Columns[j]
			codecID, err := r.string()
			if err != nil {
				return p, err
			}
			d, err := r.digest()
			if err != nil {
				return p, err
			}
			embeddedFlag, err := r.byte()
			if err != nil {
				return p, err
			}
			cd := segment.ColumnData{Codec: codecID, Digest: d}
			if embeddedFlag == 1 {
				b, err := r.bytes()
				if err != nil {
					return p, err
				}
				cd.Embedded = true
				cd.Bytes = b
			}
			desc.Columns[col.Name] = cd
		}
		p.Entries = append(p.Entries, Entry{Label: label, Segment: desc})
	}
	return p, nil
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendBytes(buf, data []byte) []byte {
	buf = appendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

func appendString(buf []byte, s string) []byte {
	return appendBytes(buf, []byte(s))
}

func appendKey(buf []byte, cols []schema.Column, key frame.Key) []byte {
	for i, col := range cols {
		var v interface{}
		if i < len(key) {
			v = key[i]
		}
		switch col.Type {
		case schema.Int64, schema.Timestamp:
			iv, _ := v.(int64)
			var tmp [8]byte
			binary.LittleEndian.PutUint64(tmp[:], uint64(iv))
			buf = append(buf, tmp[:]...)
		case schema.Float64:
			fv, _ := v.(float64)
			var tmp [8]byte
			binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(fv))
			buf = append(buf, tmp[:]...)
		case schema.String:
			sv, _ := v.(string)
			buf = appendString(buf, sv)
		}
	}
	return buf
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) uint32() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, fmt.Errorf("changelog: truncated payload (uint32)")
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) uint64() (uint64, error) {
	if r.pos+8 > len(r.buf) {
		return 0, fmt.Errorf("changelog: truncated payload (uint64)")
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) byte() (byte, error) {
	if r.pos+1 > len(r.buf) {
		return 0, fmt.Errorf("changelog: truncated payload (byte)")
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) bytes() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.buf) {
		return nil, fmt.Errorf("changelog: truncated payload (bytes)")
	}
	v := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return v, nil
}

func (r *reader) string() (string, error) {
	b, err := r.bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) digest() (digest.Digest, error) {
	if r.pos+digest.Size > len(r.buf) {
		return digest.Digest{}, fmt.Errorf("changelog: truncated payload (digest)")
	}
	var d digest.Digest
	copy(d[:], r.buf[r.pos:r.pos+digest.Size])
	r.pos += digest.Size
	return d, nil
}

func (r *reader) key(cols []schema.Column) (frame.Key, error) {
	if len(cols) == 0 {
		return nil, nil
	}
	key := make(frame.Key, len(cols))
	for i, col := range cols {
		switch col.Type {
		case schema.Int64, schema.Timestamp:
			v, err := r.uint64()
			if err != nil {
				return nil, err
			}
			key[i] = int64(v)
		case schema.Float64:
			v, err := r.uint64()
			if err != nil {
				return nil, err
			}
			key[i] = math.Float64frombits(v)
		case schema.String:
			v, err := r.string()
			if err != nil {
				return nil, err
			}
			key[i] = v
		}
	}
	return key, nil
}

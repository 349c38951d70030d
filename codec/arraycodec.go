package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bertrandchenal/lakota/schema"
)

// EncodeArray serializes a typed column array into a fixed, simple
// wire format: int64/timestamp columns as 8-byte little-endian words,
// float64 as 8-byte IEEE754 words, string columns as a
// length-prefixed-fields blob.
func EncodeArray(col schema.Column, arr interface{}) ([]byte, error) {
	switch col.Type {
	case schema.Int64, schema.Timestamp:
		v, ok := arr.([]int64)
		if !ok {
			return nil, fmt.Errorf("codec: column %q wants []int64", col.Name)
		}
		buf := make([]byte, 8*len(v))
		for i, x := range v {
			binary.LittleEndian.PutUint64(buf[i*8:], uint64(x))
		}
		return buf, nil
	case schema.Float64:
		v, ok := arr.([]float64)
		if !ok {
			return nil, fmt.Errorf("codec: column %q wants []float64", col.Name)
		}
		buf := make([]byte, 8*len(v))
		for i, x := range v {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(x))
		}
		return buf, nil
	case schema.String:
		v, ok := arr.([]string)
		if !ok {
			return nil, fmt.Errorf("codec: column %q wants []string", col.Name)
		}
		var buf []byte
		lenPrefix := make([]byte, 4)
		for _, s := range v {
			binary.LittleEndian.PutUint32(lenPrefix, uint32(len(s)))
			buf = append(buf, lenPrefix...)
			buf = append(buf, s...)
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("codec: unknown dtype for column %q", col.Name)
	}
}

// DecodeArray is EncodeArray's inverse, reconstructing n values.
func DecodeArray(col schema.Column, data []byte, n int) (interface{}, error) {
	switch col.Type {
	case schema.Int64, schema.Timestamp:
		if len(data) != 8*n {
			return nil, fmt.Errorf("codec: column %q: want %d bytes, got %d", col.Name, 8*n, len(data))
		}
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(data[i*8:]))
		}
		return out, nil
	case schema.Float64:
		if len(data) != 8*n {
			return nil, fmt.Errorf("codec: column %q: want %d bytes, got %d", col.Name, 8*n, len(data))
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
		return out, nil
	case schema.String:
		out := make([]string, 0, n)
		pos := 0
		for len(out) < n {
			if pos+4 > len(data) {
				return nil, fmt.Errorf("codec: column %q: truncated string array", col.Name)
			}
			l := int(binary.LittleEndian.Uint32(data[pos:]))
			pos += 4
			if pos+l > len(data) {
				return nil, fmt.Errorf("codec: column %q: truncated string value", col.Name)
			}
			out = append(out, string(data[pos:pos+l]))
			pos += l
		}
		return out, nil
	default:
		return nil, fmt.Errorf("codec: unknown dtype for column %q", col.Name)
	}
}

package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfDeterministic(t *testing.T) {
	a := Of([]byte("hello"))
	b := Of([]byte("hello"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Of([]byte("world")))
}

func TestOfConcatenatesArguments(t *testing.T) {
	a := Of([]byte("hello"), []byte("world"))
	b := Of([]byte("helloworld"))
	assert.Equal(t, a, b)
}

func TestStringRoundTrip(t *testing.T) {
	d := Of([]byte("round trip me"))
	parsed, err := Parse(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestHexRoundTrip(t *testing.T) {
	d := Of([]byte("hex round trip"))
	parsed, err := ParseHex(d.Hex())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestZeroIsZero(t *testing.T) {
	assert.True(t, Zero.IsZero())
	assert.False(t, Of([]byte("x")).IsZero())
}

func TestLessIsAntisymmetric(t *testing.T) {
	a := Of([]byte("a"))
	b := Of([]byte("b"))
	if a.String() == b.String() {
		t.Skip("collision")
	}
	assert.NotEqual(t, a.Less(b), b.Less(a))
}

func TestParseRejectsBadLength(t *testing.T) {
	_, err := ParseHex("abcd")
	assert.Error(t, err)
}

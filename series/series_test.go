package series

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bertrandchenal/lakota/changelog"
	"github.com/bertrandchenal/lakota/frame"
	"github.com/bertrandchenal/lakota/objstore"
	"github.com/bertrandchenal/lakota/pod"
	"github.com/bertrandchenal/lakota/schema"
	"github.com/bertrandchenal/lakota/segment"
)

func testSchema(t *testing.T) *schema.Schema {
	s, err := schema.New(schema.KindSeries,
		schema.Column{Name: "ts", Type: schema.Timestamp, IsKey: true},
		schema.Column{Name: "value", Type: schema.Float64},
	)
	require.NoError(t, err)
	return s
}

func silentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestSeries(t *testing.T) *Series {
	s := testSchema(t)
	store := objstore.New(pod.NewMemory())
	cl := changelog.New(pod.NewMemory(), s, silentLogger())
	return New("temps", s, store, cl, 0, segment.Options{})
}

func newTestSeriesWithMaxRows(t *testing.T, maxRows int) *Series {
	s := testSchema(t)
	store := objstore.New(pod.NewMemory())
	cl := changelog.New(pod.NewMemory(), s, silentLogger())
	return New("temps", s, store, cl, maxRows, segment.Options{})
}

func frameOf(t *testing.T, s *schema.Schema, ts []int64, values []float64) *frame.Frame {
	f, err := frame.New(s, map[string]interface{}{"ts": ts, "value": values})
	require.NoError(t, err)
	return f
}

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	ser := newTestSeries(t)
	s := testSchema(t)

	in := frameOf(t, s, []int64{1, 2, 3}, []float64{10, 20, 30})
	_, err := ser.Write(ctx, "alice", in)
	require.NoError(t, err)

	out, err := ser.Read(ctx, nil, nil)
	require.NoError(t, err)
	assert.True(t, frame.Equal(in, out))
}

func TestLaterWriteShadowsOverlap(t *testing.T) {
	ctx := context.Background()
	ser := newTestSeries(t)
	s := testSchema(t)

	first := frameOf(t, s, []int64{1, 2, 3, 4, 5}, []float64{1, 2, 3, 4, 5})
	_, err := ser.Write(ctx, "alice", first)
	require.NoError(t, err)

	second := frameOf(t, s, []int64{3, 4}, []float64{30, 40})
	_, err = ser.Write(ctx, "alice", second)
	require.NoError(t, err)

	out, err := ser.Read(ctx, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 5, out.Len())
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, out.Columns["ts"])
	assert.Equal(t, []float64{1, 2, 30, 40, 5}, out.Columns["value"])
}

func TestReadRangeRestrictsAfterShadowResolution(t *testing.T) {
	ctx := context.Background()
	ser := newTestSeries(t)
	s := testSchema(t)

	first := frameOf(t, s, []int64{1, 2, 3, 4, 5}, []float64{1, 2, 3, 4, 5})
	_, err := ser.Write(ctx, "alice", first)
	require.NoError(t, err)
	second := frameOf(t, s, []int64{3}, []float64{30})
	_, err = ser.Write(ctx, "alice", second)
	require.NoError(t, err)

	out, err := ser.Read(ctx, frame.Key{int64(2)}, frame.Key{int64(4)})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 4}, out.Columns["ts"])
	assert.Equal(t, []float64{2, 30, 4}, out.Columns["value"])
}

func TestReadEmptySeries(t *testing.T) {
	ctx := context.Background()
	ser := newTestSeries(t)
	out, err := ser.Read(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestWriteSlicesOversizedFrameIntoSeveralSegments(t *testing.T) {
	ctx := context.Background()
	ser := newTestSeriesWithMaxRows(t, 10)
	s := testSchema(t)

	n := 25
	ts := make([]int64, n)
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		ts[i] = int64(i)
		vals[i] = float64(i)
	}
	rev, err := ser.Write(ctx, "alice", frameOf(t, s, ts, vals))
	require.NoError(t, err)

	loaded, err := ser.cl.Load(ctx, rev)
	require.NoError(t, err)
	assert.Len(t, loaded.Payload.Entries, 3, "25 rows at a 10-row target should split into 3 segments")
	for _, e := range loaded.Payload.Entries {
		assert.LessOrEqual(t, e.Segment.Count, 10)
	}

	out, err := ser.Read(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ts, out.Columns["ts"])
	assert.Equal(t, vals, out.Columns["value"])
}

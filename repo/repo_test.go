package repo

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bertrandchenal/lakota/frame"
	"github.com/bertrandchenal/lakota/pod"
	"github.com/bertrandchenal/lakota/schema"
)

func silentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func seriesSchema(t *testing.T) *schema.Schema {
	s, err := schema.New(schema.KindSeries,
		schema.Column{Name: "ts", Type: schema.Timestamp, IsKey: true},
		schema.Column{Name: "value", Type: schema.Float64},
	)
	require.NoError(t, err)
	return s
}

func TestCreateCollectionThenLookup(t *testing.T) {
	ctx := context.Background()
	r := Open(pod.NewMemory(), nil, silentLogger())
	s := seriesSchema(t)

	_, err := r.CreateCollection(ctx, "metrics", "alice", s)
	require.NoError(t, err)

	col, err := r.Collection(ctx, "metrics")
	require.NoError(t, err)
	assert.True(t, s.Equal(col.Schema))
}

func TestCreateCollectionIsIdempotentOnSameSchema(t *testing.T) {
	ctx := context.Background()
	r := Open(pod.NewMemory(), nil, silentLogger())
	s := seriesSchema(t)

	_, err := r.CreateCollection(ctx, "metrics", "alice", s)
	require.NoError(t, err)
	_, err = r.CreateCollection(ctx, "metrics", "bob", s)
	assert.NoError(t, err)
}

func TestCreateCollectionRejectsSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	r := Open(pod.NewMemory(), nil, silentLogger())
	s := seriesSchema(t)

	_, err := r.CreateCollection(ctx, "metrics", "alice", s)
	require.NoError(t, err)

	other, err := schema.New(schema.KindKV,
		schema.Column{Name: "id", Type: schema.String, IsKey: true},
	)
	require.NoError(t, err)

	_, err = r.CreateCollection(ctx, "metrics", "bob", other)
	assert.Error(t, err)
}

func TestLsAndSearch(t *testing.T) {
	ctx := context.Background()
	r := Open(pod.NewMemory(), nil, silentLogger())
	s := seriesSchema(t)

	_, err := r.CreateCollection(ctx, "weather-temp", "alice", s)
	require.NoError(t, err)
	_, err = r.CreateCollection(ctx, "weather-humidity", "alice", s)
	require.NoError(t, err)
	_, err = r.CreateCollection(ctx, "finance", "alice", s)
	require.NoError(t, err)

	names, err := r.Ls(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"weather-temp", "weather-humidity", "finance"}, names)

	matches, err := r.Search(ctx, "weather")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"weather-temp", "weather-humidity"}, matches)
}

func TestPushReplicatesCollectionToRemotePod(t *testing.T) {
	ctx := context.Background()
	srcPod := pod.NewMemory()
	src := Open(srcPod, nil, silentLogger())
	s := seriesSchema(t)

	col, err := src.CreateCollection(ctx, "metrics", "alice", s)
	require.NoError(t, err)
	f, err := frame.New(s, map[string]interface{}{
		"ts":    []int64{1, 2, 3},
		"value": []float64{10, 20, 30},
	})
	require.NoError(t, err)
	_, err = col.Series("cpu").Write(ctx, "alice", f)
	require.NoError(t, err)

	dstPod := pod.NewMemory()
	stats, err := src.Push(ctx, "metrics", dstPod)
	require.NoError(t, err)
	assert.Greater(t, stats.Revisions, 0)

	dst := Open(dstPod, nil, silentLogger())
	remoteCol, err := dst.Collection(ctx, "metrics")
	require.NoError(t, err)
	out, err := remoteCol.Series("cpu").Read(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, out.Columns["ts"])
	assert.Equal(t, []float64{10, 20, 30}, out.Columns["value"])
}

func TestPullReplicatesCollectionFromRemotePod(t *testing.T) {
	ctx := context.Background()
	remotePod := pod.NewMemory()
	remote := Open(remotePod, nil, silentLogger())
	s := seriesSchema(t)

	col, err := remote.CreateCollection(ctx, "metrics", "alice", s)
	require.NoError(t, err)
	f, err := frame.New(s, map[string]interface{}{
		"ts":    []int64{1, 2},
		"value": []float64{5, 6},
	})
	require.NoError(t, err)
	_, err = col.Series("cpu").Write(ctx, "alice", f)
	require.NoError(t, err)

	localPod := pod.NewMemory()
	local := Open(localPod, nil, silentLogger())
	stats, err := local.Pull(ctx, "metrics", remotePod)
	require.NoError(t, err)
	assert.Greater(t, stats.Revisions, 0)

	localCol, err := local.Collection(ctx, "metrics")
	require.NoError(t, err)
	out, err := localCol.Series("cpu").Read(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, out.Columns["ts"])
}

func TestPushAsReplicatesCollectionUnderADifferentRemoteName(t *testing.T) {
	ctx := context.Background()
	srcPod := pod.NewMemory()
	src := Open(srcPod, nil, silentLogger())
	s := seriesSchema(t)

	col, err := src.CreateCollection(ctx, "rainfall", "alice", s)
	require.NoError(t, err)
	f, err := frame.New(s, map[string]interface{}{
		"ts":    []int64{1, 2},
		"value": []float64{3, 4},
	})
	require.NoError(t, err)
	_, err = col.Series("station-1").Write(ctx, "alice", f)
	require.NoError(t, err)

	dstPod := pod.NewMemory()
	stats, err := src.PushAs(ctx, "rainfall", "precipitation", dstPod)
	require.NoError(t, err)
	assert.Greater(t, stats.Revisions, 0)

	dst := Open(dstPod, nil, silentLogger())
	_, err = dst.Collection(ctx, "rainfall")
	assert.Error(t, err, "the source name must not exist on the destination")

	remoteCol, err := dst.Collection(ctx, "precipitation")
	require.NoError(t, err)
	out, err := remoteCol.Series("station-1").Read(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, out.Columns["ts"])
	assert.Equal(t, []float64{3, 4}, out.Columns["value"])
}

func TestPullAsReplicatesCollectionUnderADifferentLocalName(t *testing.T) {
	ctx := context.Background()
	remotePod := pod.NewMemory()
	remote := Open(remotePod, nil, silentLogger())
	s := seriesSchema(t)

	col, err := remote.CreateCollection(ctx, "rainfall", "alice", s)
	require.NoError(t, err)
	f, err := frame.New(s, map[string]interface{}{
		"ts":    []int64{5, 6},
		"value": []float64{7, 8},
	})
	require.NoError(t, err)
	_, err = col.Series("station-2").Write(ctx, "alice", f)
	require.NoError(t, err)

	localPod := pod.NewMemory()
	local := Open(localPod, nil, silentLogger())
	stats, err := local.PullAs(ctx, "precipitation", "rainfall", remotePod)
	require.NoError(t, err)
	assert.Greater(t, stats.Revisions, 0)

	localCol, err := local.Collection(ctx, "precipitation")
	require.NoError(t, err)
	out, err := localCol.Series("station-2").Read(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, out.Columns["ts"])
}

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

type countingSource struct {
	svc     *model.Service
	err     error
	calls   int
	onFetch func() // runs after the row is read, before it is returned
}

func (c *countingSource) GetByID(_ context.Context, _ uint64) (*model.Service, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	out := c.svc.Clone()
	if c.onFetch != nil {
		c.onFetch()
	}
	return out, nil
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestServices_ReadThroughAndInvalidate(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{svc: &model.Service{ID: 7, OwnerID: 1, Name: "Breathwork", Subtype: model.SubtypeSession}}
	svcs := NewServices(src, New(newRedis(t), time.Minute, "test"), nil)

	got, err := svcs.GetService(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Breathwork", got.Name)

	_, err = svcs.GetService(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "second read should be served from cache")

	src.svc.Name = "Breathwork II"
	require.NoError(t, svcs.Invalidate(ctx, ServiceKey(7)))

	got, err = svcs.GetService(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Breathwork II", got.Name)
	assert.Equal(t, 2, src.calls)
}

func TestServices_NilRedisFallsThrough(t *testing.T) {
	src := &countingSource{svc: &model.Service{ID: 1}}
	svcs := NewServices(src, New(nil, 0, ""), nil)

	for i := 0; i < 3; i++ {
		_, err := svcs.GetService(context.Background(), 1)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, src.calls)
	assert.NoError(t, svcs.Invalidate(context.Background(), ServiceKey(1)))
}

func TestServices_SourceErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	svcs := NewServices(&countingSource{err: boom}, New(newRedis(t), time.Minute, ""), nil)

	_, err := svcs.GetService(context.Background(), 9)
	assert.ErrorIs(t, err, boom)
}

func TestStore_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	rdb := newRedis(t)
	require.NoError(t, rdb.Set(ctx, "p:"+ServiceKey(3), "{not json", 0).Err())

	var out model.Service
	hit, err := New(rdb, time.Minute, "p").GetJSON(ctx, ServiceKey(3), &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(0), rdb.Exists(ctx, "p:"+ServiceKey(3)).Val())
}

func TestServices_InvalidateDuringFetchSkipsStaleWrite(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{svc: &model.Service{ID: 7, OwnerID: 1, Name: "Before", Subtype: model.SubtypeSession}}
	svcs := NewServices(src, New(newRedis(t), time.Minute, "test"), nil)

	// A patch commits and invalidates while the old row is in flight.
	src.onFetch = func() {
		src.svc.Name = "After"
		require.NoError(t, svcs.Invalidate(ctx, ServiceKey(7)))
	}
	got, err := svcs.GetService(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Before", got.Name)

	src.onFetch = nil
	got, err = svcs.GetService(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name, "stale row must not be cached")
	assert.Equal(t, 2, src.calls)

	_, err = svcs.GetService(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "fresh row is cached")
}

func TestStore_Generation(t *testing.T) {
	ctx := context.Background()
	st := New(newRedis(t), time.Minute, "test")

	gen, err := st.Generation(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, st.Invalidate(ctx, "k"))
	ok, err := st.SetJSONAt(ctx, "k", gen, map[string]int{"v": 1})
	require.NoError(t, err)
	assert.False(t, ok)

	gen, err = st.Generation(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	ok, err = st.SetJSONAt(ctx, "k", gen, map[string]int{"v": 2})
	require.NoError(t, err)
	assert.True(t, ok)

	var out map[string]int
	hit, err := st.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, out["v"])
}

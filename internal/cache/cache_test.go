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
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "following:ids:7", FollowingIDsKey(7))
	assert.Equal(t, "ws:ticket:abc", WSTicketKey("abc"))
	assert.Equal(t, "notifications:user:3", UserChannel(3))
}

func TestAside_LoadsOnceThenHits(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) ([]uint, error) {
		calls++
		return []uint{2, 3}, nil
	}

	got, err := Aside(ctx, "following", FollowingIDsKey(1), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 3}, got)

	got, err = Aside(ctx, "following", FollowingIDsKey(1), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 3}, got)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists(FollowingIDsKey(1)))

	InvalidateFollowing(ctx, 1)
	assert.False(t, mr.Exists(FollowingIDsKey(1)))

	_, err = Aside(ctx, "following", FollowingIDsKey(1), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestAside_LoadErrorNotCached(t *testing.T) {
	mr := setupMiniredis(t)
	boom := errors.New("boom")

	_, err := Aside(context.Background(), "following", FollowingIDsKey(9), time.Minute,
		func(context.Context) ([]uint, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(FollowingIDsKey(9)))
}

func TestAside_NoClientFallsThrough(t *testing.T) {
	SetClient(nil)
	got, err := Aside(context.Background(), "following", FollowingIDsKey(1), time.Minute,
		func(context.Context) ([]uint, error) { return []uint{5}, nil })
	require.NoError(t, err)
	assert.Equal(t, []uint{5}, got)
}

func TestGetJSON_RedisDownDegrades(t *testing.T) {
	mr := setupMiniredis(t)
	mr.Close()

	var out []uint
	assert.False(t, GetJSON(context.Background(), FollowingIDsKey(1), &out))
}

func TestNewClient_ParsesURL(t *testing.T) {
	c, err := NewClient("redis://localhost:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)

	_, err = NewClient("redis://%%bad")
	assert.Error(t, err)
}

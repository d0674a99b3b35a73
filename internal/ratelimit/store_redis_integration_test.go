//go:build integration

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arrears/internal/ratelimit"
	"arrears/pkg/testutil/containers"
)

func TestRedisStore_SlidingWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	store := ratelimit.NewRedis(rc.Client)
	ctx := context.Background()
	key := "caller-" + uuid.NewString()

	for i := 0; i < 3; i++ {
		res, err := store.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := store.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)

	ttl, err := rc.Client.PTTL(ctx, "ratelimit:"+key).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)
}

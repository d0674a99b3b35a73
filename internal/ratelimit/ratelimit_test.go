package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arrears/pkg/testutil"
)

func TestInMemory_SlidingWindow(t *testing.T) {
	now := time.Date(2022, 9, 9, 12, 0, 0, 0, time.UTC)
	store := NewInMemory(WithClock(func() time.Time { return now }))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := store.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
		now = now.Add(10 * time.Second)
	}

	res, err := store.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 30, res.RetryAfter)

	res, err = store.Allow(ctx, "other", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "keys are independent")

	now = now.Add(31 * time.Second)
	res, err = store.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "oldest request left the window")
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (*Result, error) {
	return nil, errors.New("redis down")
}

func TestMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("limits per subject", func(t *testing.T) {
		h := NewMiddleware(NewInMemory(), 2, time.Minute, logger).Handler(ok)

		for n := 0; n < 2; n++ {
			rr := testutil.DoRequest(h, testutil.WithSubject(testutil.NewRequest(t, http.MethodGet, "/"), "alice"))
			testutil.AssertStatus(t, rr, http.StatusNoContent)
		}

		rr := testutil.DoRequest(h, testutil.WithSubject(testutil.NewRequest(t, http.MethodGet, "/"), "alice"))
		testutil.AssertStatusAndError(t, rr, http.StatusTooManyRequests, "rate_limit_exceeded")
		assert.NotEmpty(t, rr.Header().Get("Retry-After"))
		assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

		rr = testutil.DoRequest(h, testutil.WithSubject(testutil.NewRequest(t, http.MethodGet, "/"), "bob"))
		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})

	t.Run("fails open on store errors", func(t *testing.T) {
		h := NewMiddleware(failingStore{}, 1, time.Minute, logger).Handler(ok)
		rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/"))
		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})
}

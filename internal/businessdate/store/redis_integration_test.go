//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"arrears/internal/businessdate/store"
	"arrears/pkg/platform/sentinel"
	"arrears/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.Redis
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestUnsetDateIsNotFound() {
	_, err := s.store.Get(context.Background())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestSetAndGet() {
	ctx := context.Background()
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Set(ctx, date))

	got, err := s.store.Get(ctx)
	s.Require().NoError(err)
	s.True(date.Equal(got))

	raw, err := s.redis.Client.Get(ctx, store.CurrentKey).Result()
	s.Require().NoError(err)
	s.Equal("2026-03-15", raw)
}

func (s *RedisStoreSuite) TestSharedBetweenInstances() {
	ctx := context.Background()
	other := store.NewRedis(s.redis.Client)
	date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(other.Set(ctx, date))

	got, err := s.store.Get(ctx)
	s.Require().NoError(err)
	s.True(date.Equal(got))
}

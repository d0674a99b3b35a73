package service

import (
	"context"
	"sync"
	"time"

	id "arrears/pkg/domain"
	dErrors "arrears/pkg/domain-errors"
)

// TimelineTx serializes validate-then-append per loan. Implementations may
// lock a database row or, in memory, a mutex shard.
type TimelineTx interface {
	RunInTx(ctx context.Context, loanID id.LoanID, fn func(ctx context.Context) error) error
}

// numTimelineShards spreads loans over independent locks.
const numTimelineShards = 128

// defaultTimelineTxTimeout bounds how long a caller waits for its loan's lock.
const defaultTimelineTxTimeout = 5 * time.Second

// shardedTimelineTx serializes callers whose loan ids hash to the same shard.
type shardedTimelineTx struct {
	shards  [numTimelineShards]sync.Mutex
	timeout time.Duration
}

// NewShardedTx returns the in-memory TimelineTx.
func NewShardedTx() TimelineTx {
	return &shardedTimelineTx{}
}

func (t *shardedTimelineTx) RunInTx(ctx context.Context, loanID id.LoanID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTimelineTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := &t.shards[hashLoanID(loanID)%numTimelineShards]
	shard.Lock()
	defer shard.Unlock()

	// check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

// hashLoanID is FNV-1a over the id bytes.
func hashLoanID(loanID id.LoanID) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for _, b := range loanID {
		h ^= uint32(b)
		h *= fnvPrime
	}
	return h
}

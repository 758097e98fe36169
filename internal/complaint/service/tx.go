package service

import (
	"context"
	"sync"
	"time"

	dErrors "complaintdesk/pkg/domain-errors"
)

// shardedStoreTx serializes submissions without a database. Operations are
// distributed across N shards based on a hash of the identity key, so
// concurrent submissions for the same (productID, complainant) pair are
// serialized while unrelated pairs proceed in parallel.
const numStoreShards = 128

// defaultStoreTxTimeout is the maximum duration for one transactional attempt.
const defaultStoreTxTimeout = 5 * time.Second

type shardedStoreTx struct {
	shards  [numStoreShards]sync.Mutex
	timeout time.Duration
}

// NewInMemoryStoreTx returns the StoreTx used with the in-memory store.
func NewInMemoryStoreTx() StoreTx {
	return &shardedStoreTx{}
}

func (t *shardedStoreTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultStoreTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := t.selectShard(ctx)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

// selectShard picks a shard based on the identity key from context, or
// defaults to shard 0 for operations without one.
func (t *shardedStoreTx) selectShard(ctx context.Context) int {
	if key, ok := ctx.Value(txIdentityKeyCtx).(string); ok && key != "" {
		return int(hashIdentityKey(key) % numStoreShards)
	}
	return 0
}

// hashIdentityKey uses FNV-1a for good distribution across shards.
func hashIdentityKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

type txIdentityKey struct{}

var txIdentityKeyCtx = txIdentityKey{}

func withIdentityKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, txIdentityKeyCtx, key)
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"frontdesk/internal/claim/models"
	dErrors "frontdesk/pkg/domain-errors"
	txcontext "frontdesk/pkg/platform/tx"
)

// ClaimStoreTx provides the transactional boundary for claim mutations.
// Every store call made through fn belongs to one atomic unit of work.
type ClaimStoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// numClaimShards spreads keys over independent locks; callers racing for the
// same (member, purpose) serialize, everyone else proceeds in parallel.
const numClaimShards = 128

// defaultClaimTxTimeout bounds how long a transaction may wait for its lock.
const defaultClaimTxTimeout = 5 * time.Second

// shardedClaimTx serializes work per key with sharded mutexes. A context
// marked with withAllShards takes every shard in index order.
type shardedClaimTx struct {
	shards  [numClaimShards]sync.Mutex
	store   Store
	timeout time.Duration
}

// NewShardedTx wraps an in-process store.
func NewShardedTx(store Store, timeout time.Duration) ClaimStoreTx {
	return &shardedClaimTx{store: store, timeout: timeout}
}

func (t *shardedClaimTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	ctx, cancel := withTxTimeout(ctx, t.timeout)
	defer cancel()

	unlock, err := t.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx, t.store)
}

// lock acquires the shard(s) for ctx. Acquisition gives up when ctx expires.
func (t *shardedClaimTx) lock(ctx context.Context) (func(), error) {
	var shards []int
	if lockAll(ctx) {
		shards = make([]int, numClaimShards)
		for i := range shards {
			shards[i] = i
		}
	} else {
		shards = []int{t.selectShard(ctx)}
	}

	acquired := make(chan struct{})
	abandoned := make(chan struct{})
	go func() {
		for _, i := range shards {
			t.shards[i].Lock()
		}
		select {
		case acquired <- struct{}{}:
		case <-abandoned:
			unlockAll(&t.shards, shards)
		}
	}()

	select {
	case <-acquired:
		return func() { unlockAll(&t.shards, shards) }, nil
	case <-ctx.Done():
		close(abandoned)
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "timed out waiting for claim lock")
	}
}

func unlockAll(shards *[numClaimShards]sync.Mutex, held []int) {
	for i := len(held) - 1; i >= 0; i-- {
		shards[held[i]].Unlock()
	}
}

// selectShard picks a shard from the key in ctx, or shard 0.
func (t *shardedClaimTx) selectShard(ctx context.Context) int {
	if key, ok := ctx.Value(txKeyCtx).(models.Key); ok {
		return int(hashKey(key.String()) % numClaimShards)
	}
	return 0
}

// hashKey is FNV-1a.
func hashKey(s string) uint32 {
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

type txKeyType struct{}
type txAllShardsType struct{}

var (
	txKeyCtx       = txKeyType{}
	txAllShardsCtx = txAllShardsType{}
)

func withShardKey(ctx context.Context, key models.Key) context.Context {
	return context.WithValue(ctx, txKeyCtx, key)
}

func withAllShards(ctx context.Context) context.Context {
	return context.WithValue(ctx, txAllShardsCtx, true)
}

func lockAll(ctx context.Context) bool {
	all, _ := ctx.Value(txAllShardsCtx).(bool)
	return all
}

func withTxTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultClaimTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// postgresClaimTx runs fn in a READ COMMITTED transaction carried in ctx, so
// any store that reads the transaction from context (the audit store) joins
// the same commit.
type postgresClaimTx struct {
	db      *sql.DB
	store   Store
	timeout time.Duration
}

// NewPostgresTx wraps a store that reads its executor from context.
func NewPostgresTx(db *sql.DB, store Store, timeout time.Duration) ClaimStoreTx {
	return &postgresClaimTx{db: db, store: store, timeout: timeout}
}

func (t *postgresClaimTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) (err error) {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	ctx, cancel := withTxTimeout(ctx, t.timeout)
	defer cancel()

	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return translateStoreErr(err, "begin claim transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(txcontext.WithTx(ctx, tx), t.store); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "claim transaction expired before commit")
		}
		return translateStoreErr(err, "commit claim transaction")
	}
	return nil
}

package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chainwatch-io/tzindexer/proto"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	st, err := store.OpenWithDB(db)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func transferContent(source, dest string, amount, fee int64, counter string) rpc.OperationContent {
	return rpc.OperationContent{
		Kind:        "transaction",
		Source:      source,
		Destination: dest,
		Amount:      rpc.Mutez(amount),
		Fee:         rpc.Mutez(fee),
		Counter:     counter,
		Metadata: &rpc.OperationMetadata{
			OperationResult: &rpc.OperationResult{Status: "applied"},
		},
	}
}

func manageOpsBlock(ops ...rpc.OperationContent) [][]rpc.RawOperation {
	passes := make([][]rpc.RawOperation, 4)
	if len(ops) > 0 {
		passes[3] = []rpc.RawOperation{{Hash: "onhvDp1", Contents: ops}}
	}
	return passes
}

// TestControllerReorgDiscardsStaleLevelExactly covers seed scenario S5: a
// one-block reorg at the tip must revert every op the discarded block
// applied before indexing the replacement, leaving account state identical
// to what it would be had the discarded block never existed.
func TestControllerReorgDiscardsStaleLevelExactly(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	client := rpc.NewFakeClient()
	client.Constants[0] = rpc.Constants{}

	now := time.Now()
	client.PutBlock(rpc.Block{
		Header:     rpc.Header{Level: 1, Hash: "BLhash1", Predecessor: "", Protocol: "PtGRANADxyz", Timestamp: now},
		Hash:       "BLhash1",
		Operations: manageOpsBlock(),
	})
	client.PutBlock(rpc.Block{
		Header:     rpc.Header{Level: 2, Hash: "BLhash2", Predecessor: "BLhash1", Protocol: "PtGRANADxyz", Timestamp: now},
		Hash:       "BLhash2",
		Operations: manageOpsBlock(transferContent("tz1Sender", "tz1Target", 1000, 10, "1")),
	})
	client.PutBlock(rpc.Block{
		Header:     rpc.Header{Level: 3, Hash: "BLhash3A", Predecessor: "BLhash2", Protocol: "PtGRANADxyz", Timestamp: now},
		Hash:       "BLhash3A",
		Operations: manageOpsBlock(transferContent("tz1Sender", "tz1Target", 500, 5, "2")),
	})

	registry := proto.NewRegistry()
	c := NewController(client, st, registry)

	for i := 0; i < 3; i++ {
		result, err := c.tick(ctx)
		require.NoError(t, err)
		assert.Equal(t, outcomeApplied, result)
	}

	readBalance := func(addr string) int64 {
		tx := st.Begin(ctx)
		defer tx.Rollback()
		a, err := c.Cache.AccountByAddress(tx, addr)
		require.NoError(t, err)
		require.NotNil(t, a)
		return a.Balance
	}

	assert.Equal(t, int64(-1515), readBalance("tz1Sender"))
	assert.Equal(t, int64(1500), readBalance("tz1Target"))

	// the remote chain now reports a different (winning) block 3, with no
	// operations at all, superseding the one just indexed
	client.PutBlock(rpc.Block{
		Header:     rpc.Header{Level: 3, Hash: "BLhash3B", Predecessor: "BLhash2", Protocol: "PtGRANADxyz", Timestamp: now},
		Hash:       "BLhash3B",
		Operations: manageOpsBlock(),
	})
	client.PutBlock(rpc.Block{
		Header:     rpc.Header{Level: 4, Hash: "BLhash4", Predecessor: "BLhash3B", Protocol: "PtGRANADxyz", Timestamp: now},
		Hash:       "BLhash4",
		Operations: manageOpsBlock(),
	})

	result, err := c.tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, outcomeReverted, result, "mismatched predecessor at the tip must trigger a revert")
	assert.Equal(t, int64(2), c.Cache.AppState.Level)
	assert.Equal(t, "BLhash2", c.Cache.AppState.Hash)

	assert.Equal(t, int64(-1010), readBalance("tz1Sender"), "reverting level 3A must undo exactly its own transfer")
	assert.Equal(t, int64(1000), readBalance("tz1Target"))

	result, err = c.tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, outcomeApplied, result)
	assert.Equal(t, int64(3), c.Cache.AppState.Level)
	assert.Equal(t, "BLhash3B", c.Cache.AppState.Hash)

	result, err = c.tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, outcomeApplied, result)
	assert.Equal(t, int64(4), c.Cache.AppState.Level)
	assert.Equal(t, "BLhash4", c.Cache.AppState.Hash)

	assert.Equal(t, int64(-1010), readBalance("tz1Sender"), "final state must match what block 3A never having existed would produce")
	assert.Equal(t, int64(1000), readBalance("tz1Target"))
}

// TestControllerIdleWhenNoNewHeader covers the no-op tick: nothing new on
// the remote chain means the controller reports idle without mutating
// AppState.
func TestControllerIdleWhenNoNewHeader(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	client := rpc.NewFakeClient()
	client.Constants[0] = rpc.Constants{}

	registry := proto.NewRegistry()
	c := NewController(client, st, registry)

	result, err := c.tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, outcomeIdle, result)
	assert.Equal(t, int64(0), c.Cache.AppState.Level)
}

// TestControllerSeedFromStartLevelFastForwards covers SYNC_START_LEVEL:
// a fresh AppState jumps straight to the configured level instead of
// indexing from genesis.
func TestControllerSeedFromStartLevelFastForwards(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	client := rpc.NewFakeClient()
	client.Constants[0] = rpc.Constants{}

	now := time.Now()
	client.PutBlock(rpc.Block{
		Header:     rpc.Header{Level: 100, Hash: "BLhash100", Predecessor: "BLhash99", Protocol: "PtGRANADxyz", Timestamp: now},
		Hash:       "BLhash100",
		Operations: manageOpsBlock(),
	})

	registry := proto.NewRegistry()
	c := NewController(client, st, registry)
	c.StartLevel = 100

	result, err := c.tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, outcomeApplied, result)
	assert.Equal(t, int64(100), c.Cache.AppState.Level)
	assert.Equal(t, "BLhash100", c.Cache.AppState.Hash)
}

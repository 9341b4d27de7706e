package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chainwatch-io/tzindexer/cache"
	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/store"
)

// newTestEnv opens a fresh in-memory sqlite-backed store, begins one
// transaction and wires a cache with a seeded AppState — the harness every
// apply/revert identity test in this package shares.
func newTestEnv(t *testing.T) (*store.Tx, *cache.Cache, *model.Block) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	st, err := store.OpenWithDB(db)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	tx := st.Begin(context.Background())
	t.Cleanup(func() { tx.Rollback() })

	c := cache.New()
	_, err = c.LoadAppState(tx)
	require.NoError(t, err)

	blk, err := model.NewBlock(1, "BLhash1", nil)
	require.NoError(t, err)
	blk.Cycle = 0

	return tx, c, blk
}

func testParams() *model.ProtocolConstants {
	return &model.ProtocolConstants{
		CostPerByte:              1,
		OriginationBurn:          0,
		PreservedCycles:          5,
		SupermajorityNumerator:   8,
		SupermajorityDenominator: 10,
		BallotQuorumMinPercent:   2000,
		BallotQuorumMaxPercent:   7000,
	}
}

func mustCreateAccount(t *testing.T, c *cache.Cache, addr string, balance int64) *model.Account {
	t.Helper()
	id := c.AppState.NextAcctID()
	a := model.NewUser(id, addr, 1)
	a.Balance = balance
	a.IsFunded = balance > 0
	c.PutAccount(a)
	return a
}

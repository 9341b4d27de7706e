package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlockSeedsFromParent(t *testing.T) {
	parent, err := NewBlock(10, "BLparent", nil)
	require.NoError(t, err)
	parent.RowId = 10

	child, err := NewBlock(11, "BLchild", parent)
	require.NoError(t, err)

	assert.Equal(t, int64(11), child.Level)
	assert.Equal(t, "BLchild", child.Hash)
	assert.Same(t, parent, child.Parent)
	assert.Equal(t, int64(11), child.RowId)
}

func TestNewBlockRejectsNegativeLevel(t *testing.T) {
	_, err := NewBlock(-1, "BLbad", nil)
	assert.Error(t, err)
}

func TestBlockUpdateAggregatesFeesAndRewards(t *testing.T) {
	blk, err := NewBlock(1, "BLhash", nil)
	require.NoError(t, err)

	blk.Ops = []*Op{
		{Type: OpTypeBake, Reward: 1000, Deposit: 500},
		{Type: OpTypeTransaction, BakerFee: 10},
		{Type: OpTypeDelegation, BakerFee: 5},
		{Type: OpTypeEndorsement, BakerFee: 999}, // not a fee-bearing kind per Update's switch
	}
	blk.Update()

	assert.Equal(t, int64(1000), blk.Reward)
	assert.Equal(t, int64(500), blk.Deposit)
	assert.Equal(t, int64(15), blk.Fees)
}

func TestBlockNextNFollowsLastAppendedOp(t *testing.T) {
	blk, err := NewBlock(1, "BLhash", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, blk.NextN())

	blk.Ops = append(blk.Ops, &Op{OpN: 0})
	blk.Ops = append(blk.Ops, &Op{OpN: 1})
	assert.Equal(t, 2, blk.NextN())
}

func TestAppStateIDAllocationAndUndo(t *testing.T) {
	s := &AppState{}

	id1 := s.NextOpID()
	id2 := s.NextOpID()
	assert.Equal(t, OpID(1), id1)
	assert.Equal(t, OpID(2), id2)

	s.UndoOpID(id2)
	assert.Equal(t, OpID(1), s.NextOperationId)

	// undoing a non-last id must not roll the counter back
	s.UndoOpID(id1)
	assert.Equal(t, OpID(1), s.NextOperationId)
}

func TestAccountPromoteAndDemoteDelegate(t *testing.T) {
	a := NewUser(1, "tz1User", 5)
	a.Balance = 2000

	a.PromoteToDelegate(100)
	assert.True(t, a.IsDelegate())
	assert.Equal(t, int64(100), a.ActiveSince)
	assert.Equal(t, int64(2000), a.StakingBalance)
	assert.Equal(t, AccountID(1), a.DelegateId)

	a.DemoteFromDelegate()
	assert.False(t, a.IsDelegate())
	assert.Equal(t, int64(0), a.ActiveSince)
	assert.Equal(t, int64(0), a.StakingBalance)
}

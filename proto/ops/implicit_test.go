package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
)

// TestAppendImplicitEventsCreditsBakerDepositAndReward covers a pre-Ithaca
// block: the baker's frozen deposit and frozen reward both come from the
// same balance_updates list, folded into one Bake op, and Revert gives both
// back exactly.
func TestAppendImplicitEventsCreditsBakerDepositAndReward(t *testing.T) {
	tx, c, blk := newTestEnv(t)
	baker := mustCreateAccount(t, c, "tz1Baker", 0)

	updates := []rpc.BalanceUpdate{
		{Kind: "freezer", Category: "deposits", Delegate: "tz1Baker", Change: "512000000"},
		{Kind: "freezer", Category: "rewards", Delegate: "tz1Baker", Change: "16000000"},
	}

	env := &Env{Tx: tx, Cache: c, Block: blk}
	ops, err := AppendImplicitEvents(context.Background(), env, updates, "tz1Baker", "", 0)
	require.NoError(t, err)
	require.Len(t, ops, 1)

	op := ops[0]
	assert.Equal(t, model.OpTypeBake, op.Type)
	assert.Equal(t, baker.RowId, op.SenderId)
	assert.Equal(t, int64(16000000), op.Reward)
	assert.Equal(t, int64(512000000), op.Deposit)
	assert.Equal(t, int64(512000000), baker.FrozenDeposit)
	assert.Equal(t, int64(16000000), baker.FrozenReward)

	require.NoError(t, (ImplicitEventCommit{}).Revert(context.Background(), env, op))
	assert.Equal(t, int64(0), baker.FrozenDeposit)
	assert.Equal(t, int64(0), baker.FrozenReward)
}

// TestAppendImplicitEventsSplitsBakerAndProposer covers Ithaca+: the baker
// and a distinct proposer each get their own op from one balance_updates
// list, the proposer's direct balance credit (the bonus) included.
func TestAppendImplicitEventsSplitsBakerAndProposer(t *testing.T) {
	tx, c, blk := newTestEnv(t)
	baker := mustCreateAccount(t, c, "tz1Baker", 0)
	proposer := mustCreateAccount(t, c, "tz1Proposer", 0)

	updates := []rpc.BalanceUpdate{
		{Kind: "freezer", Category: "deposits", Delegate: "tz1Baker", Change: "256000000"},
		{Kind: "contract", Contract: "tz1Proposer", Change: "2500000"},
	}

	env := &Env{Tx: tx, Cache: c, Block: blk}
	ops, err := AppendImplicitEvents(context.Background(), env, updates, "tz1Baker", "tz1Proposer", 0)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	assert.Equal(t, model.OpTypeBake, ops[0].Type)
	assert.Equal(t, model.OpTypeBonus, ops[1].Type)
	assert.Equal(t, int64(256000000), baker.FrozenDeposit)
	assert.Equal(t, int64(2500000), proposer.Balance)
	assert.True(t, proposer.IsFunded)

	for _, op := range ops {
		require.NoError(t, (ImplicitEventCommit{}).Revert(context.Background(), env, op))
	}
	assert.Equal(t, int64(0), baker.FrozenDeposit)
	assert.Equal(t, int64(0), proposer.Balance)
	assert.False(t, proposer.IsFunded)
}

// TestAppendImplicitEventsIgnoresOtherDelegates ensures an endorsement-reward
// entry for a delegate that is neither the baker nor the proposer is left
// alone — that credit already happens per-operation in EndorsementCommit /
// IthacaEndorsementCommit, so classifying it here too would double-count it.
func TestAppendImplicitEventsIgnoresOtherDelegates(t *testing.T) {
	tx, c, blk := newTestEnv(t)
	mustCreateAccount(t, c, "tz1Baker", 0)
	other := mustCreateAccount(t, c, "tz1OtherDelegate", 0)

	updates := []rpc.BalanceUpdate{
		{Kind: "freezer", Category: "rewards", Delegate: "tz1OtherDelegate", Change: "1000000"},
	}

	env := &Env{Tx: tx, Cache: c, Block: blk}
	ops, err := AppendImplicitEvents(context.Background(), env, updates, "tz1Baker", "", 0)
	require.NoError(t, err)
	assert.Empty(t, ops)
	assert.Equal(t, int64(0), other.FrozenReward)
}

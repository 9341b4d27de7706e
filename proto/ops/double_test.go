package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
)

// TestDoubleBakingSlashApplyRevertIdentity covers seed scenario S6: the
// offender's entire frozen deposit/reward/fees are wiped, half the deposit
// is credited to the accusing baker, and Revert restores both accounts
// exactly.
func TestDoubleBakingSlashApplyRevertIdentity(t *testing.T) {
	tx, c, blk := newTestEnv(t)
	params := testParams()
	ctx := context.Background()

	offender := mustCreateAccount(t, c, "tz1Offender", 0)
	offender.FrozenDeposit = 10_000
	offender.FrozenReward = 500
	offender.FrozenFees = 20
	c.PutAccount(offender)

	accuser := mustCreateAccount(t, c, "tz1Accuser", 0)
	c.PutAccount(accuser)
	blk.BakerId = accuser.RowId

	offenderDepositBefore := offender.FrozenDeposit
	offenderRewardBefore := offender.FrozenReward
	offenderFeesBefore := offender.FrozenFees
	accuserRewardBefore := accuser.FrozenReward

	env := &Env{Tx: tx, Cache: c, Block: blk, Params: params}
	content := rpc.OperationContent{
		Kind: "double_baking_evidence",
		Metadata: &rpc.OperationMetadata{
			BalanceUpdates: []rpc.BalanceUpdate{
				{Kind: "freezer", Category: "deposits", Delegate: "tz1Offender", Change: "-10000"},
			},
		},
	}

	op, err := DoubleBakingCommit{}.Apply(ctx, env, model.OpRef{Kind: model.OpTypeDoubleBaking}, content)
	require.NoError(t, err)

	assert.Equal(t, int64(0), offender.FrozenDeposit)
	assert.Equal(t, int64(0), offender.FrozenReward)
	assert.Equal(t, int64(0), offender.FrozenFees)
	assert.Equal(t, accuserRewardBefore+5000, accuser.FrozenReward)
	assert.Equal(t, offenderDepositBefore, op.Deposit)

	require.NoError(t, DoubleBakingCommit{}.Revert(ctx, env, op))

	assert.Equal(t, offenderDepositBefore, offender.FrozenDeposit)
	assert.Equal(t, offenderRewardBefore, offender.FrozenReward)
	assert.Equal(t, offenderFeesBefore, offender.FrozenFees)
	assert.Equal(t, accuserRewardBefore, accuser.FrozenReward)
}

func TestDoubleBakingMissingEvidenceIsValidationError(t *testing.T) {
	tx, c, blk := newTestEnv(t)
	params := testParams()
	env := &Env{Tx: tx, Cache: c, Block: blk, Params: params}

	content := rpc.OperationContent{Kind: "double_baking_evidence"}
	_, err := DoubleBakingCommit{}.Apply(context.Background(), env, model.OpRef{Kind: model.OpTypeDoubleBaking}, content)
	assert.Error(t, err)
}

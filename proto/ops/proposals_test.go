package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/store"
)

func seedVotingPeriod(t *testing.T, tx *store.Tx, c *model.VotingPeriod) {
	t.Helper()
	require.NoError(t, store.Create(tx, c))
}

func seedSnapshot(t *testing.T, tx *store.Tx, s *model.VotingSnapshot) {
	t.Helper()
	require.NoError(t, store.Create(tx, s))
}

// TestProposalsDuplicateUpvoteIgnored covers seed scenario S4: the same
// baker upvoting the same hash twice in the same period must not double the
// proposal's rolls/upvotes tally, and each op's Revert must undo only what
// that specific op actually recorded.
func TestProposalsDuplicateUpvoteIgnored(t *testing.T) {
	tx, c, blk := newTestEnv(t)
	params := testParams()
	ctx := context.Background()
	env := &Env{Tx: tx, Cache: c, Block: blk, Params: params}

	period := &model.VotingPeriod{Index: 1, Epoch: 1, Kind: model.VotingPeriodProposal}
	seedVotingPeriod(t, tx, period)

	baker := mustCreateAccount(t, c, "tz1Baker", 0)
	seedSnapshot(t, tx, &model.VotingSnapshot{Period: period.Index, BakerId: baker.RowId, Rolls: 100})

	content := rpc.OperationContent{
		Kind:      "proposals",
		Source:    "tz1Baker",
		Period:    period.Index,
		Proposals: []string{"PsHashOne"},
	}

	op1, err := ProposalsCommit{}.Apply(ctx, env, model.OpRef{Kind: model.OpTypeProposal}, content)
	require.NoError(t, err)

	reloaded, err := c.PeriodByIndex(tx, period.Index)
	require.NoError(t, err)
	assert.Equal(t, int64(100), reloaded.TopRolls)
	assert.Equal(t, int64(1), reloaded.TopUpvotes)

	// second upvote of the same hash by the same baker: duplicate, no change
	op2, err := ProposalsCommit{}.Apply(ctx, env, model.OpRef{Kind: model.OpTypeProposal}, content)
	require.NoError(t, err)

	reloaded, err = c.PeriodByIndex(tx, period.Index)
	require.NoError(t, err)
	assert.Equal(t, int64(100), reloaded.TopRolls, "duplicate upvote must not double-count rolls")
	assert.Equal(t, int64(1), reloaded.TopUpvotes)

	proposal, err := c.ProposalByHash(tx, period.Epoch, "PsHashOne")
	require.NoError(t, err)
	require.NotNil(t, proposal)
	assert.Equal(t, int64(1), proposal.Upvotes)
	assert.Equal(t, int64(100), proposal.Rolls)

	// reverting the duplicate op (op2) must be a no-op on the tally
	require.NoError(t, ProposalsCommit{}.Revert(ctx, env, op2))
	proposal, err = c.ProposalByHash(tx, period.Epoch, "PsHashOne")
	require.NoError(t, err)
	assert.Equal(t, int64(1), proposal.Upvotes)

	// reverting the original op (op1) removes the actual upvote
	require.NoError(t, ProposalsCommit{}.Revert(ctx, env, op1))
	proposal, err = c.ProposalByHash(tx, period.Epoch, "PsHashOne")
	require.NoError(t, err)
	assert.Equal(t, int64(0), proposal.Upvotes)
	assert.Equal(t, int64(0), proposal.Rolls)
}

package voting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chainwatch-io/tzindexer/model"
)

func params5() *model.ProtocolConstants {
	return &model.ProtocolConstants{
		ProposalQuorumPercent:    2000,
		BallotQuorumMinPercent:   2000,
		BallotQuorumMaxPercent:   7000,
		SupermajorityNumerator:   8,
		SupermajorityDenominator: 10,
		NumVotingPeriods:         5,
	}
}

func TestProposalPeriodSkippedWithNoProposals(t *testing.T) {
	p := &model.VotingPeriod{Kind: model.VotingPeriodProposal, ProposalsCount: 0, TotalRolls: 1000}
	out := Transition(p, params5())
	assert.Equal(t, model.PeriodStatusSkipped, out.EndedStatus)
	assert.Equal(t, model.VotingPeriodProposal, out.NextKind)
	assert.True(t, out.NewEpoch)
}

func TestProposalPeriodFailsBelowQuorum(t *testing.T) {
	p := &model.VotingPeriod{
		Kind: model.VotingPeriodProposal, ProposalsCount: 1, TopRolls: 100, TotalRolls: 1000,
	}
	out := Transition(p, params5())
	assert.Equal(t, model.PeriodStatusFailed, out.EndedStatus)
	assert.Equal(t, model.VotingPeriodProposal, out.NextKind)
	assert.True(t, out.NewEpoch)
}

func TestProposalPeriodAdvancesToExploration(t *testing.T) {
	p := &model.VotingPeriod{
		Kind: model.VotingPeriodProposal, ProposalsCount: 1, TopRolls: 900, TotalRolls: 1000,
	}
	out := Transition(p, params5())
	assert.Equal(t, model.PeriodStatusToPromotion, out.EndedStatus)
	assert.Equal(t, model.VotingPeriodExploration, out.NextKind)
	assert.False(t, out.NewEpoch)
}

func TestExplorationApprovedAdvancesToCooldown(t *testing.T) {
	p := &model.VotingPeriod{
		Kind: model.VotingPeriodExploration, YayRolls: 900, NayRolls: 100, TotalRolls: 1000,
	}
	out := Transition(p, params5())
	assert.Equal(t, model.PeriodStatusToCooldown, out.EndedStatus)
	assert.Equal(t, model.VotingPeriodCooldown, out.NextKind)
	assert.False(t, out.NewEpoch)
}

func TestExplorationRejectedRestartsEpoch(t *testing.T) {
	p := &model.VotingPeriod{
		Kind: model.VotingPeriodExploration, YayRolls: 400, NayRolls: 600, TotalRolls: 1000,
	}
	out := Transition(p, params5())
	assert.Equal(t, model.PeriodStatusFailed, out.EndedStatus)
	assert.Equal(t, model.VotingPeriodProposal, out.NextKind)
	assert.True(t, out.NewEpoch)
}

func TestExplorationFailsBelowQuorumEvenWithSupermajority(t *testing.T) {
	p := &model.VotingPeriod{
		Kind: model.VotingPeriodExploration, YayRolls: 90, NayRolls: 10, TotalRolls: 1000,
	}
	out := Transition(p, params5())
	assert.Equal(t, model.PeriodStatusFailed, out.EndedStatus)
	assert.True(t, out.NewEpoch)
}

func TestCooldownAlwaysAdvancesToPromotion(t *testing.T) {
	p := &model.VotingPeriod{Kind: model.VotingPeriodCooldown}
	out := Transition(p, params5())
	assert.Equal(t, model.PeriodStatusToPromotion, out.EndedStatus)
	assert.Equal(t, model.VotingPeriodPromotion, out.NextKind)
	assert.False(t, out.NewEpoch)
}

func TestPromotionApprovedAdvancesToAdoption(t *testing.T) {
	p := &model.VotingPeriod{
		Kind: model.VotingPeriodPromotion, YayRolls: 900, NayRolls: 100, TotalRolls: 1000,
	}
	out := Transition(p, params5())
	assert.Equal(t, model.PeriodStatusToAdoption, out.EndedStatus)
	assert.Equal(t, model.VotingPeriodAdoption, out.NextKind)
	assert.False(t, out.NewEpoch)
}

func TestPromotionRejectedRestartsEpoch(t *testing.T) {
	p := &model.VotingPeriod{
		Kind: model.VotingPeriodPromotion, YayRolls: 400, NayRolls: 600, TotalRolls: 1000,
	}
	out := Transition(p, params5())
	assert.Equal(t, model.PeriodStatusFailed, out.EndedStatus)
	assert.Equal(t, model.VotingPeriodProposal, out.NextKind)
	assert.True(t, out.NewEpoch)
}

func TestAdoptionActivatesAndStartsNewEpoch(t *testing.T) {
	p := &model.VotingPeriod{Kind: model.VotingPeriodAdoption}
	out := Transition(p, params5())
	assert.Equal(t, model.PeriodStatusActivated, out.EndedStatus)
	assert.Equal(t, model.VotingPeriodProposal, out.NextKind)
	assert.True(t, out.NewEpoch)
}

func TestFourPeriodOrderingSkipsDistinctPromotionSlot(t *testing.T) {
	params := params5()
	params.NumVotingPeriods = 4
	p := &model.VotingPeriod{Kind: model.VotingPeriodCooldown}
	out := Transition(p, params)
	// under the 4-period ordering, cooldown is directly followed by adoption
	assert.Equal(t, model.VotingPeriodAdoption, out.NextKind)
}

func TestClampQuorumRespectsBounds(t *testing.T) {
	params := params5()
	p := &model.VotingPeriod{BallotQuorumPercent: 100}
	assert.Equal(t, params.BallotQuorumMinPercent, clampQuorum(p, params))

	p.BallotQuorumPercent = 9000
	assert.Equal(t, params.BallotQuorumMaxPercent, clampQuorum(p, params))

	p.BallotQuorumPercent = 5000
	assert.Equal(t, int64(5000), clampQuorum(p, params))
}

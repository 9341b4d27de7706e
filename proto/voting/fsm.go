// Package voting implements the amendment voting period state machine as an
// explicit transition function rather than conditionals scattered across
// operation handling (spec.md §9 "voting state machine" guidance). The
// function is pure: given a period's final tallies and the active
// protocol's constants, it returns the next period's kind and the status
// the just-ended period should be stamped with. Callers own persisting the
// result; outside its tests, no code in this module calls Transition.
package voting

import "github.com/chainwatch-io/tzindexer/model"

// fivePeriod and fourPeriod are the two period orderings spec.md/SPEC_FULL
// describe: post-Proto-N protocols run the full five-phase cycle; earlier
// protocols collapse Cooldown and Promotion into a single slot (the data
// model still uses the 5-value Kind enum — the fallback just never visits
// Promotion as a distinct period).
var fivePeriod = []model.VotingPeriodKind{
	model.VotingPeriodProposal,
	model.VotingPeriodExploration,
	model.VotingPeriodCooldown,
	model.VotingPeriodPromotion,
	model.VotingPeriodAdoption,
}

var fourPeriod = []model.VotingPeriodKind{
	model.VotingPeriodProposal,
	model.VotingPeriodExploration,
	model.VotingPeriodCooldown,
	model.VotingPeriodAdoption,
}

func order(params *model.ProtocolConstants) []model.VotingPeriodKind {
	if params != nil && params.NumVotingPeriods == 4 {
		return fourPeriod
	}
	return fivePeriod
}

// Outcome is what Transition decides at a period's final block: the status
// to stamp the ending period with, and the kind the next period (possibly a
// new epoch) should start as.
type Outcome struct {
	EndedStatus model.VotingPeriodStatus
	NextKind    model.VotingPeriodKind
	NewEpoch    bool
}

// Transition evaluates one period's closing tallies against quorum and
// supermajority thresholds and returns where the FSM goes next. It does not
// mutate period — callers apply Outcome to the ended period and construct
// the next one.
func Transition(period *model.VotingPeriod, params *model.ProtocolConstants) Outcome {
	seq := order(params)
	idx := indexOf(seq, period.Kind)

	switch period.Kind {
	case model.VotingPeriodProposal:
		if period.ProposalsCount == 0 || period.TopRolls == 0 {
			return Outcome{EndedStatus: model.PeriodStatusSkipped, NextKind: model.VotingPeriodProposal, NewEpoch: true}
		}
		quorumMet := participation(period) >= params.ProposalQuorumPercent
		if !quorumMet {
			return Outcome{EndedStatus: model.PeriodStatusFailed, NextKind: model.VotingPeriodProposal, NewEpoch: true}
		}
		return Outcome{EndedStatus: model.PeriodStatusToPromotion, NextKind: nextOf(seq, idx), NewEpoch: false}

	case model.VotingPeriodExploration, model.VotingPeriodPromotion:
		turnout := participation(period)
		quorumMet := turnout >= clampQuorum(period, params)
		approved := quorumMet && supermajority(period, params)
		if !approved {
			return Outcome{EndedStatus: model.PeriodStatusFailed, NextKind: model.VotingPeriodProposal, NewEpoch: true}
		}
		next := nextOf(seq, idx)
		status := model.PeriodStatusToCooldown
		if period.Kind == model.VotingPeriodPromotion {
			status = model.PeriodStatusToAdoption
		}
		return Outcome{EndedStatus: status, NextKind: next, NewEpoch: false}

	case model.VotingPeriodCooldown:
		// Cooldown never fails on its own tally — it is a cooling-off
		// window with no vote of its own — it simply advances.
		return Outcome{EndedStatus: model.PeriodStatusToPromotion, NextKind: nextOf(seq, idx), NewEpoch: false}

	case model.VotingPeriodAdoption:
		return Outcome{EndedStatus: model.PeriodStatusActivated, NextKind: model.VotingPeriodProposal, NewEpoch: true}

	default:
		return Outcome{EndedStatus: model.PeriodStatusFailed, NextKind: model.VotingPeriodProposal, NewEpoch: true}
	}
}

func indexOf(seq []model.VotingPeriodKind, k model.VotingPeriodKind) int {
	for i, v := range seq {
		if v == k {
			return i
		}
	}
	return 0
}

func nextOf(seq []model.VotingPeriodKind, idx int) model.VotingPeriodKind {
	if idx+1 >= len(seq) {
		return model.VotingPeriodProposal
	}
	return seq[idx+1]
}

// participation returns the fraction (fixed-point, denominator 10000) of
// TotalRolls that actually voted (yay+nay+pass for ballot periods, or
// topRolls for the proposal period).
func participation(period *model.VotingPeriod) int64 {
	if period.TotalRolls == 0 {
		return 0
	}
	var cast int64
	switch period.Kind {
	case model.VotingPeriodProposal:
		cast = period.TopRolls
	default:
		cast = period.YayRolls + period.NayRolls + period.PassRolls
	}
	return cast * 10000 / period.TotalRolls
}

// clampQuorum returns the BallotQuorumPercent stamped on the period (or
// QuorumMin when it is unset), bounded to [QuorumMin, QuorumMax]. It does
// not read the participation EMA.
func clampQuorum(period *model.VotingPeriod, params *model.ProtocolConstants) int64 {
	q := period.BallotQuorumPercent
	if q == 0 {
		q = params.BallotQuorumMinPercent
	}
	if q < params.BallotQuorumMinPercent {
		q = params.BallotQuorumMinPercent
	}
	if q > params.BallotQuorumMaxPercent {
		q = params.BallotQuorumMaxPercent
	}
	return q
}

// supermajority reports whether yay rolls clear the numerator/denominator
// ratio of (yay+nay) — pass rolls count toward participation/quorum but not
// toward the supermajority fraction, matching the real protocol's ballot
// rule.
func supermajority(period *model.VotingPeriod, params *model.ProtocolConstants) bool {
	decisive := period.YayRolls + period.NayRolls
	if decisive == 0 {
		return false
	}
	return period.YayRolls*params.SupermajorityDenominator >= decisive*params.SupermajorityNumerator
}

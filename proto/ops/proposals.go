package ops

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/store"
	"github.com/chainwatch-io/tzindexer/xerrors"
)

// ProposalsCommit implements spec.md §4.3's proposals handling and seed
// scenario S4 (duplicate upvote detection). A proposals op is anonymous
// (validation pass OPL_VOTING, no fee, no counter) and may name several
// hashes at once; each hash is resolved independently against the
// per-(period,baker,hash) ProposalVote junction so a repeat upvote from the
// same baker in the same period is recorded as a duplicate rather than
// double-counted. The exact set of hashes the op named is persisted to
// op.Data, since Revert needs it and nothing else on the Op row carries it.
type ProposalsCommit struct{}

func (ProposalsCommit) Kind() model.OpType { return model.OpTypeProposal }

func (ProposalsCommit) Apply(ctx context.Context, env *Env, ref model.OpRef, content rpc.OperationContent) (*model.Op, error) {
	sender, err := ensureAccount(env.Tx, env.Cache, content.Source, env.Block.Level)
	if err != nil {
		return nil, err
	}

	period, err := env.Cache.PeriodByIndex(env.Tx, content.Period)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, xerrors.Validation(xerrors.InvariantViolation, "period", env.Block.Level, ref.P, nil)
	}

	op := nextOp(env.Cache, env.Block, ref)
	op.SenderId = sender.RowId
	op.Status = model.OpStatusApplied
	op.IsSuccess = true

	hashes, err := json.Marshal(content.Proposals)
	if err != nil {
		return nil, err
	}
	op.Data = hashes

	for _, hash := range content.Proposals {
		if err := upvoteOne(env, period, sender, hash, op.RowId); err != nil {
			return nil, err
		}
	}

	sender.ProposalsCount++
	env.Cache.PutAccount(sender)
	env.Cache.PutPeriod(period)

	if err := store.Create(env.Tx, op); err != nil {
		return nil, err
	}
	return op, nil
}

// upvoteOne resolves a single proposal hash against the (period, baker,
// hash) junction: a pre-existing row means this baker already upvoted this
// hash in this period, so it is marked duplicate by simply not touching the
// aggregates again.
func upvoteOne(env *Env, period *model.VotingPeriod, sender *model.Account, hash string, opId model.OpID) error {
	existing, err := store.GetByFilter[model.ProposalVote](env.Tx, store.Where().
		Eq("period", period.Index).Eq("baker_id", sender.RowId).Eq("hash", hash))
	if err != nil {
		return err
	}
	if existing != nil {
		return nil // duplicate: already upvoted by this baker this period
	}

	snapshot, err := snapshotFor(env, period.Index, sender.RowId)
	if err != nil {
		return err
	}

	proposal, err := env.Cache.ProposalByHash(env.Tx, period.Epoch, hash)
	if err != nil {
		return err
	}
	if proposal == nil {
		id := env.Cache.AppState.NextProposalID()
		proposal = &model.Proposal{
			RowId:       id,
			Hash:        hash,
			Epoch:       period.Epoch,
			FirstPeriod: period.Index,
			LastPeriod:  period.Index,
			InitiatorId: sender.RowId,
			Status:      model.ProposalStatusActive,
		}
		period.ProposalsCount++
	}
	proposal.LastPeriod = period.Index
	proposal.Upvotes++
	proposal.Rolls += snapshot.Rolls
	if proposal.Rolls > period.TopRolls {
		period.TopRolls = proposal.Rolls
		period.TopUpvotes = proposal.Upvotes
	}
	env.Cache.PutProposal(proposal)

	if err := store.Create(env.Tx, &model.ProposalVote{
		Period: period.Index, BakerId: sender.RowId, Hash: hash, OpId: opId,
	}); err != nil {
		return err
	}

	snapshot.Status = model.SnapshotUpvoted
	return store.Save(env.Tx, snapshot)
}

// snapshotFor loads the per-baker voting snapshot taken at this period's
// first block; not cache-backed (spec.md §9's cached-entity list omits it),
// so this goes straight to the store.
func snapshotFor(env *Env, period int64, bakerId model.AccountID) (*model.VotingSnapshot, error) {
	s, err := store.GetByFilter[model.VotingSnapshot](env.Tx, store.Where().
		Eq("period", period).Eq("baker_id", bakerId))
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, xerrors.StateCorruption("voting_snapshot_exists", fmt.Sprintf("no snapshot for period %d baker %d", period, bakerId))
	}
	return s, nil
}

func (ProposalsCommit) Revert(ctx context.Context, env *Env, op *model.Op) error {
	sender, err := env.Cache.AccountByID(env.Tx, op.SenderId)
	if err != nil {
		return err
	}

	var hashes []string
	if err := json.Unmarshal(op.Data, &hashes); err != nil {
		return err
	}

	for _, hash := range hashes {
		if err := unvoteOne(env, sender, hash, op.RowId); err != nil {
			return err
		}
	}

	sender.ProposalsCount--
	env.Cache.PutAccount(sender)
	return store.Delete[model.Op](env.Tx, op.RowId)
}

// unvoteOne undoes exactly what upvoteOne did for one hash, identifying
// "did this op own the upvote" by comparing the junction row's OpId rather
// than re-deriving duplicate/non-duplicate from scratch.
func unvoteOne(env *Env, sender *model.Account, hash string, opId model.OpID) error {
	vote, err := store.GetByFilter[model.ProposalVote](env.Tx, store.Where().
		Eq("baker_id", sender.RowId).Eq("hash", hash).Eq("op_id", opId))
	if err != nil {
		return err
	}
	if vote == nil {
		return nil // this op's upvote on this hash was a duplicate; nothing to undo
	}

	period, err := env.Cache.PeriodByIndex(env.Tx, vote.Period)
	if err != nil {
		return err
	}
	if period == nil {
		return xerrors.StateCorruption("voting_period_exists", fmt.Sprintf("no period %d for reverting proposal vote", vote.Period))
	}

	snapshot, err := snapshotFor(env, period.Index, sender.RowId)
	if err != nil {
		return err
	}

	proposal, err := env.Cache.ProposalByHash(env.Tx, period.Epoch, hash)
	if err != nil {
		return err
	}
	if proposal != nil {
		proposal.Upvotes--
		proposal.Rolls -= snapshot.Rolls
		env.Cache.PutProposal(proposal)
	}

	if err := store.Delete[model.ProposalVote](env.Tx, vote.RowId); err != nil {
		return err
	}

	if period.ProposalsCount > 1 {
		if err := recomputeTop(env, period); err != nil {
			return err
		}
	} else if proposal != nil {
		period.TopRolls = proposal.Rolls
		period.TopUpvotes = proposal.Upvotes
	}

	remaining, err := store.List[model.ProposalVote](env.Tx, store.Where().
		Eq("period", period.Index).Eq("baker_id", sender.RowId))
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		snapshot.Status = model.SnapshotNone
		if err := store.Save(env.Tx, snapshot); err != nil {
			return err
		}
	}

	env.Cache.PutPeriod(period)
	return nil
}

// recomputeTop re-derives the period's top proposal by max rolls, breaking
// ties by the lowest proposal id so the result does not depend on the
// order the store returns rows in. The proposal just mutated by unvoteOne is still only
// cache-dirty at this point in the transaction, so its row is flushed to
// the store first — otherwise this would read back its pre-decrement Rolls.
func recomputeTop(env *Env, period *model.VotingPeriod) error {
	if err := store.BulkUpsert(env.Tx, env.Cache.DirtyProposals()); err != nil {
		return err
	}
	all, err := store.List[model.Proposal](env.Tx, store.Where().Eq("epoch", period.Epoch))
	if err != nil {
		return err
	}
	var topRolls, topUpvotes int64
	var topId model.ProposalID
	for i := range all {
		p := &all[i]
		if p.Rolls > topRolls || (p.Rolls == topRolls && topRolls > 0 && p.RowId < topId) {
			topRolls = p.Rolls
			topUpvotes = p.Upvotes
			topId = p.RowId
		}
	}
	period.TopRolls = topRolls
	period.TopUpvotes = topUpvotes
	return nil
}

var _ Commit = ProposalsCommit{}

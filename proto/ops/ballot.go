package ops

import (
	"context"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/store"
	"github.com/chainwatch-io/tzindexer/xerrors"
)

// BallotCommit records one baker's yay/nay/pass vote during the exploration
// or promotion phase. The cast rolls come from the same per-period snapshot
// a Proposals op would have consulted; the period's Yay/Nay/PassRolls
// aggregates are adjusted directly rather than recomputed, so Revert only
// needs to subtract what this ballot added.
type BallotCommit struct{}

func (BallotCommit) Kind() model.OpType { return model.OpTypeBallot }

func (BallotCommit) Apply(ctx context.Context, env *Env, ref model.OpRef, content rpc.OperationContent) (*model.Op, error) {
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

	snapshot, err := snapshotFor(env, period.Index, sender.RowId)
	if err != nil {
		return nil, err
	}

	kind := model.ParseBallotKind(content.Ballot)

	op := nextOp(env.Cache, env.Block, ref)
	op.SenderId = sender.RowId
	op.Status = model.OpStatusApplied
	op.IsSuccess = true
	op.Volume = snapshot.Rolls

	switch kind {
	case model.BallotYay:
		period.YayRolls += snapshot.Rolls
		snapshot.Status = model.SnapshotVotedYay
	case model.BallotNay:
		period.NayRolls += snapshot.Rolls
		snapshot.Status = model.SnapshotVotedNay
	case model.BallotPass:
		period.PassRolls += snapshot.Rolls
		snapshot.Status = model.SnapshotVotedPass
	}

	if err := store.Save(env.Tx, snapshot); err != nil {
		return nil, err
	}

	ballot := &model.Ballot{
		RowId:   op.RowId,
		Level:   env.Block.Level,
		Period:  period.Index,
		BakerId: sender.RowId,
		Kind:    kind,
		Rolls:   snapshot.Rolls,
	}
	if err := store.Create(env.Tx, ballot); err != nil {
		return nil, err
	}

	sender.BallotsCount++
	env.Cache.PutAccount(sender)
	env.Cache.PutPeriod(period)

	if err := store.Create(env.Tx, op); err != nil {
		return nil, err
	}
	return op, nil
}

func (BallotCommit) Revert(ctx context.Context, env *Env, op *model.Op) error {
	sender, err := env.Cache.AccountByID(env.Tx, op.SenderId)
	if err != nil {
		return err
	}

	ballot, err := store.Get[model.Ballot](env.Tx, op.RowId)
	if err != nil {
		return err
	}
	if ballot == nil {
		return xerrors.StateCorruption("ballot_exists_for_op", "no ballot row for reverted ballot op")
	}

	period, err := env.Cache.PeriodByIndex(env.Tx, ballot.Period)
	if err != nil {
		return err
	}
	if period != nil {
		switch ballot.Kind {
		case model.BallotYay:
			period.YayRolls -= ballot.Rolls
		case model.BallotNay:
			period.NayRolls -= ballot.Rolls
		case model.BallotPass:
			period.PassRolls -= ballot.Rolls
		}
		env.Cache.PutPeriod(period)
	}

	snapshot, err := snapshotFor(env, ballot.Period, sender.RowId)
	if err == nil && snapshot != nil {
		snapshot.Status = model.SnapshotNone
		if err := store.Save(env.Tx, snapshot); err != nil {
			return err
		}
	}

	if err := store.Delete[model.Ballot](env.Tx, ballot.RowId); err != nil {
		return err
	}

	sender.BallotsCount--
	env.Cache.PutAccount(sender)
	return store.Delete[model.Op](env.Tx, op.RowId)
}

var _ Commit = BallotCommit{}

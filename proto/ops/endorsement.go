package ops

import (
	"context"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/store"
	"github.com/chainwatch-io/tzindexer/xerrors"
)

// EndorsementCommit credits an endorser's frozen reward in proportion to the
// number of slots it held at this level. Endorsement deposits are frozen
// and released at cycle granularity (proto/cycle), not per operation, so
// this Commit only ever touches FrozenReward.
type EndorsementCommit struct{}

func (EndorsementCommit) Kind() model.OpType { return model.OpTypeEndorsement }

func (EndorsementCommit) Apply(ctx context.Context, env *Env, ref model.OpRef, content rpc.OperationContent) (*model.Op, error) {
	var addr string
	var slots int
	if content.Metadata != nil {
		addr = content.Metadata.Delegate
		slots = len(content.Metadata.Slots)
	}
	if addr == "" {
		return nil, xerrors.Validation(xerrors.MissingField, "metadata.delegate", env.Block.Level, ref.P, nil)
	}
	if slots == 0 {
		slots = 1
	}

	endorser, err := ensureAccount(env.Tx, env.Cache, addr, env.Block.Level)
	if err != nil {
		return nil, err
	}

	reward := env.Params.EndorsementReward * int64(slots)

	op := nextOp(env.Cache, env.Block, ref)
	op.SenderId = endorser.RowId
	op.Status = model.OpStatusApplied
	op.IsSuccess = true
	op.Reward = reward
	op.StorageLimit = int64(slots) // slot count, reusing an otherwise-unused numeric column

	endorser.FrozenReward += reward
	env.Cache.PutAccount(endorser)

	if err := store.Create(env.Tx, op); err != nil {
		return nil, err
	}
	return op, nil
}

func (EndorsementCommit) Revert(ctx context.Context, env *Env, op *model.Op) error {
	endorser, err := env.Cache.AccountByID(env.Tx, op.SenderId)
	if err != nil {
		return err
	}
	if endorser != nil {
		endorser.FrozenReward -= op.Reward
		env.Cache.PutAccount(endorser)
	}
	return store.Delete[model.Op](env.Tx, op.RowId)
}

var _ Commit = EndorsementCommit{}

// IthacaEndorsementCommit is protoIthaca's override of endorsement reward
// handling: Ithaca removed the deposit-freeze mechanism for endorsing in
// favor of a direct mint-and-payout, so this credits Balance immediately
// instead of FrozenReward (spec.md §9 "protocol-specific override" via
// registry table substitution, not a conditional inside one Commit).
type IthacaEndorsementCommit struct{}

func (IthacaEndorsementCommit) Kind() model.OpType { return model.OpTypeEndorsement }

func (IthacaEndorsementCommit) Apply(ctx context.Context, env *Env, ref model.OpRef, content rpc.OperationContent) (*model.Op, error) {
	var addr string
	var slots int
	if content.Metadata != nil {
		addr = content.Metadata.Delegate
		slots = len(content.Metadata.Slots)
	}
	if addr == "" {
		return nil, xerrors.Validation(xerrors.MissingField, "metadata.delegate", env.Block.Level, ref.P, nil)
	}
	if slots == 0 {
		slots = 1
	}

	endorser, err := ensureAccount(env.Tx, env.Cache, addr, env.Block.Level)
	if err != nil {
		return nil, err
	}

	reward := env.Params.EndorsementReward * int64(slots)

	op := nextOp(env.Cache, env.Block, ref)
	op.SenderId = endorser.RowId
	op.Status = model.OpStatusApplied
	op.IsSuccess = true
	op.Reward = reward
	op.StorageLimit = int64(slots)

	endorser.Balance += reward
	env.Cache.PutAccount(endorser)

	if err := store.Create(env.Tx, op); err != nil {
		return nil, err
	}
	return op, nil
}

func (IthacaEndorsementCommit) Revert(ctx context.Context, env *Env, op *model.Op) error {
	endorser, err := env.Cache.AccountByID(env.Tx, op.SenderId)
	if err != nil {
		return err
	}
	if endorser != nil {
		endorser.Balance -= op.Reward
		env.Cache.PutAccount(endorser)
	}
	return store.Delete[model.Op](env.Tx, op.RowId)
}

var _ Commit = IthacaEndorsementCommit{}

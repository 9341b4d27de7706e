package ops

import (
	"context"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/store"
	"github.com/chainwatch-io/tzindexer/xerrors"
)

// offenderFromEvidence finds the account whose frozen deposit the node's
// balance updates show being slashed — the shared first step of both double
// evidence commits, since neither op kind's content carries the offender's
// address directly (only the accused block/endorsement headers do, and
// verifying those would mean re-deriving what the node already resolved).
func offenderFromEvidence(updates []rpc.BalanceUpdate) string {
	for _, u := range updates {
		if u.Category == "deposits" && u.Amount() < 0 {
			return u.Address()
		}
	}
	return ""
}

// slashDouble implements spec.md seed scenario S6 for both double-baking and
// double-endorsing evidence: the offender's entire frozen deposit, reward
// and fees are wiped, and the accuser (this block's baker) is credited half
// the wiped deposit into its own frozen reward. Prior values live on the Op
// row so Revert can restore them exactly.
func slashDouble(env *Env, ref model.OpRef, content rpc.OperationContent, opType model.OpType) (*model.Op, error) {
	var updates []rpc.BalanceUpdate
	if content.Metadata != nil {
		updates = content.Metadata.BalanceUpdates
	}
	addr := offenderFromEvidence(updates)
	if addr == "" {
		return nil, xerrors.Validation(xerrors.MissingField, "balance_updates", env.Block.Level, ref.P, nil)
	}
	offender, err := ensureAccount(env.Tx, env.Cache, addr, env.Block.Level)
	if err != nil {
		return nil, err
	}
	accuser, err := env.Cache.AccountByID(env.Tx, env.Block.BakerId)
	if err != nil {
		return nil, err
	}
	if accuser == nil {
		return nil, xerrors.StateCorruption("accuser_known", "evidence block has no resolved baker account")
	}

	op := nextOp(env.Cache, env.Block, ref)
	op.Type = opType
	op.SenderId = offender.RowId
	op.ReceiverId = accuser.RowId
	op.Status = model.OpStatusApplied
	op.IsSuccess = true

	op.Deposit = offender.FrozenDeposit
	op.Reward = offender.FrozenReward
	op.Burned = offender.FrozenFees

	half := offender.FrozenDeposit / 2
	op.Volume = half

	offender.FrozenDeposit = 0
	offender.FrozenReward = 0
	offender.FrozenFees = 0
	accuser.FrozenReward += half

	env.Cache.PutAccount(offender)
	env.Cache.PutAccount(accuser)

	if err := store.Create(env.Tx, op); err != nil {
		return nil, err
	}
	return op, nil
}

func revertDouble(env *Env, op *model.Op) error {
	offender, err := env.Cache.AccountByID(env.Tx, op.SenderId)
	if err != nil {
		return err
	}
	accuser, err := env.Cache.AccountByID(env.Tx, op.ReceiverId)
	if err != nil {
		return err
	}

	offender.FrozenDeposit = op.Deposit
	offender.FrozenReward = op.Reward
	offender.FrozenFees = op.Burned
	if accuser != nil {
		accuser.FrozenReward -= op.Volume
	}

	env.Cache.PutAccount(offender)
	if accuser != nil {
		env.Cache.PutAccount(accuser)
	}
	return store.Delete[model.Op](env.Tx, op.RowId)
}

// DoubleBakingCommit slashes a baker caught signing two block headers at the
// same level.
type DoubleBakingCommit struct{}

func (DoubleBakingCommit) Kind() model.OpType { return model.OpTypeDoubleBaking }

func (DoubleBakingCommit) Apply(ctx context.Context, env *Env, ref model.OpRef, content rpc.OperationContent) (*model.Op, error) {
	return slashDouble(env, ref, content, model.OpTypeDoubleBaking)
}

func (DoubleBakingCommit) Revert(ctx context.Context, env *Env, op *model.Op) error {
	return revertDouble(env, op)
}

var _ Commit = DoubleBakingCommit{}

// DoubleEndorsingCommit slashes a delegate caught endorsing two conflicting
// blocks at the same level; economically identical to DoubleBakingCommit,
// distinguished only by Type for reporting.
type DoubleEndorsingCommit struct{}

func (DoubleEndorsingCommit) Kind() model.OpType { return model.OpTypeDoubleEndorsement }

func (DoubleEndorsingCommit) Apply(ctx context.Context, env *Env, ref model.OpRef, content rpc.OperationContent) (*model.Op, error) {
	return slashDouble(env, ref, content, model.OpTypeDoubleEndorsement)
}

func (DoubleEndorsingCommit) Revert(ctx context.Context, env *Env, op *model.Op) error {
	return revertDouble(env, op)
}

var _ Commit = DoubleEndorsingCommit{}

package ops

import (
	"context"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/store"
	"github.com/chainwatch-io/tzindexer/xerrors"
)

// ActivationCommit credits a fundraiser account's commitment balance on
// first activation. The credited amount isn't carried on the op content
// itself (the node resolves it from the commitment table keyed by the
// activation secret) so it's read off the reported balance updates, the
// same way DoubleBaking/DoubleEndorsing resolve their offender.
type ActivationCommit struct{}

func (ActivationCommit) Kind() model.OpType { return model.OpTypeActivation }

func (ActivationCommit) Apply(ctx context.Context, env *Env, ref model.OpRef, content rpc.OperationContent) (*model.Op, error) {
	if content.Pkh == "" {
		return nil, xerrors.Validation(xerrors.MissingField, "pkh", env.Block.Level, ref.P, nil)
	}
	account, err := ensureAccount(env.Tx, env.Cache, content.Pkh, env.Block.Level)
	if err != nil {
		return nil, err
	}

	var amount int64
	if content.Metadata != nil {
		for _, u := range content.Metadata.BalanceUpdates {
			if u.Amount() > 0 {
				amount += u.Amount()
			}
		}
	}

	op := nextOp(env.Cache, env.Block, ref)
	op.SenderId = account.RowId
	op.Status = model.OpStatusApplied
	op.IsSuccess = true
	op.Volume = amount

	account.Balance += amount
	account.IsFunded = account.Balance > 0
	env.Cache.PutAccount(account)

	if err := store.Create(env.Tx, op); err != nil {
		return nil, err
	}
	return op, nil
}

func (ActivationCommit) Revert(ctx context.Context, env *Env, op *model.Op) error {
	account, err := env.Cache.AccountByID(env.Tx, op.SenderId)
	if err != nil {
		return err
	}
	if account != nil {
		account.Balance -= op.Volume
		account.IsFunded = account.Balance > 0
		env.Cache.PutAccount(account)
	}
	return store.Delete[model.Op](env.Tx, op.RowId)
}

var _ Commit = ActivationCommit{}

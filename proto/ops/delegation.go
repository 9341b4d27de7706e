package ops

import (
	"context"
	"strconv"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/store"
)

// DelegationCommit implements spec.md seed scenario S3: undelegate from the
// prior target (adjusting its staking aggregates), then either register the
// sender as a fresh delegate (self-delegation) or attach to the new target.
// The prior delegate id is stored on the Op row so Revert can restore it
// exactly without re-deriving it.
type DelegationCommit struct{}

func (DelegationCommit) Kind() model.OpType { return model.OpTypeDelegation }

func (DelegationCommit) Apply(ctx context.Context, env *Env, ref model.OpRef, content rpc.OperationContent) (*model.Op, error) {
	sender, err := ensureAccount(env.Tx, env.Cache, content.Source, env.Block.Level)
	if err != nil {
		return nil, err
	}

	status := model.OpStatusApplied
	if content.Metadata != nil && content.Metadata.OperationResult != nil {
		status = mapStatus(content.Metadata.OperationResult.Status)
	}

	op := nextOp(env.Cache, env.Block, ref)
	op.SenderId = sender.RowId
	op.Status = status
	op.IsSuccess = status.IsSuccess()
	op.BakerFee = content.Fee.Int64()
	op.Counter, _ = strconv.ParseInt(content.Counter, 10, 64)
	op.PrevDelegateId = sender.DelegateId

	if !ref.Internal {
		sender.Counter++
	}
	sender.Balance -= op.BakerFee

	if op.IsSuccess {
		if err := undelegate(env, sender); err != nil {
			return nil, err
		}

		switch {
		case content.Delegate == "" || content.Delegate == sender.Address:
			// self-delegation: register as a new delegate if not already one
			if !sender.IsDelegate() {
				sender.PromoteToDelegate(env.Block.Level)
			}
			op.DelegateId = sender.RowId
		default:
			target, err := ensureAccount(env.Tx, env.Cache, content.Delegate, env.Block.Level)
			if err != nil {
				return nil, err
			}
			if !target.IsDelegate() {
				target.PromoteToDelegate(env.Block.Level)
			}
			target.StakingBalance += sender.Balance
			target.DelegatorsCount++
			sender.DelegateId = target.RowId
			env.Cache.PutAccount(target)
			op.DelegateId = target.RowId
		}
	}

	sender.DelegationsCount++
	env.Cache.PutAccount(sender)

	if err := store.Create(env.Tx, op); err != nil {
		return nil, err
	}
	return op, nil
}

// undelegate removes sender from its current delegate's staking aggregates,
// if any.
func undelegate(env *Env, sender *model.Account) error {
	if sender.DelegateId == 0 {
		return nil
	}
	prior, err := env.Cache.AccountByID(env.Tx, sender.DelegateId)
	if err != nil {
		return err
	}
	if prior != nil && prior.RowId != sender.RowId {
		prior.StakingBalance -= sender.Balance
		prior.DelegatorsCount--
		env.Cache.PutAccount(prior)
	}
	sender.DelegateId = 0
	return nil
}

func (DelegationCommit) Revert(ctx context.Context, env *Env, op *model.Op) error {
	sender, err := env.Cache.AccountByID(env.Tx, op.SenderId)
	if err != nil {
		return err
	}

	if op.IsSuccess {
		// undo the delegation this op created
		if sender.DelegateId != 0 && sender.DelegateId != sender.RowId {
			cur, err := env.Cache.AccountByID(env.Tx, sender.DelegateId)
			if err != nil {
				return err
			}
			if cur != nil {
				cur.StakingBalance -= sender.Balance
				cur.DelegatorsCount--
				env.Cache.PutAccount(cur)
			}
		} else if sender.DelegateId == sender.RowId {
			sender.DemoteFromDelegate()
		}

		// restore the prior delegate relationship exactly
		if op.PrevDelegateId != 0 {
			prior, err := env.Cache.AccountByID(env.Tx, op.PrevDelegateId)
			if err != nil {
				return err
			}
			if prior != nil {
				prior.StakingBalance += sender.Balance
				prior.DelegatorsCount++
				env.Cache.PutAccount(prior)
			}
		}
		sender.DelegateId = op.PrevDelegateId
	}

	sender.Balance += op.BakerFee
	if !op.IsInternal {
		sender.Counter--
	}
	sender.DelegationsCount--
	env.Cache.PutAccount(sender)

	return store.Delete[model.Op](env.Tx, op.RowId)
}

var _ Commit = DelegationCommit{}

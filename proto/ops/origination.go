package ops

import (
	"context"
	"strconv"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/store"
)

// OriginationCommit allocates a new Contract account on success (address
// taken from the node's reported originated_contracts) and credits its
// initial balance from the originating sender. Revert deletes the Contract
// row outright and evicts it from the cache by both address and id.
type OriginationCommit struct{}

func (OriginationCommit) Kind() model.OpType { return model.OpTypeOrigination }

func (OriginationCommit) Apply(ctx context.Context, env *Env, ref model.OpRef, content rpc.OperationContent) (*model.Op, error) {
	sender, err := ensureAccount(env.Tx, env.Cache, content.Source, env.Block.Level)
	if err != nil {
		return nil, err
	}

	status := model.OpStatusApplied
	var res *rpc.OperationResult
	if content.Metadata != nil {
		res = content.Metadata.OperationResult
	}
	if res != nil {
		status = mapStatus(res.Status)
	}

	op := nextOp(env.Cache, env.Block, ref)
	op.SenderId = sender.RowId
	op.CreatorId = sender.RowId
	op.Status = status
	op.IsSuccess = status.IsSuccess()
	op.BakerFee = content.Fee.Int64()
	op.Volume = content.Balance.Int64()
	op.Counter, _ = strconv.ParseInt(content.Counter, 10, 64)
	op.IsContract = true

	if res != nil {
		op.GasUsed = res.ConsumedGas.Int64()
		op.StoragePaid = res.PaidStorageSizeDiff.Int64()
		op.StorageFee = res.PaidStorageSizeDiff.Int64() * env.Params.CostPerByte
		op.Errors = res.Errors
	}

	if !ref.Internal {
		sender.Counter++
	}

	if op.IsSuccess && res != nil && len(res.OriginatedContracts) > 0 {
		addr := res.OriginatedContracts[0]
		var delegateId model.AccountID
		if content.Delegate != "" {
			d, err := ensureAccount(env.Tx, env.Cache, content.Delegate, env.Block.Level)
			if err != nil {
				return nil, err
			}
			delegateId = d.RowId
		}
		id := env.Cache.AppState.NextAcctID()
		contract := model.NewContract(id, addr, env.Block.Level, sender.RowId, sender.RowId, delegateId)
		contract.Balance = op.Volume
		contract.IsFunded = contract.Balance > 0
		env.Cache.PutAccount(contract)

		op.ReceiverId = contract.RowId
		sender.Balance -= op.Volume + op.BakerFee + op.StorageFee
		sender.OriginationsCount++
	} else {
		sender.Balance -= op.BakerFee
	}

	env.Cache.PutAccount(sender)

	if err := store.Create(env.Tx, op); err != nil {
		return nil, err
	}
	return op, nil
}

func (OriginationCommit) Revert(ctx context.Context, env *Env, op *model.Op) error {
	sender, err := env.Cache.AccountByID(env.Tx, op.SenderId)
	if err != nil {
		return err
	}

	if op.IsSuccess && op.ReceiverId != 0 {
		contract, err := env.Cache.AccountByID(env.Tx, op.ReceiverId)
		if err != nil {
			return err
		}
		if contract != nil {
			env.Cache.EvictAccount(contract)
			if err := store.Delete[model.Account](env.Tx, contract.RowId); err != nil {
				return err
			}
		}
		sender.Balance += op.Volume + op.BakerFee + op.StorageFee
		sender.OriginationsCount--
	} else {
		sender.Balance += op.BakerFee
	}

	if !op.IsInternal {
		sender.Counter--
	}

	env.Cache.PutAccount(sender)
	return store.Delete[model.Op](env.Tx, op.RowId)
}

var _ Commit = OriginationCommit{}

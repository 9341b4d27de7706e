package ops

import (
	"context"
	"strconv"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/store"
)

// TransactionCommit implements spec.md §4.3's Transaction commit: debits
// sender (amount + fees) and credits the target on success; on
// failed/backtracked/skipped only the baker fee is charged (seed scenario
// S2).
type TransactionCommit struct{}

func (TransactionCommit) Kind() model.OpType { return model.OpTypeTransaction }

func mapStatus(s string) model.OpStatus {
	switch s {
	case "applied":
		return model.OpStatusApplied
	case "backtracked":
		return model.OpStatusBacktracked
	case "skipped":
		return model.OpStatusSkipped
	default:
		return model.OpStatusFailed
	}
}

func (TransactionCommit) Apply(ctx context.Context, env *Env, ref model.OpRef, content rpc.OperationContent) (*model.Op, error) {
	sender, err := ensureAccount(env.Tx, env.Cache, content.Source, env.Block.Level)
	if err != nil {
		return nil, err
	}
	target, err := ensureAccount(env.Tx, env.Cache, content.Destination, env.Block.Level)
	if err != nil {
		return nil, err
	}

	status := model.OpStatusApplied
	if content.Metadata != nil && content.Metadata.OperationResult != nil {
		status = mapStatus(content.Metadata.OperationResult.Status)
	}

	op := nextOp(env.Cache, env.Block, ref)
	op.SenderId = sender.RowId
	op.ReceiverId = target.RowId
	op.Status = status
	op.IsSuccess = status.IsSuccess()
	op.BakerFee = content.Fee.Int64()
	op.Volume = content.Amount.Int64()
	op.Counter, _ = strconv.ParseInt(content.Counter, 10, 64)
	op.Parameters = content.Parameters

	if content.Metadata != nil && content.Metadata.OperationResult != nil {
		res := content.Metadata.OperationResult
		op.GasUsed = res.ConsumedGas.Int64()
		op.StoragePaid = res.PaidStorageSizeDiff.Int64()
		op.StorageFee = res.PaidStorageSizeDiff.Int64() * env.Params.CostPerByte
		op.Errors = res.Errors
		if !target.IsFunded && op.IsSuccess {
			op.AllocationFee = env.Params.OriginationBurn
		}
	}

	if !ref.Internal {
		sender.Counter++
	}

	if op.IsSuccess {
		sender.Balance -= op.Volume + op.BakerFee + op.StorageFee + op.AllocationFee
		target.Balance += op.Volume
		target.IsFunded = target.Balance > 0
	} else {
		sender.Balance -= op.BakerFee
	}

	sender.TransactionsCount++
	if target.RowId != sender.RowId {
		target.TransactionsCount++
	}

	env.Cache.PutAccount(sender)
	env.Cache.PutAccount(target)

	if err := store.Create(env.Tx, op); err != nil {
		return nil, err
	}
	return op, nil
}

func (TransactionCommit) Revert(ctx context.Context, env *Env, op *model.Op) error {
	sender, err := env.Cache.AccountByID(env.Tx, op.SenderId)
	if err != nil {
		return err
	}
	target, err := env.Cache.AccountByID(env.Tx, op.ReceiverId)
	if err != nil {
		return err
	}

	if op.IsSuccess {
		sender.Balance += op.Volume + op.BakerFee + op.StorageFee + op.AllocationFee
		target.Balance -= op.Volume
		target.IsFunded = target.Balance > 0
	} else {
		sender.Balance += op.BakerFee
	}

	if !op.IsInternal {
		sender.Counter--
	}

	sender.TransactionsCount--
	if target.RowId != sender.RowId {
		target.TransactionsCount--
	}

	env.Cache.PutAccount(sender)
	env.Cache.PutAccount(target)

	return store.Delete[model.Op](env.Tx, op.RowId)
}

var _ Commit = TransactionCommit{}

package ops

import (
	"context"
	"strconv"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/store"
)

// RegisterConstantCommit is Proto-11 (Kathmandu)-only: registers a global
// constant's Michelson value, charging storage at the protocol's
// cost-per-byte rate. The value itself is kept on op.Data — there is no
// separate constants table, since nothing downstream of the indexer needs
// to resolve a constant by its hash, only to see that the sender paid for
// registering one.
type RegisterConstantCommit struct{}

func (RegisterConstantCommit) Kind() model.OpType { return model.OpTypeRegisterConstant }

func (RegisterConstantCommit) Apply(ctx context.Context, env *Env, ref model.OpRef, content rpc.OperationContent) (*model.Op, error) {
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
	op.Status = status
	op.IsSuccess = status.IsSuccess()
	op.BakerFee = content.Fee.Int64()
	op.Counter, _ = strconv.ParseInt(content.Counter, 10, 64)
	op.Data = content.Value

	if res != nil {
		op.GasUsed = res.ConsumedGas.Int64()
		op.StoragePaid = res.PaidStorageSizeDiff.Int64()
		op.StorageFee = res.PaidStorageSizeDiff.Int64() * env.Params.CostPerByte
		op.Errors = res.Errors
	}

	sender.Counter++
	sender.Balance -= op.BakerFee + op.StorageFee
	env.Cache.PutAccount(sender)

	if err := store.Create(env.Tx, op); err != nil {
		return nil, err
	}
	return op, nil
}

func (RegisterConstantCommit) Revert(ctx context.Context, env *Env, op *model.Op) error {
	sender, err := env.Cache.AccountByID(env.Tx, op.SenderId)
	if err != nil {
		return err
	}
	sender.Balance += op.BakerFee + op.StorageFee
	sender.Counter--
	env.Cache.PutAccount(sender)
	return store.Delete[model.Op](env.Tx, op.RowId)
}

var _ Commit = RegisterConstantCommit{}

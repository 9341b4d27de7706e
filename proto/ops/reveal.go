package ops

import (
	"context"
	"strconv"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/store"
)

// RevealCommit sets the sender's public key; Revert nulls it back to the
// prior value (stored on the Op row, empty string for a first-ever reveal).
type RevealCommit struct{}

func (RevealCommit) Kind() model.OpType { return model.OpTypeReveal }

func (RevealCommit) Apply(ctx context.Context, env *Env, ref model.OpRef, content rpc.OperationContent) (*model.Op, error) {
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
	op.PrevPubKey = sender.PubKey

	sender.Counter++
	sender.Balance -= op.BakerFee
	if op.IsSuccess {
		sender.PubKey = content.PublicKey
		sender.RevealsCount++
	}
	env.Cache.PutAccount(sender)

	if err := store.Create(env.Tx, op); err != nil {
		return nil, err
	}
	return op, nil
}

func (RevealCommit) Revert(ctx context.Context, env *Env, op *model.Op) error {
	sender, err := env.Cache.AccountByID(env.Tx, op.SenderId)
	if err != nil {
		return err
	}
	if op.IsSuccess {
		sender.PubKey = op.PrevPubKey
		sender.RevealsCount--
	}
	sender.Balance += op.BakerFee
	sender.Counter--
	env.Cache.PutAccount(sender)
	return store.Delete[model.Op](env.Tx, op.RowId)
}

var _ Commit = RevealCommit{}

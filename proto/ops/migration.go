package ops

import (
	"context"
	"encoding/json"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/store"
)

// MigrationCommit represents every synthetic op a protocol upgrade itself
// produces — bootstrap credits, the Babylon delegate-activation sweep,
// airdrops, proposal invoices, code changes, implicit originations, the
// liquidity baking subsidy — as one flat row (spec.md: reported Type is
// 11+kind). All of these reduce to a list of signed balance deltas the node
// already reports in metadata.implicit_operations_results /
// balance_updates, so Apply/Revert only need to walk that list; the list
// itself is persisted to op.Data for the revert side.
type MigrationCommit struct{}

func (MigrationCommit) Kind() model.OpType { return model.OpTypeMigration }

// MigrationDelta is one account's balance change within a migration event.
type MigrationDelta struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

func (MigrationCommit) Apply(ctx context.Context, env *Env, ref model.OpRef, content rpc.OperationContent) (*model.Op, error) {
	var updates []rpc.BalanceUpdate
	if content.Metadata != nil {
		updates = content.Metadata.BalanceUpdates
	}

	deltas := make([]MigrationDelta, 0, len(updates))
	for _, u := range updates {
		addr := u.Address()
		if addr == "" {
			continue
		}
		amt := u.Amount()
		if amt == 0 {
			continue
		}
		acct, err := ensureAccount(env.Tx, env.Cache, addr, env.Block.Level)
		if err != nil {
			return nil, err
		}
		acct.Balance += amt
		acct.IsFunded = acct.Balance > 0
		env.Cache.PutAccount(acct)
		deltas = append(deltas, MigrationDelta{Address: addr, Amount: amt})
	}

	op := nextOp(env.Cache, env.Block, ref)
	op.Status = model.OpStatusApplied
	op.IsSuccess = true
	op.MigrationKind = migrationKindOf(content.Kind)
	if env.Block.BakerId != 0 {
		op.SenderId = env.Block.BakerId
	}

	data, err := json.Marshal(deltas)
	if err != nil {
		return nil, err
	}
	op.Data = data

	if err := store.Create(env.Tx, op); err != nil {
		return nil, err
	}
	return op, nil
}

func migrationKindOf(kind string) model.MigrationKind {
	switch kind {
	case "activate_delegate":
		return model.MigrationActivateDelegate
	case "airdrop":
		return model.MigrationAirdrop
	case "proposal_invoice":
		return model.MigrationProposalInvoice
	case "code_change":
		return model.MigrationCodeChange
	case "implicit_origination":
		return model.MigrationImplicitOrigination
	case "subsidy":
		return model.MigrationSubsidy
	default:
		return model.MigrationBootstrap
	}
}

func (MigrationCommit) Revert(ctx context.Context, env *Env, op *model.Op) error {
	var deltas []MigrationDelta
	if len(op.Data) > 0 {
		if err := json.Unmarshal(op.Data, &deltas); err != nil {
			return err
		}
	}
	for _, d := range deltas {
		acct, err := env.Cache.AccountByAddress(env.Tx, d.Address)
		if err != nil {
			return err
		}
		if acct == nil {
			continue
		}
		acct.Balance -= d.Amount
		acct.IsFunded = acct.Balance > 0
		env.Cache.PutAccount(acct)
	}
	return store.Delete[model.Op](env.Tx, op.RowId)
}

var _ Commit = MigrationCommit{}

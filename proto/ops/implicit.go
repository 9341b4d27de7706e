package ops

import (
	"context"
	"encoding/json"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/store"
)

// ImplicitEventCommit reverts the Bake/Bonus ops AppendImplicitEvents
// produces. Unlike other Commits it has no Apply of its own kind/shape to
// dispatch through h.CommitFor: AppendImplicitEvents runs directly from
// ApplyBlock (it may emit zero, one, or two ops — baker and, Ithaca+, a
// distinct proposer — from a single balance-update list), the same way
// MigrationCommit's Apply is invoked directly for implicit_operations_results
// rather than looked up by kind.
type ImplicitEventCommit struct{}

// implicitDelta is one field credited on one account by an implicit event,
// persisted to op.Data so Revert can reverse the exact field without
// re-deriving classification from the node.
type implicitDelta struct {
	Field  string `json:"field"` // "deposit", "reward", or "balance"
	Amount int64  `json:"amount"`
}

// classifyImplicitFlows groups a block's balance updates by the address they
// name, keeping only entries attributable to the baker or the proposer and
// classifying each into the deposit/reward/balance category the account
// field update depends on.
func classifyImplicitFlows(updates []rpc.BalanceUpdate, bakerAddr, proposerAddr string) map[string][]model.Flow {
	out := make(map[string][]model.Flow)
	for _, u := range updates {
		addr := u.Address()
		if addr == "" || (addr != bakerAddr && addr != proposerAddr) {
			continue
		}
		amt := u.Amount()
		if amt == 0 {
			continue
		}
		op := model.FlowTypeBaking
		if addr == proposerAddr && proposerAddr != bakerAddr {
			op = model.FlowTypeBonus
		}
		cat := model.FlowCategoryBalance
		if u.Kind == "freezer" {
			switch u.Category {
			case "deposits":
				cat = model.FlowCategoryDeposits
			case "rewards":
				cat = model.FlowCategoryRewards
			default:
				continue
			}
		}
		out[addr] = append(out[addr], model.Flow{Operation: op, Category: cat, Amount: amt})
	}
	return out
}

// AppendImplicitEvents is ApplyBlock's block-level counterpart to the
// manager/consensus operation loops: it turns blk.Metadata.BalanceUpdates
// into one synthetic Bake op for the baker and, when Ithaca+ names a
// distinct proposer, one Bonus op for it, crediting the account fields each
// flow category maps to. startN is the next free intra-block position.
func AppendImplicitEvents(ctx context.Context, env *Env, updates []rpc.BalanceUpdate, bakerAddr, proposerAddr string, startN int) ([]*model.Op, error) {
	flows := classifyImplicitFlows(updates, bakerAddr, proposerAddr)
	if len(flows) == 0 {
		return nil, nil
	}

	addrs := make([]string, 0, 2)
	if _, ok := flows[bakerAddr]; ok {
		addrs = append(addrs, bakerAddr)
	}
	if proposerAddr != "" && proposerAddr != bakerAddr {
		if _, ok := flows[proposerAddr]; ok {
			addrs = append(addrs, proposerAddr)
		}
	}

	var applied []*model.Op
	n := startN
	for _, addr := range addrs {
		kind := model.OpTypeBake
		if addr == proposerAddr && proposerAddr != bakerAddr {
			kind = model.OpTypeBonus
		}

		acct, err := ensureAccount(env.Tx, env.Cache, addr, env.Block.Level)
		if err != nil {
			return applied, err
		}

		ref := model.OpRef{N: n, L: model.OPL_BLOCK_EVENTS, P: 0, Kind: kind}
		id := env.Cache.AppState.NextOpID()
		op := model.NewEventOp(env.Block, id, acct.RowId, ref)
		op.BakerId = acct.RowId

		deltas := make([]implicitDelta, 0, len(flows[addr]))
		for _, f := range flows[addr] {
			switch f.Category {
			case model.FlowCategoryDeposits:
				acct.FrozenDeposit += f.Amount
				op.Deposit += f.Amount
				deltas = append(deltas, implicitDelta{Field: "deposit", Amount: f.Amount})
			case model.FlowCategoryRewards:
				acct.FrozenReward += f.Amount
				op.Reward += f.Amount
				deltas = append(deltas, implicitDelta{Field: "reward", Amount: f.Amount})
			default:
				acct.Balance += f.Amount
				acct.IsFunded = acct.Balance > 0
				op.Reward += f.Amount
				deltas = append(deltas, implicitDelta{Field: "balance", Amount: f.Amount})
			}
		}
		env.Cache.PutAccount(acct)

		data, err := json.Marshal(deltas)
		if err != nil {
			return applied, err
		}
		op.Data = data

		if err := store.Create(env.Tx, op); err != nil {
			return applied, err
		}
		applied = append(applied, op)
		n++
	}
	return applied, nil
}

func (ImplicitEventCommit) Revert(ctx context.Context, env *Env, op *model.Op) error {
	var deltas []implicitDelta
	if len(op.Data) > 0 {
		if err := json.Unmarshal(op.Data, &deltas); err != nil {
			return err
		}
	}

	acct, err := env.Cache.AccountByID(env.Tx, op.SenderId)
	if err != nil {
		return err
	}
	if acct != nil {
		for _, d := range deltas {
			switch d.Field {
			case "deposit":
				acct.FrozenDeposit -= d.Amount
			case "reward":
				acct.FrozenReward -= d.Amount
			case "balance":
				acct.Balance -= d.Amount
				acct.IsFunded = acct.Balance > 0
			}
		}
		env.Cache.PutAccount(acct)
	}

	return store.Delete[model.Op](env.Tx, op.RowId)
}

package proto

import (
	"context"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/proto/ops"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/xerrors"
)

// kindOf maps a node-reported operation kind string to the model.OpType a
// Handler's Commits table is keyed by.
func kindOf(kind string) (model.OpType, bool) {
	switch kind {
	case "transaction":
		return model.OpTypeTransaction, true
	case "origination":
		return model.OpTypeOrigination, true
	case "delegation":
		return model.OpTypeDelegation, true
	case "reveal":
		return model.OpTypeReveal, true
	case "proposals":
		return model.OpTypeProposal, true
	case "ballot":
		return model.OpTypeBallot, true
	case "double_baking_evidence":
		return model.OpTypeDoubleBaking, true
	case "double_endorsement_evidence", "double_preendorsement_evidence":
		return model.OpTypeDoubleEndorsement, true
	case "seed_nonce_revelation":
		return model.OpTypeNonceRevelation, true
	case "endorsement", "endorsement_with_slot":
		return model.OpTypeEndorsement, true
	case "activate_account":
		return model.OpTypeActivation, true
	case "register_global_constant":
		return model.OpTypeRegisterConstant, true
	default:
		return 0, false
	}
}

// ApplyBlock threads every operation content a node-reported block carries
// through the active Handler's Commit table: the consensus/voting/
// anonymous/manager validation passes in the node's own order, then each
// manager op's internal_operation_results (marked Internal so Commits skip
// counter bumps they already charged on the outer op), then the block's
// implicit_operations_results as synthetic Migration ops, then the block's
// own balance_updates as synthetic Bake/Bonus ops (AppendImplicitEvents).
// Returns every persisted Op in application order, the exact order
// RevertBlock undoes.
func ApplyBlock(ctx context.Context, h *Handler, env *ops.Env, blk *rpc.Block) ([]*model.Op, error) {
	var applied []*model.Op
	n := 0

	for li, pass := range blk.Operations {
		for pi, raw := range pass {
			for _, content := range raw.Contents {
				op, err := applyOne(ctx, h, env, content, model.OpRef{N: n, L: li, P: pi, Internal: false, Hash: raw.Hash})
				if err != nil {
					return applied, err
				}
				applied = append(applied, op)
				n++

				if content.Metadata != nil {
					for _, internal := range content.Metadata.InternalOperationResults {
						iop, err := applyOne(ctx, h, env, internal, model.OpRef{N: n, L: li, P: pi, Internal: true, Hash: raw.Hash})
						if err != nil {
							return applied, err
						}
						applied = append(applied, iop)
						n++
					}
				}
			}
		}
	}

	for _, implicit := range blk.Metadata.ImplicitOperationsResults {
		content := rpc.OperationContent{
			Kind: implicit.Kind,
			Metadata: &rpc.OperationMetadata{
				BalanceUpdates: implicit.BalanceUpdates,
			},
		}
		ref := model.OpRef{N: n, L: model.OPL_BLOCK_EVENTS, P: 0, Kind: model.OpTypeMigration}
		op, err := ops.MigrationCommit{}.Apply(ctx, env, ref, content)
		if err != nil {
			return applied, err
		}
		applied = append(applied, op)
		n++
	}

	implicitOps, err := ops.AppendImplicitEvents(ctx, env, blk.Metadata.BalanceUpdates, blk.Metadata.Baker, blk.Metadata.Proposer, n)
	if err != nil {
		return applied, err
	}
	applied = append(applied, implicitOps...)

	return applied, nil
}

func applyOne(ctx context.Context, h *Handler, env *ops.Env, content rpc.OperationContent, ref model.OpRef) (*model.Op, error) {
	kind, ok := kindOf(content.Kind)
	if !ok {
		return nil, xerrors.Validation(xerrors.UnknownOperationKind, content.Kind, env.Block.Level, ref.P, nil)
	}
	ref.Kind = kind
	commit, err := h.CommitFor(kind)
	if err != nil {
		return nil, err
	}
	return commit.Apply(ctx, env, ref, content)
}

// RevertBlock undoes every Op ApplyBlock produced, in exact reverse order —
// required for the apply/revert identity property, since later ops may
// depend on earlier ones' side effects (e.g. an internal transfer spending
// balance an outer origination just credited).
func RevertBlock(ctx context.Context, h *Handler, env *ops.Env, applied []*model.Op) error {
	for i := len(applied) - 1; i >= 0; i-- {
		op := applied[i]
		if op.Type == model.OpTypeBake || op.Type == model.OpTypeBonus {
			if err := (ops.ImplicitEventCommit{}).Revert(ctx, env, op); err != nil {
				return err
			}
			continue
		}

		var commit ops.Commit
		var err error
		if op.Type == model.OpTypeMigration {
			commit = ops.MigrationCommit{}
		} else {
			commit, err = h.CommitFor(op.Type)
			if err != nil {
				return err
			}
		}
		if err := commit.Revert(ctx, env, op); err != nil {
			return err
		}
	}
	return nil
}

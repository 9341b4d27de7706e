// Package ops implements C5: one Commit per operation kind, each exposing a
// forward Apply and an inverse Revert that composes exactly to identity on
// every aggregate the spec tracks (spec.md §8 property 1). This is "the
// core" the top-level spec calls hardest to get right — every Commit here
// stores whatever prior state its Revert needs directly on the persisted Op
// row, rather than re-deriving it from the node (spec.md §9
// "reversibility").
package ops

import (
	"context"

	"github.com/chainwatch-io/tzindexer/cache"
	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/store"
	"github.com/chainwatch-io/tzindexer/xerrors"
)

// Env is the execution context threaded through every Commit call: the
// live block transaction, the entity cache, the block being applied or
// reverted, and the active protocol's constants.
type Env struct {
	Tx     *store.Tx
	Cache  *cache.Cache
	Block  *model.Block
	Params *model.ProtocolConstants
}

// Commit is the apply/revert pair for one operation kind (spec.md §4.3).
type Commit interface {
	Kind() model.OpType
	Apply(ctx context.Context, env *Env, ref model.OpRef, content rpc.OperationContent) (*model.Op, error)
	Revert(ctx context.Context, env *Env, op *model.Op) error
}

// Table is the per-protocol-handler lookup from operation kind to Commit —
// the "function-pointer table per operation kind" spec.md §9 asks for
// instead of a class hierarchy. A later protocol "inherits" by copying a
// prior Table and overriding only the entries whose semantics changed.
type Table map[model.OpType]Commit

// Clone returns a shallow copy so a later protocol handler can override
// individual entries without mutating its predecessor's table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// BaseTable returns the Granada-equivalent baseline table covering every
// operation kind spec.md §4.3 names. Later protocol handlers start from
// Clone() and override only what changed.
func BaseTable() Table {
	return Table{
		model.OpTypeTransaction:       TransactionCommit{},
		model.OpTypeOrigination:       OriginationCommit{},
		model.OpTypeDelegation:        DelegationCommit{},
		model.OpTypeReveal:            RevealCommit{},
		model.OpTypeProposal:          ProposalsCommit{},
		model.OpTypeBallot:            BallotCommit{},
		model.OpTypeDoubleBaking:      DoubleBakingCommit{},
		model.OpTypeDoubleEndorsement: DoubleEndorsingCommit{},
		model.OpTypeNonceRevelation:   NonceRevelationCommit{},
		model.OpTypeEndorsement:       EndorsementCommit{},
		model.OpTypeActivation:        ActivationCommit{},
		model.OpTypeMigration:         MigrationCommit{},
	}
}

// ensureAccount resolves addr through the cache, creating a Ghost account
// (spec.md §3 Account variant) the first time an address is referenced
// without having been seen live — e.g. a transaction target that never
// baked or transacted before.
func ensureAccount(tx *store.Tx, c *cache.Cache, addr string, level int64) (*model.Account, error) {
	if addr == "" {
		return nil, xerrors.Validation(xerrors.MissingField, "address", level, 0, nil)
	}
	a, err := c.AccountByAddress(tx, addr)
	if err != nil {
		return nil, err
	}
	if a != nil {
		return a, nil
	}
	id := c.AppState.NextAcctID()
	a = model.NewGhost(id, addr, level)
	c.PutAccount(a)
	return a, nil
}

// nextOp allocates the next global operation id from AppState and
// constructs the Op row scaffold, the common first step of every
// Commit.Apply.
func nextOp(c *cache.Cache, blk *model.Block, ref model.OpRef) *model.Op {
	id := c.AppState.NextOpID()
	return model.NewOp(blk, id, ref)
}

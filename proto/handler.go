// Package proto implements C4, the protocol handler registry, and the
// per-block dispatch loop that threads a block's operations through the
// active protocol's Commit table. Handlers "inherit" from a prior protocol
// by cloning its Commits table and overriding only the entries that
// changed — a copied function table standing in for a class hierarchy
// (see proto/ops for the Commit/Table types themselves).
package proto

import (
	"strings"

	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/proto/ops"
	"github.com/chainwatch-io/tzindexer/xerrors"
)

// Handler pairs one protocol's operation Commit table with its identity.
// Concrete handlers (protoGranada, protoIthaca, protoKathmandu) are plain
// constructor functions returning a *Handler built from Clone()+override
// rather than distinct Go types, since nothing beyond the Commits table
// varies between them.
type Handler struct {
	Hash    string
	Commits ops.Table
}

// CommitFor looks up the Commit for an operation kind, surfacing an unknown
// kind as a ValidationError rather than a nil-map panic.
func (h *Handler) CommitFor(kind model.OpType) (ops.Commit, error) {
	c, ok := h.Commits[kind]
	if !ok {
		return nil, xerrors.Validation(xerrors.UnknownOperationKind, kind.String(), 0, 0, nil)
	}
	return c, nil
}

// protoGranada is the baseline handler: every operation kind spec.md §4.3
// names, with no protocol-specific overrides.
func protoGranada() *Handler {
	return &Handler{Hash: "PtGRANAD", Commits: ops.BaseTable()}
}

// protoIthaca overrides endorsement handling: reward is paid directly to
// Balance instead of being frozen (Ithaca's removal of the endorsing
// deposit).
func protoIthaca() *Handler {
	base := protoGranada()
	t := base.Commits.Clone()
	t[model.OpTypeEndorsement] = ops.IthacaEndorsementCommit{}
	return &Handler{Hash: "PtIthaca", Commits: t}
}

// protoKathmandu adds RegisterConstantOp on top of protoIthaca's table; the
// liquidity-baking subsidy rides the existing generic MigrationCommit
// (content.Kind == "subsidy"), so no further override is needed for it.
func protoKathmandu() *Handler {
	base := protoIthaca()
	t := base.Commits.Clone()
	t[model.OpTypeRegisterConstant] = ops.RegisterConstantCommit{}
	return &Handler{Hash: "PtKathma", Commits: t}
}

// HandlerFactory constructs a fresh Handler value; factories are called
// once at registry construction; handlers are immutable and safe to share.
type HandlerFactory func() *Handler

// Registry maps a protocol hash prefix to the Handler built once from its
// HandlerFactory. Tezos protocol
// hashes are stable, unique-prefixed base58 strings, so prefix matching (the
// convention tzkt/tzstats tooling itself uses) avoids hardcoding the full
// hash in the registry.
type Registry struct {
	handlers map[string]*Handler
}

// NewRegistry builds the registry with the three protocols this module
// ships handlers for.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]*Handler)}
	for _, f := range []HandlerFactory{protoGranada, protoIthaca, protoKathmandu} {
		h := f()
		r.handlers[h.Hash] = h
	}
	return r
}

// For resolves a block's full protocol hash to its Handler by longest
// registered prefix match. An unmatched hash is fatal per spec.md §7.
func (r *Registry) For(hash string) (*Handler, error) {
	var best *Handler
	for prefix, h := range r.handlers {
		if strings.HasPrefix(hash, prefix) && (best == nil || len(prefix) > len(best.Hash)) {
			best = h
		}
	}
	if best == nil {
		return nil, xerrors.ProtocolUnknown(hash)
	}
	return best, nil
}


package rpc

import "context"

// Client is the contract the sync engine depends on. Every method is
// read-only. Implementations must return a *xerrors.TransientError-wrapped
// error for retryable conditions (timeouts, 5xx, connection reset) so the
// controller's retry policy can dispatch on it; see xerrors.IsRetryable.
type Client interface {
	// GetHeader fetches chains/main/blocks/{level}/header. Returns
	// (nil, nil) if no block exists yet at that level (the controller
	// treats this as "not yet produced", not an error).
	GetHeader(ctx context.Context, level int64) (*Header, error)

	// GetBlock fetches the full block (chains/main/blocks/{level}),
	// operations grouped by validation pass.
	GetBlock(ctx context.Context, level int64) (*Block, error)

	// GetBakingRights fetches helpers/baking_rights?cycle=...&all=true.
	GetBakingRights(ctx context.Context, cycle int64, maxPriority int) ([]BakingRight, error)

	// GetBakingRightsAtLevel fetches helpers/baking_rights?level=...&all=true.
	GetBakingRightsAtLevel(ctx context.Context, level int64, maxPriority int) ([]BakingRight, error)

	// GetEndorsingRights fetches helpers/endorsing_rights?cycle=....
	GetEndorsingRights(ctx context.Context, cycle int64) ([]EndorsingRight, error)

	// GetConstants fetches context/constants as of level.
	GetConstants(ctx context.Context, level int64) (*Constants, error)

	// GetVotingState fetches the combined votes/* surface as of level.
	GetVotingState(ctx context.Context, level int64) (*VotingState, error)
}

package rpc

import (
	"context"
	"sort"
)

// FakeClient is an in-memory Client used by engine tests (and by
// scenario tests under the sync and proto/cycle packages) so the
// core apply/revert/reorg logic is fully exercised without a live node —
// matching spec.md §1's framing of the RPC client as a collaborator whose
// contract, not transport, the engine depends on.
type FakeClient struct {
	Headers   map[int64]Header
	Blocks    map[int64]Block
	Baking    map[int64][]BakingRight // by cycle
	Endorsing map[int64][]EndorsingRight
	Constants map[int64]Constants
	Voting    map[int64]VotingState
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		Headers:   make(map[int64]Header),
		Blocks:    make(map[int64]Block),
		Baking:    make(map[int64][]BakingRight),
		Endorsing: make(map[int64][]EndorsingRight),
		Constants: make(map[int64]Constants),
		Voting:    make(map[int64]VotingState),
	}
}

// PutBlock registers a block and its header in one call — the common case
// for test fixtures.
func (f *FakeClient) PutBlock(b Block) {
	f.Blocks[b.Header.Level] = b
	f.Headers[b.Header.Level] = b.Header
}

func (f *FakeClient) GetHeader(_ context.Context, level int64) (*Header, error) {
	h, ok := f.Headers[level]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (f *FakeClient) GetBlock(_ context.Context, level int64) (*Block, error) {
	b, ok := f.Blocks[level]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (f *FakeClient) GetBakingRights(_ context.Context, cycle int64, maxPriority int) ([]BakingRight, error) {
	rights := f.Baking[cycle]
	out := make([]BakingRight, 0, len(rights))
	for _, r := range rights {
		if r.Priority <= maxPriority {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (f *FakeClient) GetBakingRightsAtLevel(_ context.Context, level int64, maxPriority int) ([]BakingRight, error) {
	var out []BakingRight
	for _, rights := range f.Baking {
		for _, r := range rights {
			if r.Level == level && r.Priority <= maxPriority {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (f *FakeClient) GetEndorsingRights(_ context.Context, cycle int64) ([]EndorsingRight, error) {
	return f.Endorsing[cycle], nil
}

func (f *FakeClient) GetConstants(_ context.Context, level int64) (*Constants, error) {
	c, ok := f.Constants[level]
	if !ok {
		// fall back to the nearest earlier registered constants, matching
		// the node's own "constants are sticky until superseded" behavior
		var best int64 = -1
		for l := range f.Constants {
			if l <= level && l > best {
				best = l
			}
		}
		if best < 0 {
			return &Constants{}, nil
		}
		c = f.Constants[best]
	}
	return &c, nil
}

func (f *FakeClient) GetVotingState(_ context.Context, level int64) (*VotingState, error) {
	v, ok := f.Voting[level]
	if !ok {
		return &VotingState{}, nil
	}
	return &v, nil
}

var _ Client = (*FakeClient)(nil)

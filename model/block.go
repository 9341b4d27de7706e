package model

import (
	"fmt"
	"sync"
	"time"
)

// blockPool recycles Block values across apply/revert cycles, mirroring the
// teacher's sync.Pool-backed AllocBlock/Free pair (etl/model/block.go).
// NewBlock draws from the pool; a Block goes back to it only when a caller
// invokes Free (the sync controller does not).
var blockPool = &sync.Pool{New: func() interface{} { return new(Block) }}

// Block is the persisted row for one chain level plus the transient,
// non-persisted scratch state the engine threads through apply/revert
// (the operations-in-progress list, the parent link, per-block derived
// aggregates).
type Block struct {
	RowId             int64  `gorm:"primaryKey"`
	Level             int64  `gorm:"uniqueIndex"`
	Hash              string `gorm:"size:64;uniqueIndex"`
	Timestamp         time.Time
	ProtocolCode      int
	Cycle             int64 `gorm:"index"`
	BakerId           AccountID `gorm:"index"`
	Priority          int
	ValidationPasses  int
	Reward            int64
	Fees              int64
	Deposit            int64
	OperationsBitmask  uint32
	LbEscapeVote       int8  // -1 off, 0 unset, 1 on; Ithaca+ only
	LbEscapeEma        int64

	// cycle-boundary bookkeeping performed while applying this block
	// (spec.md §4.6), recorded so a revert can mirror it exactly rather
	// than re-deriving which cycle, if any, it advanced or unfroze.
	CycleStart    bool
	HasUnfreeze   bool
	UnfrozeCycle  int64

	// scratch, not persisted
	Ops    []*Op  `gorm:"-"`
	Parent *Block `gorm:"-"`
}

var _ interface{ ID() int64 } = (*Block)(nil)

func (b *Block) ID() int64 { return b.RowId }

func (Block) TableName() string { return "blocks" }

func AllocBlock() *Block { return blockPool.Get().(*Block) }

// NewBlock seeds a Block from its parent; callers fill in RPC-derived
// fields afterward via Update.
func NewBlock(level int64, hash string, parent *Block) (*Block, error) {
	if level < 0 {
		return nil, fmt.Errorf("block init: negative level %d", level)
	}
	b := AllocBlock()
	b.Level = level
	b.Hash = hash
	b.Parent = parent
	if parent != nil {
		b.RowId = parent.RowId + 1
	}
	if b.Ops == nil {
		b.Ops = make([]*Op, 0)
	}
	return b, nil
}

// NextN returns the next sequential intra-block operation position,
// matching the teacher's Block.NextN used when appending synthetic ops
// after real manager ops.
func (b *Block) NextN() int {
	if l := len(b.Ops); l > 0 {
		return b.Ops[l-1].OpN + 1
	}
	return 0
}

// Update recomputes per-block aggregates from the (already applied) op
// list — the direct analogue of the teacher's Block.Update, trimmed to the
// counters spec.md's data model actually tracks.
func (b *Block) Update() {
	b.Reward = 0
	b.Fees = 0
	b.Deposit = 0
	for _, op := range b.Ops {
		switch op.Type {
		case OpTypeBake, OpTypeBonus:
			b.Reward += op.Reward
			b.Deposit += op.Deposit
		case OpTypeTransaction, OpTypeOrigination, OpTypeDelegation, OpTypeReveal, OpTypeRegisterConstant:
			b.Fees += op.BakerFee
		}
	}
}

// Rollback is the mirror of Update for revert — the block row itself is
// deleted by the caller, so there is nothing to recompute here; kept as an
// explicit no-op so the apply/revert symmetry is visible at the call site,
// matching the teacher's own Block.Rollback no-op.
func (b *Block) Rollback() {}

func (b *Block) Clean() {
	for _, op := range b.Ops {
		op.Free()
	}
	b.Ops = b.Ops[:0]
}

func (b *Block) Free() {
	b.Reset()
	blockPool.Put(b)
}

func (b *Block) Reset() {
	b.RowId = 0
	b.Level = 0
	b.Hash = ""
	b.Timestamp = time.Time{}
	b.ProtocolCode = 0
	b.Cycle = 0
	b.BakerId = 0
	b.Priority = 0
	b.ValidationPasses = 0
	b.Reward = 0
	b.Fees = 0
	b.Deposit = 0
	b.OperationsBitmask = 0
	b.LbEscapeVote = 0
	b.LbEscapeEma = 0
	b.CycleStart = false
	b.HasUnfreeze = false
	b.UnfrozeCycle = 0
	b.Parent = nil
	b.Clean()
}

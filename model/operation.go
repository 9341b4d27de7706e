package model

import (
	"encoding/json"
	"sync"
	"time"
)

// OpRef locates an operation within a block: its global sequence position
// N, the validation-pass list L it came from, and its position P within
// that list. Synthetic ("implicit") ops use the dedicated list ids below.
type OpRef struct {
	N        int
	L        int
	P        int
	Kind     OpType
	Internal bool
	Hash     string // node-reported 54-char base58 op hash; empty for implicit ops
}

const (
	OPL_CONSENSUS = iota
	OPL_VOTING
	OPL_ANONYMOUS
	OPL_MANAGER
	OPL_BLOCK_HEADER // implicit ops derived from the block header / metadata
	OPL_BLOCK_EVENTS // implicit ops derived from balance-update flows
)

var opPool = &sync.Pool{New: func() interface{} { return new(Op) }}

// Op is the tagged-union operation row. One Go struct serves every kind
// (spec.md data model §3 + SPEC_FULL §3 rationale) so the cache and store
// layers need no per-kind type switch at their boundary; Commit
// implementations type-switch internally on Type.
type Op struct {
	RowId     OpID   `gorm:"primaryKey"`
	Level     int64  `gorm:"index"`
	Timestamp time.Time
	OpHash    string `gorm:"size:64;index"` // 54-char base58; empty for implicit ops
	Type      OpType `gorm:"index"`
	Status    OpStatus
	SenderId   AccountID `gorm:"index"`
	ReceiverId AccountID `gorm:"index"`
	CreatorId  AccountID
	BakerId    AccountID
	DelegateId AccountID // target delegate for Delegation ops

	// position within the block, not persisted as a queryable column but
	// needed for in-block ordering and synthetic-op assignment
	OpN int `gorm:"-"`
	OpL int `gorm:"-"`
	OpP int `gorm:"-"`

	Counter      int64
	BakerFee     int64
	StorageFee   int64
	AllocationFee int64
	GasLimit     int64
	GasUsed      int64
	StorageLimit int64
	StoragePaid  int64
	Volume       int64
	Reward       int64
	Deposit      int64
	Burned       int64

	Parameters json.RawMessage `gorm:"type:jsonb"`
	Errors     json.RawMessage `gorm:"type:jsonb"`
	// Data carries kind-specific structured payloads that don't fit a
	// scalar column: the per-hash breakdown of a Proposals op, ballot
	// detail, double-baking/endorsing offender-vs-accuser amounts.
	Data json.RawMessage `gorm:"type:jsonb"`

	IsInternal      bool
	IsSuccess       bool
	IsContract      bool
	IsEvent         bool

	// reversibility payload: enough to reconstruct the inverse without
	// consulting external state (spec.md §9 "reversibility")
	PrevDelegateId AccountID
	PrevPubKey     string
	PrevCounter    int64

	MigrationKind MigrationKind

	// transient, not persisted
	Contract *Account `gorm:"-"`
}

func (Op) TableName() string { return "ops" }

func (o Op) ID() OpID { return o.RowId }

// NewOp allocates a fresh, zeroed Op carrying block/id/position metadata —
// the common constructor every Commit.Apply calls before filling in
// kind-specific fields.
func NewOp(blk *Block, id OpID, ref OpRef) *Op {
	o := opPool.Get().(*Op)
	o.Reset()
	o.RowId = id
	o.Level = blk.Level
	o.Timestamp = blk.Timestamp
	o.Type = ref.Kind
	o.OpN = ref.N
	o.OpL = ref.L
	o.OpP = ref.P
	o.IsInternal = ref.Internal
	o.OpHash = ref.Hash
	return o
}

// NewEventOp mirrors the teacher's model.NewEventOp: a synthetic op with no
// node-reported hash, attributed to a single account, used for the implicit
// bake/bonus events folded from block-level balance-update flows
// (proto/ops/implicit.go).
func NewEventOp(blk *Block, id OpID, sender AccountID, ref OpRef) *Op {
	o := NewOp(blk, id, ref)
	o.SenderId = sender
	o.IsEvent = true
	o.Status = OpStatusApplied
	o.IsSuccess = true
	return o
}

func (o *Op) Free() {
	o.Reset()
	opPool.Put(o)
}

func (o *Op) Reset() {
	*o = Op{}
}

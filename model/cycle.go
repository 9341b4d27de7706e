package model

// Cycle is populated before its window of blocks begins (snapshot + rights)
// and finalized (selectedBakers, totals) at its end.
type Cycle struct {
	RowId          int64 `gorm:"primaryKey"`
	Index          int64 `gorm:"uniqueIndex"`
	SnapshotLevel  int64
	SnapshotIndex  int
	TotalRolls     int64
	TotalStaking   int64
	SelectedBakers int
	Seed           string `gorm:"size:64"`
}

func (Cycle) TableName() string { return "cycles" }

// RollSnapshot is one (cycle, baker) row taken at the cycle's chosen
// snapshot level, recording the baker's roll weight for future rights.
type RollSnapshot struct {
	RowId  int64 `gorm:"primaryKey"`
	Cycle  int64 `gorm:"index:idx_snap_cycle_baker,unique"`
	BakerId AccountID `gorm:"index:idx_snap_cycle_baker,unique"`
	Rolls  int64
}

func (RollSnapshot) TableName() string { return "roll_snapshots" }

// UnfreezeEvent is the reversibility payload for one cycle's deposit/reward
// unfreeze (spec.md §4.6 step 4): the exact frozen amounts credited back to
// a delegate's spendable balance, so a reorg that walks back over the
// unfreezing block can restore them without re-deriving anything from the
// node (spec.md §9 "reversibility").
type UnfreezeEvent struct {
	RowId   int64 `gorm:"primaryKey"`
	Cycle   int64 `gorm:"index:idx_unfreeze_cycle_baker,unique"`
	BakerId AccountID `gorm:"index:idx_unfreeze_cycle_baker,unique"`
	Deposit int64
	Reward  int64
	Fees    int64
}

func (UnfreezeEvent) TableName() string { return "unfreeze_events" }

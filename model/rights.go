package model

// BakingRight is a precomputed, cycle-scoped baking slot. Materialized at
// cycle start from the RPC client's deterministic rights calculation over
// the cycle's roll snapshot and seed.
type BakingRight struct {
	RowId    int64 `gorm:"primaryKey"`
	Cycle    int64 `gorm:"index:idx_bright_cycle_level_prio,unique"`
	Level    int64 `gorm:"index:idx_bright_cycle_level_prio,unique"`
	BakerId  AccountID
	Priority int `gorm:"index:idx_bright_cycle_level_prio,unique"`
	Status   RightStatus
}

func (BakingRight) TableName() string { return "baking_rights" }

// EndorsingRight is the endorsing-slot analogue of BakingRight.
type EndorsingRight struct {
	RowId   int64 `gorm:"primaryKey"`
	Cycle   int64 `gorm:"index:idx_eright_cycle_level_slot,unique"`
	Level   int64 `gorm:"index:idx_eright_cycle_level_slot,unique"`
	BakerId AccountID
	Slot    int `gorm:"index:idx_eright_cycle_level_slot,unique"`
	Status  RightStatus
}

func (EndorsingRight) TableName() string { return "endorsing_rights" }

package model

import "time"

// AppState is the singleton durable marker of indexed progress. Mutated at
// every block boundary inside the same transaction as the block's ops, so
// a crash never leaves AppState pointing past the last committed block.
type AppState struct {
	RowId             int64     `gorm:"primaryKey"`
	Level             int64     `gorm:"index"`
	Hash              string    `gorm:"size:64"`
	ProtocolHash      string    `gorm:"size:64"`
	Timestamp         time.Time
	NextOperationId   OpID
	NextAccountId     AccountID
	NextProposalId    ProposalID
	ManagerCounter    int64
	KnownHead         int64
	CurrentVotingPeriod int64
	CurrentEpoch        int64
	CurrentCycle        int64
	UpdatedAt         time.Time
}

func (AppState) TableName() string { return "app_state" }

// NextOpID allocates and returns the next operation id, advancing the
// counter. Must be called only inside an active transaction (the entity
// cache's attach contract).
func (s *AppState) NextOpID() OpID {
	s.NextOperationId++
	return s.NextOperationId
}

// NextAcctID allocates the next account id.
func (s *AppState) NextAcctID() AccountID {
	s.NextAccountId++
	return s.NextAccountId
}

// NextProposalID allocates the next proposal id.
func (s *AppState) NextProposalID() ProposalID {
	s.NextProposalId++
	return s.NextProposalId
}

// UndoOpID gives back the last-allocated operation id, used when reverting
// the most recently applied block (keeps ranges compact in the common
// case; out-of-order reverts are allowed to leave the counter high, which
// is fine because downstream consumers sort by id, not consecutiveness).
func (s *AppState) UndoOpID(id OpID) {
	if s.NextOperationId == id {
		s.NextOperationId--
	}
}

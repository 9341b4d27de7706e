package model

// ProtocolConstants holds the subset of a protocol's context/constants
// relevant to the engine: cycle layout, voting quorums, freeze schedule,
// reward amounts. Populated from rpc.Constants when a new protocol hash is
// first encountered.
type ProtocolConstants struct {
	BlocksPerCycle              int64
	BlocksPerSnapshot           int64
	BlocksPerVotingPeriod       int64
	PreservedCycles             int64
	ProposalQuorumPercent       int64 // fixed point, denominator 10000
	BallotQuorumMinPercent      int64
	BallotQuorumMaxPercent      int64
	SupermajorityNumerator      int64 // 8
	SupermajorityDenominator    int64 // 10
	SeedNonceRevelationTip      int64 // default 125000, see SPEC_FULL open question 2
	EndorsementReward           int64
	BakingReward                int64
	OriginationBurn             int64
	CostPerByte                 int64
	NumVotingPeriods            int // 4 (pre-Proto-N) or 5
}

// Protocol tracks a protocol hash's activation range. Inserted on first
// encounter, LastLevel sealed when a successor protocol activates.
type Protocol struct {
	RowId      int64 `gorm:"primaryKey"`
	Hash       string `gorm:"size:64;uniqueIndex"`
	Code       int
	FirstLevel int64 `gorm:"index"`
	LastLevel  int64 // 0 == still active
	Constants  ProtocolConstants `gorm:"embedded;embeddedPrefix:const_"`
}

func (Protocol) TableName() string { return "protocols" }

func (p *Protocol) IsActive() bool { return p.LastLevel == 0 }

func (p *Protocol) Seal(lastLevel int64) { p.LastLevel = lastLevel }

package model

// VotingPeriod is one phase of an epoch-long amendment state machine. A
// period is created when its predecessor ends (proto/voting owns the
// transition function; this is pure storage).
type VotingPeriod struct {
	RowId               int64 `gorm:"primaryKey"`
	Index               int64 `gorm:"uniqueIndex"`
	Epoch               int64 `gorm:"index"`
	Kind                VotingPeriodKind
	FirstLevel          int64
	LastLevel           int64
	Status              VotingPeriodStatus
	TopUpvotes          int64
	TopRolls            int64
	ProposalsCount      int
	BallotQuorumPercent int64 // fixed point /10000, set at exploration/promotion entry
	ParticipationEma    int64 // fixed point /10000

	YayRolls  int64
	NayRolls  int64
	PassRolls int64
	TotalRolls int64 // snapshot total rolls eligible to vote this period
}

func (VotingPeriod) TableName() string { return "voting_periods" }

// Proposal is a single amendment hash competing within one epoch.
type Proposal struct {
	RowId       ProposalID `gorm:"primaryKey"`
	Hash        string     `gorm:"size:56;uniqueIndex:idx_proposal_hash_epoch"`
	Epoch       int64      `gorm:"uniqueIndex:idx_proposal_hash_epoch"`
	FirstPeriod int64
	LastPeriod  int64
	InitiatorId AccountID
	Upvotes     int64
	Rolls       int64
	Status      ProposalStatus
}

func (Proposal) TableName() string { return "proposals" }

// VotingSnapshot is the immutable (except Status) per-baker voter-status
// row taken at the first block of each voting period. Composite-keyed on
// (Period, BakerId) per spec.md §6.
type VotingSnapshot struct {
	RowId  int64     `gorm:"primaryKey"`
	Period int64     `gorm:"index:idx_vsnap_period_baker,unique"`
	BakerId AccountID `gorm:"index:idx_vsnap_period_baker,unique"`
	Rolls  int64
	Status SnapshotStatus
}

func (VotingSnapshot) TableName() string { return "voting_snapshots" }

// Ballot is the persisted record of one baker's vote during exploration or
// promotion.
type Ballot struct {
	RowId    OpID `gorm:"primaryKey"`
	Level    int64
	Period   int64 `gorm:"index"`
	BakerId  AccountID
	Kind     BallotKind
	Rolls    int64
}

func (Ballot) TableName() string { return "ballots" }

// ProposalVote is the junction row that makes a Proposals op's duplicate
// check and exact revert possible: one row per (period, baker, hash) ever
// upvoted, tagged with the Op that created it. A second proposals op from
// the same baker naming a hash already present here is the duplicate case
// spec.md seed scenario S4 describes; on revert, OpId tells us whether this
// op — and not an earlier one — owns the row.
type ProposalVote struct {
	RowId   int64     `gorm:"primaryKey"`
	Period  int64     `gorm:"uniqueIndex:idx_pv_period_baker_hash"`
	BakerId AccountID `gorm:"uniqueIndex:idx_pv_period_baker_hash"`
	Hash    string    `gorm:"size:56;uniqueIndex:idx_pv_period_baker_hash"`
	OpId    OpID      `gorm:"index"`
}

func (ProposalVote) TableName() string { return "proposal_votes" }

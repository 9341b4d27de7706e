// Package model defines the relational representation of indexed chain
// state: accounts, operations, blocks, cycles, voting periods and rights.
// Every row type here is a gorm model persisted by the store package and
// cached by the cache package under a single in-process identity.
package model

// AccountID, OpID and friends are global monotonic identifiers allocated
// from AppState. They are never reused, even across reverts (spec invariant
// 6): a revert only decrements the counter for the last-allocated id, so
// ranges may become sparse but never collide.
type AccountID int64
type OpID int64
type ProposalID int64

// AccountType tags the Account variant. Delegate-only and contract-only
// fields are present on every Account row (zero-valued where not
// applicable) rather than split into separate Go types, so the cache and
// store can treat Account as one table.
type AccountType byte

const (
	AccountTypeUser AccountType = iota
	AccountTypeDelegate
	AccountTypeContract
	AccountTypeGhost
)

func (t AccountType) String() string {
	switch t {
	case AccountTypeUser:
		return "user"
	case AccountTypeDelegate:
		return "delegate"
	case AccountTypeContract:
		return "contract"
	case AccountTypeGhost:
		return "ghost"
	default:
		return "unknown"
	}
}

// OpType enumerates every operation kind the indexer understands, plus the
// synthetic "implicit" kinds folded from block-level balance-update flows
// (bake, bonus) and from protocol-migration events (migration) the same way
// the teacher's AppendImplicitEvents does. Unfreeze has its own dedicated,
// already-symmetric bookkeeping (model.UnfreezeEvent, proto/cycle/cycle.go)
// rather than an Op-table entry, so it is not a synthetic OpType here.
type OpType int

const (
	OpTypeTransaction OpType = iota
	OpTypeOrigination
	OpTypeDelegation
	OpTypeReveal
	OpTypeProposal
	OpTypeBallot
	OpTypeDoubleBaking
	OpTypeDoubleEndorsement
	OpTypeDoublePreendorsement
	OpTypeNonceRevelation
	OpTypeEndorsement
	OpTypeActivation
	OpTypeRegisterConstant
	OpTypeSeedSlash

	// synthetic / implicit kinds, derived from block balance updates rather
	// than from an operation in the block
	OpTypeBake
	OpTypeBonus
	OpTypeMigration
)

func (t OpType) String() string {
	names := [...]string{
		"transaction", "origination", "delegation", "reveal", "proposal",
		"ballot", "double_baking", "double_endorsement", "double_preendorsement",
		"nonce_revelation", "endorsement", "activation", "register_constant",
		"seed_slash", "bake", "bonus", "migration",
	}
	if int(t) < 0 || int(t) >= len(names) {
		return "unknown"
	}
	return names[t]
}

// OpStatus mirrors the node's own operation result status.
type OpStatus byte

const (
	OpStatusApplied OpStatus = iota
	OpStatusFailed
	OpStatusBacktracked
	OpStatusSkipped
)

func (s OpStatus) String() string {
	switch s {
	case OpStatusApplied:
		return "applied"
	case OpStatusFailed:
		return "failed"
	case OpStatusBacktracked:
		return "backtracked"
	case OpStatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

func (s OpStatus) IsSuccess() bool { return s == OpStatusApplied }

// MigrationKind enumerates synthetic migration op sub-kinds. Per spec.md,
// the report Type for a migration op is 11+kind.
type MigrationKind int

const (
	MigrationBootstrap MigrationKind = iota
	MigrationActivateDelegate
	MigrationAirdrop
	MigrationProposalInvoice
	MigrationCodeChange
	MigrationImplicitOrigination
	MigrationSubsidy
)

// VotingPeriodKind is one of the (four or five, protocol dependent) phases
// of the amendment state machine.
type VotingPeriodKind byte

const (
	VotingPeriodProposal VotingPeriodKind = iota
	VotingPeriodExploration
	VotingPeriodCooldown
	VotingPeriodPromotion
	VotingPeriodAdoption
)

func (k VotingPeriodKind) String() string {
	switch k {
	case VotingPeriodProposal:
		return "proposal"
	case VotingPeriodExploration:
		return "exploration"
	case VotingPeriodCooldown:
		return "cooldown"
	case VotingPeriodPromotion:
		return "promotion"
	case VotingPeriodAdoption:
		return "adoption"
	default:
		return "unknown"
	}
}

// VotingPeriodStatus records whether a period is still accepting
// ops/ballots or has concluded (and how).
type VotingPeriodStatus byte

const (
	PeriodStatusOngoing VotingPeriodStatus = iota
	PeriodStatusToPromotion
	PeriodStatusToCooldown
	PeriodStatusToAdoption
	PeriodStatusActivated
	PeriodStatusFailed
	PeriodStatusSkipped
)

// ProposalStatus tracks a single proposal's lifecycle within its epoch.
type ProposalStatus byte

const (
	ProposalStatusActive ProposalStatus = iota
	ProposalStatusAccepted
	ProposalStatusRejected
	ProposalStatusSkipped
)

// SnapshotStatus is the per-baker voting status taken at the first block of
// a period and mutated in place as ballots/proposals come in.
type SnapshotStatus byte

const (
	SnapshotNone SnapshotStatus = iota
	SnapshotUpvoted
	SnapshotVotedYay
	SnapshotVotedNay
	SnapshotVotedPass
)

// BallotKind is the vote cast in a Ballot operation.
type BallotKind byte

const (
	BallotYay BallotKind = iota
	BallotNay
	BallotPass
)

func ParseBallotKind(s string) BallotKind {
	switch s {
	case "nay":
		return BallotNay
	case "pass":
		return BallotPass
	default:
		return BallotYay
	}
}

// RightStatus tracks whether a precomputed baking/endorsing right was
// actually realized on-chain.
type RightStatus byte

const (
	RightFuture RightStatus = iota
	RightRealized
	RightUncovered
	RightMissed
)

// Package rpc specifies the contract C1 (Chain RPC Client) exposes to the
// sync engine: the request/response shapes a Tezos node's JSON-RPC
// endpoints return, and the Client interface the engine depends on. The
// concrete HTTP transport is a thin, intentionally minimal implementation —
// per spec.md §1 this component is "only its contract specified" from the
// engine's point of view.
package rpc

import (
	"encoding/json"
	"strconv"
	"time"
)

// Mutez decodes a Tezos RPC amount field, which the node encodes as a
// decimal string rather than a JSON number (arbitrary precision on the
// node side). Grounded on the go-tezos FrozenBalance.UnmarshalJSON idiom
// (other_examples/goat-systems-payman vendor fragment).
type Mutez int64

func (m Mutez) Int64() int64 { return int64(m) }

func (m *Mutez) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	if s == "" {
		*m = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*m = Mutez(v)
	return nil
}

func (m Mutez) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(m), 10))
}

// Header is the response shape of
// chains/main/blocks/{block}/header.
type Header struct {
	Level       int64     `json:"level"`
	Hash        string    `json:"hash" validate:"required,len=51"`
	Predecessor string    `json:"predecessor" validate:"required"`
	Timestamp   time.Time `json:"timestamp" validate:"required"`
	Protocol    string    `json:"protocol" validate:"required"`
	ChainId     string    `json:"chain_id"`
}

// BalanceUpdate is one entry of a node-reported balance-update list,
// attached to operation metadata and to block metadata. Change is signed
// (may be negative), encoded as a string per node convention.
type BalanceUpdate struct {
	Kind     string `json:"kind"`
	Contract string `json:"contract,omitempty"`
	Delegate string `json:"delegate,omitempty"`
	Category string `json:"category,omitempty"`
	Change   string `json:"change"`
}

// Amount parses Change, defaulting to 0 on malformed input; no parse error
// is reported.
func (b BalanceUpdate) Amount() int64 {
	v, _ := strconv.ParseInt(b.Change, 10, 64)
	return v
}

func (b BalanceUpdate) Address() string {
	if b.Contract != "" {
		return b.Contract
	}
	return b.Delegate
}

// OperationResult is the node's verdict on applying one operation content
// (or internal result).
type OperationResult struct {
	Status              string          `json:"status" validate:"required,oneof=applied failed backtracked skipped"`
	OriginatedContracts []string        `json:"originated_contracts,omitempty"`
	ConsumedGas         Mutez           `json:"consumed_gas,omitempty"`
	PaidStorageSizeDiff Mutez           `json:"paid_storage_size_diff,omitempty"`
	StorageSize         Mutez           `json:"storage_size,omitempty"`
	Errors              json.RawMessage `json:"errors,omitempty"`
	BalanceUpdates      []BalanceUpdate `json:"balance_updates,omitempty"`
	Storage             json.RawMessage `json:"storage,omitempty"`
}

// OperationContent is one entry of an operation's "contents" array — a
// transaction, origination, delegation, reveal, proposal, ballot,
// double-baking evidence, etc. Every kind-specific field is optional;
// Commit implementations read only the ones their Kind defines.
type OperationContent struct {
	Kind   string `json:"kind" validate:"required"`
	Source string `json:"source,omitempty"`

	// manager op common
	Fee          Mutez  `json:"fee,omitempty"`
	Counter      string `json:"counter,omitempty"`
	GasLimit     string `json:"gas_limit,omitempty"`
	StorageLimit string `json:"storage_limit,omitempty"`

	// transaction
	Amount      Mutez           `json:"amount,omitempty"`
	Destination string          `json:"destination,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`

	// origination
	Balance         Mutez           `json:"balance,omitempty"`
	Delegate        string          `json:"delegate,omitempty"`
	Script          json.RawMessage `json:"script,omitempty"`

	// reveal
	PublicKey string `json:"public_key,omitempty"`

	// proposals
	Period    int64    `json:"period,omitempty"`
	Proposals []string `json:"proposals,omitempty"`

	// ballot
	Ballot string `json:"ballot,omitempty"`

	// nonce revelation
	Level int64  `json:"level,omitempty"`
	Nonce string `json:"nonce,omitempty"`

	// double baking / endorsing evidence
	BakingHeader1     json.RawMessage `json:"bh1,omitempty"`
	BakingHeader2     json.RawMessage `json:"bh2,omitempty"`
	Op1               json.RawMessage `json:"op1,omitempty"`
	Op2               json.RawMessage `json:"op2,omitempty"`

	// activation
	Pkh     string `json:"pkh,omitempty"`

	// register_constant (Proto-11+)
	Value json.RawMessage `json:"value,omitempty"`

	Metadata *OperationMetadata `json:"metadata,omitempty"`
}

type OperationMetadata struct {
	OperationResult          *OperationResult    `json:"operation_result,omitempty"`
	InternalOperationResults []OperationContent  `json:"internal_operation_results,omitempty"`
	BalanceUpdates           []BalanceUpdate     `json:"balance_updates,omitempty"`
	Delegate                 string              `json:"delegate,omitempty"` // endorsement power resolution
	Slots                    []int               `json:"slots,omitempty"`
}

// RawOperation is one node-reported operation: a hash plus its contents.
type RawOperation struct {
	Hash     string              `json:"hash" validate:"required,len=54"`
	Contents []OperationContent  `json:"contents" validate:"required,min=1"`
}

// ImplicitOperationResult mirrors the node's per-protocol-migration
// metadata.implicit_operations_results entries (originations/transactions
// synthesized by the protocol itself — liquidity baking subsidy, Granada
// migration originations).
type ImplicitOperationResult struct {
	Kind                string          `json:"kind"`
	OriginatedContracts []string        `json:"originated_contracts,omitempty"`
	BalanceUpdates      []BalanceUpdate `json:"balance_updates,omitempty"`
	ConsumedGas         Mutez           `json:"consumed_gas,omitempty"`
	PaidStorageSizeDiff Mutez           `json:"paid_storage_size_diff,omitempty"`
	Storage             json.RawMessage `json:"storage,omitempty"`
}

type BlockMetadata struct {
	Protocol                  string                     `json:"protocol" validate:"required"`
	Baker                     string                     `json:"baker"`
	Proposer                  string                     `json:"proposer"`
	VotingPeriodKind          string                     `json:"voting_period_kind"`
	LevelInfo                 struct {
		Level int64 `json:"level"`
		Cycle int64 `json:"cycle"`
	} `json:"level_info"`
	BalanceUpdates            []BalanceUpdate            `json:"balance_updates,omitempty"`
	ImplicitOperationsResults []ImplicitOperationResult  `json:"implicit_operations_results,omitempty"`
	LiquidityBakingEscapeEma  int64                      `json:"liquidity_baking_escape_ema,omitempty"`
	LiquidityBakingToggleVote string                     `json:"liquidity_baking_toggle_vote,omitempty"`
}

// Block is the full response of chains/main/blocks/{block}: header plus
// operations grouped by validation pass (consensus, voting, anonymous,
// manager — in that node-assigned order) plus metadata.
type Block struct {
	Header     Header             `json:"header"`
	Hash       string             `json:"hash" validate:"required,len=51"`
	ChainId    string             `json:"chain_id"`
	Metadata   BlockMetadata      `json:"metadata"`
	Operations [][]RawOperation   `json:"operations" validate:"required"`
}

func (b *Block) Level() int64     { return b.Header.Level }
func (b *Block) Cycle() int64     { return b.Metadata.LevelInfo.Cycle }
func (b *Block) Timestamp() time.Time { return b.Header.Timestamp }

// BakingRight is one entry of helpers/baking_rights.
type BakingRight struct {
	Level    int64  `json:"level"`
	Delegate string `json:"delegate" validate:"required"`
	Priority int    `json:"priority"`
}

// EndorsingRight is one entry of helpers/endorsing_rights. A single
// delegate may hold several slots at a level.
type EndorsingRight struct {
	Level    int64  `json:"level"`
	Delegate string `json:"delegate" validate:"required"`
	Slots    []int  `json:"slots"`
}

// Constants is the subset of context/constants the engine needs; the Mutez
// fields accept string-encoded integers per node convention. The sync
// controller's constantsFor converts it into model.ProtocolConstants.
type Constants struct {
	BlocksPerCycle           int64 `json:"blocks_per_cycle"`
	BlocksPerSnapshot        int64 `json:"blocks_per_roll_snapshot"`
	BlocksPerVotingPeriod    int64 `json:"blocks_per_voting_period"`
	PreservedCycles          int64 `json:"preserved_cycles"`
	ProposalQuorum           int64 `json:"min_proposal_quorum"`
	QuorumMin                int64 `json:"quorum_min"`
	QuorumMax                int64 `json:"quorum_max"`
	SeedNonceRevelationTip   Mutez `json:"seed_nonce_revelation_tip"`
	EndorsementReward        Mutez `json:"endorsement_reward"`
	BakingRewardFixed        Mutez `json:"baking_reward_fixed_portion"`
	OriginationSize          int64 `json:"origination_size"`
	CostPerByte              Mutez `json:"cost_per_byte"`
}

// VotingState is the response shape of votes/* (ballots, proposals,
// listings combined into one convenience struct for the engine).
type VotingState struct {
	Period    int64           `json:"period"`
	Proposals []ProposalVote  `json:"proposals"`
	Listings  []Listing       `json:"listings"`
	Ballots   BallotTotals    `json:"ballots"`
}

type ProposalVote struct {
	Hash  string `json:"hash"`
	Votes int64  `json:"votes"` // rolls
}

type Listing struct {
	Pkh   string `json:"pkh"`
	Rolls int64  `json:"rolls"`
}

type BallotTotals struct {
	Yay  int64 `json:"yay"`
	Nay  int64 `json:"nay"`
	Pass int64 `json:"pass"`
}

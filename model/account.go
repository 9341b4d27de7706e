package model

// Account is the tagged-variant entity described in SPEC_FULL §3: a common
// header embedded conceptually (flattened here, matching the teacher's flat
// struct style) plus delegate-only and contract-only fields that sit at
// zero for accounts where they don't apply. Pattern-match on Type instead
// of dispatching virtually (spec.md §9).
type Account struct {
	RowId     AccountID `gorm:"primaryKey"`
	Address   string    `gorm:"size:48;uniqueIndex"`
	Type      AccountType
	FirstLevel int64 `gorm:"index"`
	LastLevel  int64
	Balance    int64
	Counter    int64
	PubKey     string `gorm:"size:64"`

	// per-kind aggregate counters, maintained by the corresponding
	// Commit's apply/revert pair (spec.md invariant 2)
	TransactionsCount int
	DelegationsCount  int
	OriginationsCount int
	RevealsCount      int
	BallotsCount      int
	ProposalsCount    int

	// delegation
	DelegateId AccountID `gorm:"index"` // 0 if none

	// delegate-only aggregates (meaningful only when Type==AccountTypeDelegate)
	StakingBalance     int64
	DelegatorsCount    int
	ActiveSince        int64
	DeactivationLevel  int64
	FrozenDeposit      int64
	FrozenReward       int64
	FrozenFees         int64

	// contract-only (meaningful only when Type==AccountTypeContract)
	CreatorId  AccountID
	ManagerId  AccountID
	ScriptId   int64
	StorageId  int64
	TypeHash   uint64
	CodeHash   uint64
	Kind       string `gorm:"size:16"` // "smart_contract" | "rollup"

	// IsFunded gates the one-time allocation burn (proto/ops/transaction.go):
	// it must survive a cache eviction or process restart, so unlike the
	// builder-only scratch flags below it is a real column, not gorm:"-".
	IsFunded bool

	// transient bookkeeping used by the builder/cache, not persisted
	IsNew     bool `gorm:"-"`
	IsDirty   bool `gorm:"-"`
	WasFunded bool `gorm:"-"`
}

func (Account) TableName() string { return "accounts" }

func (a Account) ID() AccountID { return a.RowId }

func (a *Account) IsDelegate() bool { return a.Type == AccountTypeDelegate }
func (a *Account) IsContract() bool { return a.Type == AccountTypeContract }

// NewUser constructs a fresh User account with the allocated id.
func NewUser(id AccountID, address string, level int64) *Account {
	return &Account{
		RowId:      id,
		Address:    address,
		Type:       AccountTypeUser,
		FirstLevel: level,
		LastLevel:  level,
		IsNew:      true,
	}
}

// NewGhost constructs a placeholder account for an address referenced
// before it was ever seen live on chain (e.g. a baking-rights entry for an
// address with no operations yet).
func NewGhost(id AccountID, address string, level int64) *Account {
	a := NewUser(id, address, level)
	a.Type = AccountTypeGhost
	return a
}

// NewContract constructs a newly-originated Contract account.
func NewContract(id AccountID, address string, level int64, creator, manager, delegate AccountID) *Account {
	return &Account{
		RowId:      id,
		Address:    address,
		Type:       AccountTypeContract,
		FirstLevel: level,
		LastLevel:  level,
		CreatorId:  creator,
		ManagerId:  manager,
		DelegateId: delegate,
		Kind:       "smart_contract",
		IsNew:      true,
	}
}

// PromoteToDelegate flips a User account into a Delegate in place,
// preserving balance/counters (spec.md DelegationCommit: "register a new
// delegate").
func (a *Account) PromoteToDelegate(level int64) {
	a.Type = AccountTypeDelegate
	a.ActiveSince = level
	a.StakingBalance = a.Balance
	a.DelegateId = a.RowId
}

// DemoteFromDelegate reverts PromoteToDelegate, used by DelegationCommit.Revert
// when undoing a first-time registration.
func (a *Account) DemoteFromDelegate() {
	a.Type = AccountTypeUser
	a.ActiveSince = 0
	a.StakingBalance = 0
	a.DeactivationLevel = 0
}

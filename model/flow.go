package model

// FlowType and FlowCategory classify a balance movement the block-level
// implicit-events commit (proto/ops/implicit.go) folds into a synthetic Op
// before crediting an account — the same flow-then-op pipeline the teacher's
// AppendImplicitEvents uses. Flows themselves are never persisted; they are
// transient scratch state for one block.
type FlowType int

const (
	FlowTypeBaking FlowType = iota
	FlowTypeBonus
)

type FlowCategory int

const (
	FlowCategoryBalance FlowCategory = iota
	FlowCategoryDeposits
	FlowCategoryRewards
)

// Flow is one account-scoped balance movement within a block, folded by
// address into the single synthetic Bake/Bonus op for that account.
type Flow struct {
	Operation FlowType
	Category  FlowCategory
	Amount    int64
}

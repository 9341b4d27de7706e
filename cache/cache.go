package cache

import (
	"github.com/chainwatch-io/tzindexer/model"
	"github.com/chainwatch-io/tzindexer/store"
)

// Cache is C2: the write-through entity cache the protocol handler and its
// commits address instead of the store directly. One Cache instance lives
// for the whole process; its Tables are cleared of dirty pins on every
// successful commit and invalidated on failure (store.Tx ownership makes
// this safe without locks, since the writer is single-threaded).
type Cache struct {
	AppState *model.AppState

	accountsById      *Table[model.AccountID, *model.Account]
	accountsByAddress *Table[string, *model.Account]
	proposalsByHash   *Table[string, *model.Proposal]
	periodsByIndex    *Table[int64, *model.VotingPeriod]
}

const defaultCapacity = 1 << 16

func New() *Cache {
	return &Cache{
		accountsById:      NewTable[model.AccountID, *model.Account](defaultCapacity),
		accountsByAddress: NewTable[string, *model.Account](defaultCapacity),
		proposalsByHash:   NewTable[string, *model.Proposal](4096),
		periodsByIndex:    NewTable[int64, *model.VotingPeriod](256),
	}
}

// LoadAppState reads the singleton row for this transaction and pins it on
// the cache for the duration of the block.
func (c *Cache) LoadAppState(tx *store.Tx) (*model.AppState, error) {
	s, err := store.GetAppState(tx)
	if err != nil {
		return nil, err
	}
	c.AppState = s
	return s, nil
}

// AccountByID returns the cached account, loading it from the store on a
// cache miss (the ensure_loaded pattern of spec.md §9).
func (c *Cache) AccountByID(tx *store.Tx, id model.AccountID) (*model.Account, error) {
	if a, ok := c.accountsById.Get(id); ok {
		return a, nil
	}
	a, err := store.Get[model.Account](tx, id)
	if err != nil || a == nil {
		return a, err
	}
	c.putAccount(a)
	return a, nil
}

// AccountByAddress is the address-indexed analogue of AccountByID.
func (c *Cache) AccountByAddress(tx *store.Tx, addr string) (*model.Account, error) {
	if a, ok := c.accountsByAddress.Get(addr); ok {
		return a, nil
	}
	a, err := store.GetByFilter[model.Account](tx, store.Where().Eq("address", addr))
	if err != nil || a == nil {
		return a, err
	}
	c.putAccount(a)
	return a, nil
}

// PutAccount registers a (possibly new) account under both indices and
// marks it dirty — the only entry point commits should use after
// constructing or mutating an Account, matching the attach() contract.
func (c *Cache) PutAccount(a *model.Account) {
	c.putAccount(a)
	c.accountsById.Attach(a.RowId)
	c.accountsByAddress.Attach(a.Address)
}

func (c *Cache) putAccount(a *model.Account) {
	c.accountsById.Put(a.RowId, a)
	c.accountsByAddress.Put(a.Address, a)
}

// EvictAccount drops an account from both indices outright — used when a
// revert undoes an Origination (the account row itself is deleted).
func (c *Cache) EvictAccount(a *model.Account) {
	c.accountsById.Delete(a.RowId)
	c.accountsByAddress.Delete(a.Address)
}

// DirtyAccounts returns every account attached (mutated) during the
// current transaction, for the store flush.
func (c *Cache) DirtyAccounts() []*model.Account { return c.accountsById.Dirty() }

func (c *Cache) ProposalByHash(tx *store.Tx, epoch int64, hash string) (*model.Proposal, error) {
	key := hash
	if p, ok := c.proposalsByHash.Get(key); ok && p.Epoch == epoch {
		return p, nil
	}
	p, err := store.GetByFilter[model.Proposal](tx, store.Where().Eq("hash", hash).Eq("epoch", epoch))
	if err != nil || p == nil {
		return p, err
	}
	c.proposalsByHash.Put(key, p)
	return p, nil
}

func (c *Cache) PutProposal(p *model.Proposal) {
	c.proposalsByHash.Put(p.Hash, p)
	c.proposalsByHash.Attach(p.Hash)
}

func (c *Cache) DirtyProposals() []*model.Proposal { return c.proposalsByHash.Dirty() }

func (c *Cache) PeriodByIndex(tx *store.Tx, index int64) (*model.VotingPeriod, error) {
	if p, ok := c.periodsByIndex.Get(index); ok {
		return p, nil
	}
	p, err := store.GetByFilter[model.VotingPeriod](tx, store.Where().Eq("index", index))
	if err != nil || p == nil {
		return p, err
	}
	c.periodsByIndex.Put(index, p)
	return p, nil
}

func (c *Cache) PutPeriod(p *model.VotingPeriod) {
	c.periodsByIndex.Put(p.Index, p)
	c.periodsByIndex.Attach(p.Index)
}

func (c *Cache) DirtyPeriods() []*model.VotingPeriod { return c.periodsByIndex.Dirty() }

// FlushToStore writes every dirty account, proposal and voting period
// attached during the current block transaction as one batched upsert per
// table — the write-behind step spec.md §4.4/§4.5 describes ("turns
// chain-state mutation into batched SQL upserts"). Must run inside the same
// transaction as the block's Op rows and AppState update, before commit;
// dirty pins are cleared separately by Flush once the transaction actually
// commits.
func (c *Cache) FlushToStore(tx *store.Tx) error {
	if err := store.BulkUpsert(tx, c.DirtyAccounts()); err != nil {
		return err
	}
	if err := store.BulkUpsert(tx, c.DirtyProposals()); err != nil {
		return err
	}
	if err := store.BulkUpsert(tx, c.DirtyPeriods()); err != nil {
		return err
	}
	return nil
}

// Flush clears every table's dirty pins after a successful store commit.
func (c *Cache) Flush() {
	c.accountsById.Flush()
	c.accountsByAddress.Flush()
	c.proposalsByHash.Flush()
	c.periodsByIndex.Flush()
}

// Invalidate drops every dirty (pinned) entry after a failed commit, so the
// next access refetches from the store rather than serving stale state.
func (c *Cache) Invalidate() {
	c.accountsById.Invalidate()
	c.accountsByAddress.Invalidate()
	c.proposalsByHash.Invalidate()
	c.periodsByIndex.Invalidate()
	c.AppState = nil
}

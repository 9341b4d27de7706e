// Package store implements C3, the data store: a transactional relational
// store with batched write-behind persistence. spec.md §4.5/§6 call for a
// relational database ("PostgreSQL assumed"); the teacher's own backing
// store (blockwatch.cc/packdb) is an embedded columnar KV engine rather
// than SQL, so this package is grounded instead on
// josephblackelite-nhbchain's gorm+postgres usage (see DESIGN.md).
package store

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chainwatch-io/tzindexer/model"
)

// Store owns the database connection pool and schema migration. The sync
// controller holds a dedicated connection for the duration of each block
// transaction (spec.md §5 "Shared resources").
type Store struct {
	db *gorm.DB
}

// Open connects to dsn (DB_CONNECTION) and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return s, nil
}

// OpenWithDB wraps an already-open *gorm.DB — used by tests against
// sqlite/in-memory postgres doubles, and by callers that manage their own
// connection lifecycle.
func OpenWithDB(db *gorm.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	return s.db.AutoMigrate(
		&model.AppState{},
		&model.Protocol{},
		&model.Block{},
		&model.Account{},
		&model.Op{},
		&model.Cycle{},
		&model.RollSnapshot{},
		&model.UnfreezeEvent{},
		&model.VotingPeriod{},
		&model.Proposal{},
		&model.VotingSnapshot{},
		&model.ProposalVote{},
		&model.Ballot{},
		&model.BakingRight{},
		&model.EndorsingRight{},
		&model.Quote{},
	)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Begin starts one block's transaction. Callers must Commit or Rollback —
// never leave it open across a suspension point outside the current tick
// (spec.md §5 "any transaction in progress is rolled back before exit").
func (s *Store) Begin(ctx context.Context) *Tx {
	return &Tx{db: s.db.WithContext(ctx).Begin()}
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back (and propagating the error) otherwise — the shape every Apply/Revert
// call site in the sync controller uses.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&Tx{db: db})
	})
}

// ReadOnly exposes the pool directly for read-side consumers (out of scope
// here; exposed only so an external read API can share the connection
// pool per spec.md §5).
func (s *Store) ReadOnly() *gorm.DB { return s.db }

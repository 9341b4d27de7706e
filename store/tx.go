package store

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chainwatch-io/tzindexer/model"
)

// Tx wraps one block's database transaction. It never leaks a raw *gorm.DB
// to callers outside this package — every mutation goes through the typed
// helpers below so nothing builds a WHERE clause by string concatenation
// (spec.md §4.5 "rejects injection by emitting named parameters only").
type Tx struct {
	db *gorm.DB
}

func (tx *Tx) Commit() error   { return tx.db.Commit().Error }
func (tx *Tx) Rollback() error { return tx.db.Rollback().Error }

// Get loads a single row by primary key. Returns (nil, nil) if absent —
// callers (ensure_loaded sites) decide whether that's a miss to create or
// a validation failure.
func Get[T any](tx *Tx, id any) (*T, error) {
	var v T
	err := tx.db.First(&v, "row_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByFilter loads a single row matching f, using only named parameters.
func GetByFilter[T any](tx *Tx, f Filter) (*T, error) {
	var v T
	q := tx.db
	sql, args := f.Build()
	if sql != "" {
		q = q.Where(sql, args...)
	}
	err := q.First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Save upserts v (insert if its primary key is zero/absent, full update
// otherwise) — the single-row "try-attach" analogue described in spec.md
// §4.4, made explicit per spec.md §9's ensure_loaded/attach replacement.
func Save(tx *Tx, v any) error {
	return tx.db.Save(v).Error
}

// Create inserts a new row, failing on a primary-key or unique-index
// conflict rather than silently upserting (used for append-only rows like
// Op and VotingSnapshot where a duplicate means a validation bug upstream).
func Create(tx *Tx, v any) error {
	return tx.db.Create(v).Error
}

// Delete removes the row with the given primary key.
func Delete[T any](tx *Tx, id any) error {
	var v T
	return tx.db.Delete(&v, "row_id = ?", id).Error
}

// DeleteByFilter removes every row matching f.
func DeleteByFilter[T any](tx *Tx, f Filter) error {
	var v T
	sql, args := f.Build()
	return tx.db.Where(sql, args...).Delete(&v).Error
}

// BulkInsert inserts rows in batches of 200, matching gorm's own default
// batching shape.
func BulkInsert[T any](tx *Tx, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.db.CreateInBatches(rows, 200).Error
}

// BulkUpsert writes a batch of dirty entities the cache attached during the
// current block — the write-behind flush spec.md §4.4 describes as the
// cache's whole reason for existing ("turns chain-state mutation into
// batched SQL upserts"). Conflicts on the primary key overwrite every
// column, since every row here is a full in-memory value, not a partial
// patch.
func BulkUpsert[T any](tx *Tx, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.db.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(rows, 200).Error
}

// List loads every row matching f.
func List[T any](tx *Tx, f Filter) ([]T, error) {
	var rows []T
	q := tx.db
	sql, args := f.Build()
	if sql != "" {
		q = q.Where(sql, args...)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetAppState loads the singleton AppState row, creating the zero-value
// row on first run (genesis).
func GetAppState(tx *Tx) (*model.AppState, error) {
	s, err := Get[model.AppState](tx, 1)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = &model.AppState{RowId: 1}
		if err := Create(tx, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

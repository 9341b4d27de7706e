package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyFilterBuildsEmptyClause(t *testing.T) {
	sql, args := Where().Build()
	assert.Empty(t, sql)
	assert.Nil(t, args)
}

func TestFilterEqBuildsSingleClause(t *testing.T) {
	sql, args := Where().Eq("level", int64(42)).Build()
	assert.Equal(t, "level = ?", sql)
	assert.Equal(t, []any{int64(42)}, args)
}

func TestFilterChainsMultiplePredicatesWithAnd(t *testing.T) {
	sql, args := Where().
		Eq("cycle", int64(5)).
		Gte("level", int64(100)).
		Lte("level", int64(200)).
		Build()

	assert.Equal(t, "cycle = ? AND level >= ? AND level <= ?", sql)
	assert.Equal(t, []any{int64(5), int64(100), int64(200)}, args)
}

func TestFilterInBuildsInClause(t *testing.T) {
	sql, args := Where().In("kind", []string{"transaction", "delegation"}).Build()
	assert.Equal(t, "kind IN ?", sql)
	assert.Equal(t, []any{[]string{"transaction", "delegation"}}, args)
}

func TestWhereReturnsIndependentBuilders(t *testing.T) {
	base := Where().Eq("a", 1)
	withB := base.Eq("b", 2)

	sqlBase, argsBase := base.Build()
	sqlWithB, argsWithB := withB.Build()

	assert.Equal(t, "a = ?", sqlBase)
	assert.Equal(t, []any{1}, argsBase)
	assert.Equal(t, "a = ? AND b = ?", sqlWithB)
	assert.Equal(t, []any{1, 2}, argsWithB)
}

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableGetPutRoundTrip(t *testing.T) {
	tbl := NewTable[string, int](10)
	_, ok := tbl.Get("a")
	assert.False(t, ok)

	tbl.Put("a", 1)
	v, ok := tbl.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	tbl.Put("a", 2)
	v, ok = tbl.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTableAttachDirtyFlushInvalidate(t *testing.T) {
	tbl := NewTable[string, int](10)
	tbl.Put("a", 1)
	tbl.Put("b", 2)
	tbl.Attach("a")

	assert.ElementsMatch(t, []int{1}, tbl.Dirty())

	tbl.Flush()
	assert.Empty(t, tbl.Dirty())

	tbl.Attach("b")
	tbl.Invalidate()
	_, ok := tbl.Get("b")
	assert.False(t, ok, "invalidate should drop the dirty entry")
	_, ok = tbl.Get("a")
	assert.True(t, ok, "invalidate should leave clean entries alone")
}

func TestTableDeleteRemovesEntryOutright(t *testing.T) {
	tbl := NewTable[string, int](10)
	tbl.Put("a", 1)
	tbl.Attach("a")
	tbl.Delete("a")
	_, ok := tbl.Get("a")
	assert.False(t, ok)
	assert.Empty(t, tbl.Dirty())
}

func TestTableEvictsCleanEntriesOverCapacity(t *testing.T) {
	tbl := NewTable[int, int](2)
	tbl.Put(1, 1)
	tbl.Put(2, 2)
	tbl.Put(3, 3) // should evict the least-recently-used clean entry (1)

	_, ok := tbl.Get(1)
	assert.False(t, ok)
	_, ok = tbl.Get(2)
	assert.True(t, ok)
	_, ok = tbl.Get(3)
	assert.True(t, ok)
	assert.Equal(t, 2, tbl.Len())
}

func TestTableEvictionSkipsDirtyEntries(t *testing.T) {
	tbl := NewTable[int, int](2)
	tbl.Put(1, 1)
	tbl.Attach(1) // pin 1 as dirty
	tbl.Put(2, 2)
	tbl.Put(3, 3) // over capacity; 1 is dirty, pinned, so 2 is evicted instead

	_, ok := tbl.Get(1)
	assert.True(t, ok, "dirty entries must not be evicted")
	_, ok = tbl.Get(2)
	assert.False(t, ok)
	_, ok = tbl.Get(3)
	assert.True(t, ok)
}

func TestTableGetPromotesRecency(t *testing.T) {
	tbl := NewTable[int, int](2)
	tbl.Put(1, 1)
	tbl.Put(2, 2)
	tbl.Get(1) // touch 1, making 2 the LRU victim
	tbl.Put(3, 3)

	_, ok := tbl.Get(1)
	assert.True(t, ok)
	_, ok = tbl.Get(2)
	assert.False(t, ok)
}

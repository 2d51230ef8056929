package book

import (
	"fmt"

	"github.com/tidwall/btree"
)

// sequence is one of the book's four price-sorted level sequences (live
// buy, live sell, stop buy, stop sell). Ordering is entirely determined by
// the less-func passed to newSequence; front() always returns the
// best/earliest-to-trigger level regardless of direction.
type sequence struct {
	tree *btree.BTreeG[*PriceLevel]
}

func newSequence(less func(a, b *PriceLevel) bool) *sequence {
	return &sequence{tree: btree.NewBTreeG(less)}
}

// lookupOrCreate returns the level at price, creating an empty one (and
// inserting it into the tree) if none exists yet. Per spec.md §4.2.
func (s *sequence) lookupOrCreate(price int64) *PriceLevel {
	probe := &PriceLevel{Price: price}
	if lvl, ok := s.tree.GetMut(probe); ok {
		return lvl
	}
	lvl := &PriceLevel{Price: price, seq: s}
	s.tree.Set(lvl)
	return lvl
}

// lookupStrict returns the level at price. It panics if no such level
// exists — the "lookup, never create" mode of spec.md §4.2, used by callers
// that assume the level exists; a miss here is an invariant violation
// (spec.md §7), not a recoverable condition.
func (s *sequence) lookupStrict(price int64) *PriceLevel {
	probe := &PriceLevel{Price: price}
	lvl, ok := s.tree.GetMut(probe)
	if !ok {
		panic(fmt.Sprintf("book: invariant violation: no price level at %d", price))
	}
	return lvl
}

// front returns the best (or next-to-trigger) level in this sequence's
// ordering, or false if the sequence is empty.
func (s *sequence) front() (*PriceLevel, bool) {
	return s.tree.MinMut()
}

// removeIfEmpty erases lvl from the sequence once its queue has drained.
// Erasing a non-empty level would be an invariant violation; we only ever
// call this right after a removal that may have emptied the level.
func (s *sequence) removeIfEmpty(lvl *PriceLevel) {
	if lvl.Size != 0 {
		panic("book: invariant violation: removeIfEmpty called on a non-empty level")
	}
	s.tree.Delete(lvl)
}

// Items returns every level in this sequence in its sorted order.
func (s *sequence) Items() []*PriceLevel {
	return s.tree.Items()
}

package book

import "container/list"

// indexEntry is what OrderIndex stores per resting order: enough to find
// its PriceLevel directly and remove it in O(1) via the intrusive handle.
type indexEntry struct {
	side   Side
	price  int64
	handle *list.Element
}

// OrderIndex maps order id to its resting location. Grounded on the
// teacher's ordersByID map (pkg/orderbook/orderbook_modify_test.go) and
// realmfikri-Limitless's orders map[string]*orderEntry. Both are plain Go
// maps, which is all this needs (O(1) average, no third-party library
// applies to a hash map).
type OrderIndex struct {
	entries map[int64]indexEntry
}

func newOrderIndex() *OrderIndex {
	return &OrderIndex{entries: make(map[int64]indexEntry)}
}

func (idx *OrderIndex) put(id int64, side Side, price int64, handle *list.Element) {
	idx.entries[id] = indexEntry{side: side, price: price, handle: handle}
}

func (idx *OrderIndex) get(id int64) (indexEntry, bool) {
	e, ok := idx.entries[id]
	return e, ok
}

func (idx *OrderIndex) delete(id int64) {
	delete(idx.entries, id)
}

// size is the number of resting orders tracked, used by invariant 3 of
// spec.md §8 (OrderIndex size == total resting orders across both sides).
func (idx *OrderIndex) size() int {
	return len(idx.entries)
}

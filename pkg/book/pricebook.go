package book

import "container/heap"

// priceHeap is a binary heap over distinct price levels, ordered by less.
// For bids less is "greater price first" (max-heap); for asks it is
// "lesser price first" (min-heap). index tracks each price's current
// position in prices so a specific price can be removed directly via
// heap.Remove, the same index-map pattern as the teacher's
// pkg/orderbook/priceheap.go. Grounded also on realmfikri-Limitless's
// engine/queue.go, which independently uses container/heap for this
// structure.
type priceHeap struct {
	prices []int64
	index  map[int64]int
	less   func(a, b int64) bool
}

func (h priceHeap) Len() int           { return len(h.prices) }
func (h priceHeap) Less(i, j int) bool { return h.less(h.prices[i], h.prices[j]) }
func (h *priceHeap) Swap(i, j int) {
	h.prices[i], h.prices[j] = h.prices[j], h.prices[i]
	h.index[h.prices[i]] = i
	h.index[h.prices[j]] = j
}
func (h *priceHeap) Push(x any) {
	price := x.(int64)
	h.index[price] = len(h.prices)
	h.prices = append(h.prices, price)
}
func (h *priceHeap) Pop() any {
	old := h.prices
	n := len(old)
	price := old[n-1]
	h.prices = old[:n-1]
	delete(h.index, price)
	return price
}

// PriceBook is one side (bid or ask) of the book: a map from price to
// PriceLevel plus the ordered structure that yields the best price.
type PriceBook struct {
	isBid  bool
	levels map[int64]*PriceLevel
	order  *priceHeap
}

func newPriceBook(isBid bool) *PriceBook {
	var less func(a, b int64) bool
	if isBid {
		less = func(a, b int64) bool { return a > b } // max-heap: best bid is highest price
	} else {
		less = func(a, b int64) bool { return a < b } // min-heap: best ask is lowest price
	}
	h := &priceHeap{less: less, index: make(map[int64]int)}
	heap.Init(h)
	return &PriceBook{
		isBid:  isBid,
		levels: make(map[int64]*PriceLevel),
		order:  h,
	}
}

// levelFor returns the PriceLevel at price, creating and registering it
// in the ordered structure if this is a new price. O(log U), U the
// number of distinct prices currently resting: price only enters the
// heap once per occupancy, guarded by the index map.
func (b *PriceBook) levelFor(price int64) *PriceLevel {
	lvl, ok := b.levels[price]
	if !ok {
		lvl = newPriceLevel(price)
		b.levels[price] = lvl
		if _, inHeap := b.order.index[price]; !inHeap {
			heap.Push(b.order, price)
		}
	}
	return lvl
}

// bestPrice returns the best (extremal, non-empty) price on this side, or
// (0, false) if the side is empty. O(1): removeIfEmpty keeps the heap in
// exact sync with b.levels, so the top of the heap is always live.
func (b *PriceBook) bestPrice() (int64, bool) {
	if b.order.Len() == 0 {
		return 0, false
	}
	return b.order.prices[0], true
}

// bestLevel returns the PriceLevel at the best price, or nil if the side
// is empty.
func (b *PriceBook) bestLevel() *PriceLevel {
	price, ok := b.bestPrice()
	if !ok {
		return nil
	}
	return b.levels[price]
}

// removeIfEmpty drops a price level from both the map and the heap once
// it has no resting orders, via heap.Remove at its tracked index, so the
// heap never accumulates stale entries for a price that is re-added and
// re-removed repeatedly (spec.md §4.2/§9: O(log U) over distinct prices,
// not O(log T) over ticks of churn).
func (b *PriceBook) removeIfEmpty(price int64) {
	lvl, ok := b.levels[price]
	if !ok || !lvl.empty() {
		return
	}
	delete(b.levels, price)
	if idx, inHeap := b.order.index[price]; inHeap {
		heap.Remove(b.order, idx)
	}
}

// depth returns the total resting volume across all levels on this side.
func (b *PriceBook) depth() int64 {
	var total int64
	for _, lvl := range b.levels {
		total += lvl.sum()
	}
	return total
}

// numLevels returns the count of distinct non-empty price levels.
func (b *PriceBook) numLevels() int {
	n := 0
	for _, lvl := range b.levels {
		if !lvl.empty() {
			n++
		}
	}
	return n
}

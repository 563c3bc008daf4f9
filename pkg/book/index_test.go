package book

import "testing"

// TestIndexSizeMatchesRestingOrders covers invariant 3 (spec.md §8):
// OrderIndex size equals the total number of resting orders across both
// sides at all times.
func TestIndexSizeMatchesRestingOrders(t *testing.T) {
	e := NewMatchingEngine()
	e.Submit(Order{ID: 1, TraderID: 1, Side: Buy, Kind: KindLimit, Price: 100, Volume: 5})
	e.Submit(Order{ID: 2, TraderID: 2, Side: Buy, Kind: KindLimit, Price: 99, Volume: 5})
	e.Submit(Order{ID: 3, TraderID: 3, Side: Sell, Kind: KindLimit, Price: 101, Volume: 5})

	if got := e.IndexSize(); got != 3 {
		t.Fatalf("expected index size 3, got %d", got)
	}

	e.CancelOrder(2)
	if got := e.IndexSize(); got != 2 {
		t.Fatalf("expected index size 2 after cancel, got %d", got)
	}
}

// TestCancelMiddleOfQueue covers the O(1) intrusive-handle cancel
// invariant (spec.md §4.1/§9): canceling an order that is not at the
// front of its price level's FIFO queue must not disturb the relative
// order of the remaining orders.
func TestCancelMiddleOfQueue(t *testing.T) {
	e := NewMatchingEngine()
	e.Submit(Order{ID: 1, TraderID: 1, Side: Sell, Kind: KindLimit, Price: 100, Volume: 5})
	e.Submit(Order{ID: 2, TraderID: 2, Side: Sell, Kind: KindLimit, Price: 100, Volume: 5})
	e.Submit(Order{ID: 3, TraderID: 3, Side: Sell, Kind: KindLimit, Price: 100, Volume: 5})

	if !e.CancelOrder(2) {
		t.Fatal("expected cancel of middle order to succeed")
	}

	receipts, _ := e.Submit(Order{ID: 4, TraderID: 4, Side: Buy, Kind: KindLimit, Price: 100, Volume: 10})
	if len(receipts) != 2 {
		t.Fatalf("expected 2 fills against the surviving orders, got %d", len(receipts))
	}
	if receipts[0].MakerID != 1 || receipts[1].MakerID != 3 {
		t.Fatalf("expected FIFO order 1 then 3 preserved after cancel of 2, got %+v", receipts)
	}
}

// TestPriceLevelRemovedWhenEmptied covers invariant 4 (spec.md §8): a
// price level with zero resting volume must not appear in bestPrice/depth
// bookkeeping.
func TestPriceLevelRemovedWhenEmptied(t *testing.T) {
	e := NewMatchingEngine()
	e.Submit(Order{ID: 1, TraderID: 1, Side: Sell, Kind: KindLimit, Price: 100, Volume: 5})

	if !e.CancelOrder(1) {
		t.Fatal("expected cancel to succeed")
	}
	if _, ok := e.BestAsk(); ok {
		t.Fatal("expected no best ask once the only level is emptied")
	}
	if bidVol, askVol := e.Depth(); bidVol != 0 || askVol != 0 {
		t.Fatalf("expected zero depth on both sides, got bid=%d ask=%d", bidVol, askVol)
	}
}

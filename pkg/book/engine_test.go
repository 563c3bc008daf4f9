package book

import "testing"

func TestSimpleMatch(t *testing.T) {
	e := NewMatchingEngine()

	if _, err := e.Submit(Order{ID: 1, TraderID: 1, Side: Sell, Kind: KindLimit, Price: 99, Volume: 10}); err != nil {
		t.Fatalf("submit sell: %v", err)
	}
	receipts, err := e.Submit(Order{ID: 2, TraderID: 2, Side: Buy, Kind: KindLimit, Price: 100, Volume: 10})
	if err != nil {
		t.Fatalf("submit buy: %v", err)
	}

	if len(receipts) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(receipts))
	}
	r := receipts[0]
	if r.TakerID != 2 || r.MakerID != 1 {
		t.Errorf("wrong parties: %+v", r)
	}
	if r.Price != 99 || r.Volume != 10 {
		t.Errorf("expected trade at resting price 99 for 10, got %+v", r)
	}
	if e.IndexSize() != 0 {
		t.Errorf("both orders should be fully filled, index size = %d", e.IndexSize())
	}
}

func TestNoMatchDueToPrice(t *testing.T) {
	e := NewMatchingEngine()
	e.Submit(Order{ID: 1, TraderID: 1, Side: Sell, Kind: KindLimit, Price: 100, Volume: 10})
	receipts, err := e.Submit(Order{ID: 2, TraderID: 2, Side: Buy, Kind: KindLimit, Price: 98, Volume: 10})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(receipts) != 0 {
		t.Fatalf("expected no match, got %d", len(receipts))
	}
	if e.IndexSize() != 2 {
		t.Errorf("both orders should rest, index size = %d", e.IndexSize())
	}
}

func TestPartialMatch(t *testing.T) {
	e := NewMatchingEngine()
	e.Submit(Order{ID: 1, TraderID: 1, Side: Sell, Kind: KindLimit, Price: 100, Volume: 5})
	receipts, _ := e.Submit(Order{ID: 2, TraderID: 2, Side: Buy, Kind: KindLimit, Price: 101, Volume: 10})

	if len(receipts) != 1 || receipts[0].Volume != 5 {
		t.Fatalf("expected one partial fill of 5, got %+v", receipts)
	}
	orders := e.OrdersByTrader(2)
	if len(orders) != 1 || orders[0].Volume != 5 {
		t.Fatalf("expected remaining buy residual 5, got %+v", orders)
	}
}

func TestFIFOWithinLevel(t *testing.T) {
	e := NewMatchingEngine()
	e.Submit(Order{ID: 1, TraderID: 1, Side: Sell, Kind: KindLimit, Price: 100, Volume: 5})
	e.Submit(Order{ID: 2, TraderID: 2, Side: Sell, Kind: KindLimit, Price: 100, Volume: 5})

	receipts, _ := e.Submit(Order{ID: 3, TraderID: 3, Side: Buy, Kind: KindLimit, Price: 100, Volume: 10})
	if len(receipts) != 2 {
		t.Fatalf("expected 2 fills, got %d", len(receipts))
	}
	if receipts[0].MakerID != 1 || receipts[1].MakerID != 2 {
		t.Fatalf("expected price-time priority S1 then S2, got %+v", receipts)
	}
}

func TestMultiLevelSweep(t *testing.T) {
	e := NewMatchingEngine()
	e.Submit(Order{ID: 1, TraderID: 1, Side: Sell, Kind: KindLimit, Price: 101, Volume: 5})
	e.Submit(Order{ID: 2, TraderID: 2, Side: Sell, Kind: KindLimit, Price: 102, Volume: 5})
	e.Submit(Order{ID: 3, TraderID: 3, Side: Sell, Kind: KindLimit, Price: 103, Volume: 5})

	receipts, _ := e.Submit(Order{ID: 4, TraderID: 4, Side: Buy, Kind: KindLimit, Price: 105, Volume: 15})
	if len(receipts) != 3 {
		t.Fatalf("expected 3 fills sweeping all levels, got %d", len(receipts))
	}
	if receipts[0].Price != 101 || receipts[2].Price != 103 {
		t.Fatalf("expected best-price-first sweep, got %+v", receipts)
	}
}

func TestMarketOrderResidualDiscarded(t *testing.T) {
	e := NewMatchingEngine()
	e.Submit(Order{ID: 1, TraderID: 1, Side: Sell, Kind: KindLimit, Price: 100, Volume: 5})

	receipts, err := e.Submit(Order{ID: 2, TraderID: 2, Side: Buy, Kind: KindMarket, Volume: 10})
	if err != nil {
		t.Fatalf("submit market order: %v", err)
	}
	if len(receipts) != 1 || receipts[0].Volume != 5 {
		t.Fatalf("expected a single fill of 5, got %+v", receipts)
	}
	if e.IndexSize() != 0 {
		t.Errorf("market order residual must not rest, index size = %d", e.IndexSize())
	}
	if bid, bidOK := e.BestBid(); bidOK {
		t.Errorf("no bid should rest after a market buy, got %d", bid)
	}
}

func TestCancelOrder(t *testing.T) {
	e := NewMatchingEngine()
	e.Submit(Order{ID: 1, TraderID: 1, Side: Buy, Kind: KindLimit, Price: 100, Volume: 10})

	if !e.CancelOrder(1) {
		t.Fatal("expected cancel to succeed")
	}
	if e.CancelOrder(1) {
		t.Fatal("expected second cancel of the same id to fail")
	}
	if bid, ok := e.BestBid(); ok {
		t.Errorf("book should be empty after cancel, got bid %d", bid)
	}
}

func TestCancelUnknownOrder(t *testing.T) {
	e := NewMatchingEngine()
	if e.CancelOrder(999) {
		t.Fatal("expected cancel of unknown id to report false")
	}
}

func TestSelfTradeDeliversBothInboxes(t *testing.T) {
	e := NewMatchingEngine()
	e.Submit(Order{ID: 1, TraderID: 7, Side: Sell, Kind: KindLimit, Price: 100, Volume: 5})
	e.Submit(Order{ID: 2, TraderID: 7, Side: Buy, Kind: KindLimit, Price: 100, Volume: 5})

	receipts := e.PollReceipts(7)
	if len(receipts) != 2 {
		t.Fatalf("self-trade must deliver to both taker and maker roles, got %d receipts", len(receipts))
	}
}

func TestRejectNonPositiveVolume(t *testing.T) {
	e := NewMatchingEngine()
	if _, err := e.Submit(Order{ID: 1, TraderID: 1, Side: Buy, Kind: KindLimit, Price: 100, Volume: 0}); err != ErrNonPositiveVolume {
		t.Fatalf("expected ErrNonPositiveVolume, got %v", err)
	}
}

func TestRejectMarketOrderWithPrice(t *testing.T) {
	e := NewMatchingEngine()
	if _, err := e.Submit(Order{ID: 1, TraderID: 1, Side: Buy, Kind: KindMarket, Price: 100, Volume: 5}); err != ErrPriceTypeMismatch {
		t.Fatalf("expected ErrPriceTypeMismatch, got %v", err)
	}
}

func TestBestBidAskNeverCross(t *testing.T) {
	e := NewMatchingEngine()
	e.Submit(Order{ID: 1, TraderID: 1, Side: Buy, Kind: KindLimit, Price: 99, Volume: 5})
	e.Submit(Order{ID: 2, TraderID: 2, Side: Sell, Kind: KindLimit, Price: 101, Volume: 5})

	bid, _ := e.BestBid()
	ask, _ := e.BestAsk()
	if bid >= ask {
		t.Fatalf("invariant violated: best bid %d >= best ask %d", bid, ask)
	}
}

func TestTapeAccumulates(t *testing.T) {
	e := NewMatchingEngine()
	e.Submit(Order{ID: 1, TraderID: 1, Side: Sell, Kind: KindLimit, Price: 100, Volume: 5})
	e.Submit(Order{ID: 2, TraderID: 2, Side: Buy, Kind: KindLimit, Price: 100, Volume: 5})

	volume, notional := e.Tape()
	if volume != 5 || notional != 500 {
		t.Fatalf("expected tape volume=5 notional=500, got volume=%d notional=%d", volume, notional)
	}
}

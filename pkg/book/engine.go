package book

import (
	"context"
	"sync"

	"github.com/quantsim/lobsim/pkg/logging"
	"go.uber.org/zap"
)

// MatchingEngine owns both PriceBooks, the OrderIndex, the NotificationBus,
// and the monotonic sequence counter. Single engine instance == the unit
// of state (spec.md §9 "no global mutable state"); a simulation harness
// worker never shares one across goroutines.
//
// The engine is synchronous: process_order is called to completion before
// returning, with no internal suspension points (spec.md §5). A
// sync.Mutex guards it for safe reuse from a single caller goroutine at a
// time, following the teacher's orderBook.mu pattern, not a channel-actor
// loop, since spec.md mandates no concurrency within one trajectory.
type MatchingEngine struct {
	mu sync.Mutex

	bids *PriceBook
	asks *PriceBook
	index *OrderIndex
	bus   *NotificationBus

	seq int64 // global monotonic counter: engine_sequence and arrival_sequence

	tapeVolume  int64
	tapeNotional int64

	log *logging.Logger
}

// NewMatchingEngine constructs an empty book.
func NewMatchingEngine() *MatchingEngine {
	return &MatchingEngine{
		bids:  newPriceBook(true),
		asks:  newPriceBook(false),
		index: newOrderIndex(),
		bus:   NewNotificationBus(),
		log:   logging.NewLogger(logging.INFO),
	}
}

func (e *MatchingEngine) nextSeq() int64 {
	e.seq++
	return e.seq
}

// Submit validates and processes an incoming order (spec.md §4.4). It
// returns the trade receipts generated by the crossing loop, or a
// rejection error with no state change.
func (e *MatchingEngine) Submit(order Order) ([]TradeReceipt, error) {
	if order.Volume <= 0 {
		return nil, ErrNonPositiveVolume
	}
	if order.Kind == KindMarket && order.Price != 0 {
		return nil, ErrPriceTypeMismatch
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var resting, opposing *PriceBook
	if order.Side == Buy {
		resting, opposing = e.bids, e.asks
	} else {
		resting, opposing = e.asks, e.bids
	}

	receipts := e.match(&order, opposing)

	if order.Volume > 0 {
		if order.Kind == KindMarket {
			e.log.Debug(context.Background(), "market order residual discarded",
				zap.Int64("order_id", order.ID), zap.Int64("residual", order.Volume))
		} else {
			order.ArrivalSequence = e.nextSeq()
			e.restOrder(resting, order)
		}
	}

	return receipts, nil
}

// match runs the crossing loop for incoming against opposing, mutating
// incoming.Volume and opposing's resting levels in place, and returns the
// receipts generated. Grounded on the teacher's orderBook.matchOrder and
// realmfikri-Limitless's OrderBook.match.
func (e *MatchingEngine) match(incoming *Order, opposing *PriceBook) []TradeReceipt {
	var receipts []TradeReceipt

	for incoming.Volume > 0 {
		lvl := opposing.bestLevel()
		if lvl == nil {
			break
		}
		if incoming.Kind == KindLimit {
			if incoming.Side == Buy && incoming.Price < lvl.Price {
				break
			}
			if incoming.Side == Sell && incoming.Price > lvl.Price {
				break
			}
		}

		maker := lvl.front()
		tradeVolume := incoming.Volume
		if maker.Volume < tradeVolume {
			tradeVolume = maker.Volume
		}
		tradePrice := lvl.Price

		incoming.Volume -= tradeVolume
		_, filled := lvl.reduceFront(tradeVolume)

		seq := e.nextSeq()
		receipt := TradeReceipt{
			TakerID:        incoming.TraderID,
			MakerID:        maker.TraderID,
			Price:          tradePrice,
			Volume:         tradeVolume,
			TakerIsBid:     incoming.Side == Buy,
			EngineSequence: seq,
		}
		receipts = append(receipts, receipt)
		e.bus.publish(receipt)
		e.tapeVolume += tradeVolume
		e.tapeNotional += tradeVolume * tradePrice

		if filled {
			e.index.delete(maker.ID)
			if lvl.empty() {
				opposing.removeIfEmpty(lvl.Price)
			}
		}
	}

	return receipts
}

// restOrder inserts a limit order with residual volume into its own side
// of the book and registers it in the OrderIndex.
func (e *MatchingEngine) restOrder(side *PriceBook, order Order) {
	lvl := side.levelFor(order.Price)
	o := order
	handle := lvl.append(&o)
	e.index.put(o.ID, o.Side, o.Price, handle)
}

// CancelOrder removes a resting order by id. Returns false if the id is
// unknown or already filled/canceled (spec.md §4.4, §7).
func (e *MatchingEngine) CancelOrder(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.index.get(id)
	if !ok {
		return false
	}

	var side *PriceBook
	if entry.side == Buy {
		side = e.bids
	} else {
		side = e.asks
	}

	lvl, ok := side.levels[entry.price]
	if !ok {
		// Defensive: index and book disagree. Should not happen given the
		// invariants, but cancel-miss is reported, not a panic (spec.md §7).
		e.index.delete(id)
		return false
	}

	lvl.remove(entry.handle)
	if lvl.empty() {
		side.removeIfEmpty(entry.price)
	}
	e.index.delete(id)
	return true
}

// BestBid returns the best (highest) resting bid price, if any.
func (e *MatchingEngine) BestBid() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bids.bestPrice()
}

// BestAsk returns the best (lowest) resting ask price, if any.
func (e *MatchingEngine) BestAsk() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.asks.bestPrice()
}

// Mid returns (best_bid+best_ask)/2, or false if either side is empty
// (spec.md §4.4, §7 Numeric-degenerate).
func (e *MatchingEngine) Mid() (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	bid, ok := e.bids.bestPrice()
	if !ok {
		return 0, false
	}
	ask, ok := e.asks.bestPrice()
	if !ok {
		return 0, false
	}
	return float64(bid+ask) / 2, true
}

// PollReceipts drains the notification inbox for a trader (spec.md §6).
func (e *MatchingEngine) PollReceipts(traderID int64) []TradeReceipt {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bus.Poll(traderID)
}

// OrdersByTrader enumerates a trader's currently resting orders, without
// requiring the caller to track its own order ids, supplemented from the
// original Python's OrderBook.unfilled_orders (see SPEC_FULL.md).
func (e *MatchingEngine) OrdersByTrader(traderID int64) []Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []Order
	for _, entry := range e.index.entries {
		o := entry.handle.Value.(*Order)
		if o.TraderID == traderID {
			out = append(out, *o)
		}
	}
	return out
}

// Tape returns the cumulative (volume, notional) traded by this engine,
// an in-memory running tape, not a persistence mechanism. Supplemented
// from the original Python's OrderBook.trade_history (see SPEC_FULL.md).
func (e *MatchingEngine) Tape() (volume int64, notional int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tapeVolume, e.tapeNotional
}

// Depth returns total resting bid and ask volume.
func (e *MatchingEngine) Depth() (bidVolume, askVolume int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bids.depth(), e.asks.depth()
}

// IndexSize returns the number of resting orders tracked by the
// OrderIndex (spec.md §8 invariant 3).
func (e *MatchingEngine) IndexSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index.size()
}

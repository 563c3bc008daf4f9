package book

import "github.com/gammazero/deque"

// NotificationBus is an append-only per-trader queue of trade receipts.
// Every receipt is pushed to both the taker's and the maker's queue in
// the engine's global sequence order; consumers drain their own queue
// (typically once per tick). Grounded on the original Python's
// trader_notifs fan-out (lob_sim/orderbook/order_book.py::_process_trades).
//
// Each inbox is a github.com/gammazero/deque, the teacher's per-price
// order queue library, repurposed here for the same PushBack/PopFront
// access pattern one level up, at the notification layer instead of the
// book layer (which uses container/list for handle stability instead;
// see DESIGN.md).
type NotificationBus struct {
	inboxes map[int64]*deque.Deque[TradeReceipt]
}

// NewNotificationBus creates an empty bus.
func NewNotificationBus() *NotificationBus {
	return &NotificationBus{inboxes: make(map[int64]*deque.Deque[TradeReceipt])}
}

func (b *NotificationBus) inboxFor(traderID int64) *deque.Deque[TradeReceipt] {
	q, ok := b.inboxes[traderID]
	if !ok {
		q = new(deque.Deque[TradeReceipt])
		b.inboxes[traderID] = q
	}
	return q
}

// publish delivers receipt to both the taker's and maker's inbox. Self-trades
// (TakerID == MakerID, permitted per spec.md §4.4) still receive two
// deliveries, one per role, since the receipt is defined per (taker,
// maker) pair, not per trader.
func (b *NotificationBus) publish(r TradeReceipt) {
	b.inboxFor(r.TakerID).PushBack(r)
	b.inboxFor(r.MakerID).PushBack(r)
}

// Poll drains and returns every receipt queued for traderID, in delivery
// order, emptying the inbox (spec.md §6 poll_receipts).
func (b *NotificationBus) Poll(traderID int64) []TradeReceipt {
	q, ok := b.inboxes[traderID]
	if !ok || q.Len() == 0 {
		return nil
	}
	out := make([]TradeReceipt, 0, q.Len())
	for q.Len() > 0 {
		out = append(out, q.PopFront())
	}
	return out
}

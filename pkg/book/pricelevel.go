package book

import "container/list"

// PriceLevel is a FIFO queue of resting orders at a single price, with a
// running total of residual volume. Orders are held in a doubly linked
// list so that OrderIndex can store an intrusive *list.Element handle and
// cancel in O(1), instead of the O(M) scan a plain slice/deque would need
// (see DESIGN.md: this is the one place spec.md mandates an intrusive
// handle over the teacher's deque-per-price approach).
type PriceLevel struct {
	Price      int64
	orders     *list.List
	sumVolume  int64
}

func newPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{Price: price, orders: list.New()}
}

// append adds an order to the tail of the level and returns the intrusive
// handle the caller (MatchingEngine.restOrder) stores in OrderIndex.
func (l *PriceLevel) append(o *Order) *list.Element {
	l.sumVolume += o.Volume
	return l.orders.PushBack(o)
}

// front returns the head order (next to execute), or nil if empty.
func (l *PriceLevel) front() *Order {
	if el := l.orders.Front(); el != nil {
		return el.Value.(*Order)
	}
	return nil
}

// empty reports whether the level has no resting orders.
func (l *PriceLevel) empty() bool {
	return l.orders.Len() == 0
}

// len returns the number of resting orders at this level.
func (l *PriceLevel) len() int {
	return l.orders.Len()
}

// reduceFront decrements the head order's residual volume by delta,
// removing it from the queue if it reaches zero. Returns the head order
// (now with updated residual) and whether it was fully removed.
func (l *PriceLevel) reduceFront(delta int64) (*Order, bool) {
	el := l.orders.Front()
	o := el.Value.(*Order)
	o.Volume -= delta
	l.sumVolume -= delta
	if o.Volume == 0 {
		l.orders.Remove(el)
		return o, true
	}
	return o, false
}

// remove deletes the order referenced by handle in O(1), wherever it sits
// in the queue (used by cancel, which need not be at the front).
func (l *PriceLevel) remove(handle *list.Element) {
	o := handle.Value.(*Order)
	l.sumVolume -= o.Volume
	l.orders.Remove(handle)
}

// sum returns the running total residual volume, kept in sync with every
// append/reduce/remove (invariant 2 of spec.md §8).
func (l *PriceLevel) sum() int64 {
	return l.sumVolume
}

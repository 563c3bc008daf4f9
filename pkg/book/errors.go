package book

import "errors"

// Sentinel errors for submission-invalid inputs (spec.md §7). The engine
// never panics on these; process_order/Submit simply rejects the order
// with no state change and no receipts.
var (
	ErrNonPositiveVolume  = errors.New("book: order volume must be positive")
	ErrPriceTypeMismatch  = errors.New("book: market order must not carry a price, limit order must")
	ErrOrderBookCrossed   = errors.New("book: invariant violation: best bid >= best ask after process_order")
)

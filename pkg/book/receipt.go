package book

// TradeReceipt is emitted once per fill and delivered to both the taker's
// and the maker's inbox. Grounded on the teacher's MatchResult
// (pkg/orderbook/match.go), widened with TakerIsBid and EngineSequence
// per spec.md §3.
type TradeReceipt struct {
	TakerID        int64
	MakerID        int64
	Price          int64
	Volume         int64
	TakerIsBid     bool
	EngineSequence int64
}

package market

import (
	"math"

	"github.com/quantsim/lobsim/pkg/book"
	"github.com/shopspring/decimal"
)

// MarketMakerAgent posts a two-sided quote each tick, skewed away from its
// own inventory, and tracks cash/inventory/wealth from fills (spec.md
// §4.8). Grounded on original_source/lob_sim/agents/market_maker.py and
// skew_market_making_strategy.py.
//
// Per the resolved Open Question (spec.md §9: "what does the maker's
// internal mid track when it has no book or fundamental observation"), m_t
// is the midpoint of the agent's own previously posted bid/ask, never the
// book's mid and never the fundamental. This deliberately departs from the
// original Python's EMA-of-book-mid; see DESIGN.md.
type MarketMakerAgent struct {
	traderID        int64
	halfSpreadTicks int64
	skewCoefficient float64
	quoteSize       int64

	inventory int64
	cash      decimal.Decimal

	mid            float64
	haveLastQuotes bool
	lastBidPrice   int64
	lastAskPrice   int64

	bidID, askID int64
	haveQuotes   bool
}

// NewMarketMakerAgent constructs a maker starting flat with initialCash,
// quoting around initialMid on its first tick.
func NewMarketMakerAgent(traderID int64, initialMid int64, initialCash float64, halfSpreadTicks int64, skewCoefficient float64, quoteSize int64) *MarketMakerAgent {
	return &MarketMakerAgent{
		traderID:        traderID,
		halfSpreadTicks: halfSpreadTicks,
		skewCoefficient: skewCoefficient,
		quoteSize:       quoteSize,
		cash:            decimal.NewFromFloat(initialCash),
		mid:             float64(initialMid),
	}
}

// Inventory returns the maker's current signed position.
func (m *MarketMakerAgent) Inventory() int64 { return m.inventory }

// Cash returns the maker's current cash balance.
func (m *MarketMakerAgent) Cash() decimal.Decimal { return m.cash }

// Wealth marks the current inventory to the maker's internal mid and adds
// cash, an internal mark, not a realized value (spec.md §6 observable W_t).
func (m *MarketMakerAgent) Wealth() decimal.Decimal {
	markToMarket := decimal.NewFromFloat(float64(m.inventory) * m.mid)
	return m.cash.Add(markToMarket)
}

// Mid returns the agent's current internal mid m_t.
func (m *MarketMakerAgent) Mid() float64 { return m.mid }

// roundToTick rounds a real-valued price to the nearest integer tick.
func roundToTick(x float64) int64 {
	return int64(math.Round(x))
}

// Requote cancels the agent's previously resting quotes (if any), updates
// m_t from them, computes a new inventory-skewed two-sided quote, and
// submits it. Returns the two new resting orders. Grounded on
// skew_market_making_strategy.py's quote-then-skew step, translated to the
// engine's cancel/submit calls the way the teacher's bots package drives
// its orderbook (realmfikri-Limitless/bots/spread_capture_bot.go).
func (m *MarketMakerAgent) Requote(engine *book.MatchingEngine, nextOrderID func() int64) (bid, ask book.Order) {
	if m.haveQuotes {
		engine.CancelOrder(m.bidID)
		engine.CancelOrder(m.askID)
		m.haveQuotes = false
	}

	if m.haveLastQuotes {
		m.mid = float64(m.lastBidPrice+m.lastAskPrice) / 2
	}

	skew := m.skewCoefficient * float64(m.inventory) * m.mid
	bidPrice := roundToTick(m.mid - float64(m.halfSpreadTicks)/2 - skew)
	askPrice := roundToTick(m.mid + float64(m.halfSpreadTicks)/2 - skew)
	if bidPrice >= askPrice {
		bidPrice--
		askPrice++
	}

	bid = book.Order{
		ID:       nextOrderID(),
		TraderID: m.traderID,
		Side:     book.Buy,
		Kind:     book.KindLimit,
		Price:    bidPrice,
		Volume:   m.quoteSize,
	}
	ask = book.Order{
		ID:       nextOrderID(),
		TraderID: m.traderID,
		Side:     book.Sell,
		Kind:     book.KindLimit,
		Price:    askPrice,
		Volume:   m.quoteSize,
	}

	engine.Submit(bid)
	engine.Submit(ask)

	m.bidID, m.askID = bid.ID, ask.ID
	m.haveQuotes = true
	m.lastBidPrice, m.lastAskPrice = bidPrice, askPrice
	m.haveLastQuotes = true

	return bid, ask
}

// ApplyFills updates inventory and cash from receipts in which this agent
// was the resting maker. The agent's own two quotes never cross each
// other, so it is only ever the maker side of a fill, never the taker.
func (m *MarketMakerAgent) ApplyFills(receipts []book.TradeReceipt) {
	for _, r := range receipts {
		if r.MakerID != m.traderID {
			continue
		}
		notional := decimal.NewFromInt(r.Price * r.Volume)
		if r.TakerIsBid {
			// Taker bought; this agent's resting ask was hit.
			m.inventory -= r.Volume
			m.cash = m.cash.Add(notional)
		} else {
			// Taker sold; this agent's resting bid was hit.
			m.inventory += r.Volume
			m.cash = m.cash.Sub(notional)
		}
	}
}

package strategy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"penny-mm/journal"
	"penny-mm/market"
	"penny-mm/order"
)

type call struct {
	kind   string // "limit", "ioc", "cancel", "market"
	ticker market.Ticker
	side   market.Side
	qty    float64
	price  float64
	id     order.OrderID
}

type recordingExchange struct {
	nextID order.OrderID
	calls  []call
}

func (r *recordingExchange) PlaceMarketOrder(side market.Side, ticker market.Ticker, qty float64) bool {
	r.calls = append(r.calls, call{kind: "market", ticker: ticker, side: side, qty: qty})
	return true
}

func (r *recordingExchange) PlaceLimitOrder(side market.Side, ticker market.Ticker, qty, price float64, ioc bool) order.OrderID {
	r.nextID++
	kind := "limit"
	if ioc {
		kind = "ioc"
	}
	r.calls = append(r.calls, call{kind: kind, ticker: ticker, side: side, qty: qty, price: price, id: r.nextID})
	return r.nextID
}

func (r *recordingExchange) CancelOrder(ticker market.Ticker, id order.OrderID) bool {
	r.calls = append(r.calls, call{kind: "cancel", ticker: ticker, id: id})
	return true
}

func (r *recordingExchange) reset() { r.calls = nil }

func (r *recordingExchange) kinds() []string {
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.kind
	}
	return out
}

type memJournal struct {
	fills   []journal.FillRecord
	unwinds []journal.UnwindRecord
	err     error
}

func (m *memJournal) RecordFill(f journal.FillRecord) error {
	m.fills = append(m.fills, f)
	return m.err
}

func (m *memJournal) RecordUnwind(u journal.UnwindRecord) error {
	m.unwinds = append(m.unwinds, u)
	return m.err
}

func newTestStrategy(t *testing.T, p Params, opts ...Option) (*Strategy, *recordingExchange) {
	t.Helper()
	ex := &recordingExchange{}
	s, err := New(ex, p, opts...)
	require.NoError(t, err)
	return s, ex
}

func TestNewRejectsInvalidParams(t *testing.T) {
	p := DefaultParams()
	p.QuoteFrequency = 0
	_, err := New(&recordingExchange{}, p)
	require.Error(t, err)
}

func TestOrderbookUpdateQuotesInsideSpread(t *testing.T) {
	s, ex := newTestStrategy(t, DefaultParams())

	s.OnOrderbookUpdate(market.ETH, market.Buy, 5, 100.00)
	assert.Empty(t, ex.calls, "one side unknown: no quote")

	s.OnOrderbookUpdate(market.ETH, market.Sell, 5, 100.04)
	require.Len(t, ex.calls, 2)
	bid, ask := ex.calls[0], ex.calls[1]
	assert.Equal(t, "limit", bid.kind)
	assert.Equal(t, market.Buy, bid.side)
	assert.InDelta(t, 100.01, bid.price, 1e-9)
	assert.Equal(t, 20.0, bid.qty)
	assert.Equal(t, market.Sell, ask.side)
	assert.InDelta(t, 100.03, ask.price, 1e-9)

	q := s.Quotes(market.ETH)
	assert.True(t, q.Bid.Live)
	assert.Equal(t, bid.id, q.Bid.ID)
	assert.Equal(t, ask.id, q.Ask.ID)
}

func TestRequoteCancelsThenReplaces(t *testing.T) {
	s, ex := newTestStrategy(t, DefaultParams())
	s.OnOrderbookUpdate(market.BTC, market.Buy, 1, 200)
	s.OnOrderbookUpdate(market.BTC, market.Sell, 1, 201)
	first := s.Quotes(market.BTC)
	ex.reset()

	s.OnOrderbookUpdate(market.BTC, market.Buy, 1, 200.5)
	assert.Equal(t, []string{"cancel", "limit", "cancel", "limit"}, ex.kinds())
	assert.Equal(t, first.Bid.ID, ex.calls[0].id)
	assert.Equal(t, first.Ask.ID, ex.calls[2].id)
}

func TestQuoteFrequencyThrottle(t *testing.T) {
	p := DefaultParams()
	p.QuoteFrequency = 3
	s, ex := newTestStrategy(t, p)

	s.OnOrderbookUpdate(market.LTC, market.Buy, 1, 50)  // 1
	s.OnOrderbookUpdate(market.LTC, market.Sell, 1, 51) // 2
	assert.Empty(t, ex.calls)
	s.OnOrderbookUpdate(market.LTC, market.Sell, 1, 51) // 3
	assert.Len(t, ex.calls, 2)

	// 计数器跨品种共享
	ex.reset()
	s.OnOrderbookUpdate(market.ETH, market.Buy, 1, 10)  // 4
	s.OnOrderbookUpdate(market.ETH, market.Sell, 1, 11) // 5
	assert.Empty(t, ex.calls)
	s.OnOrderbookUpdate(market.LTC, market.Buy, 1, 50) // 6
	assert.NotEmpty(t, ex.calls)
}

func TestClearedSideStopsQuoting(t *testing.T) {
	s, ex := newTestStrategy(t, DefaultParams())
	s.OnOrderbookUpdate(market.ETH, market.Buy, 1, 100)
	s.OnOrderbookUpdate(market.ETH, market.Sell, 1, 101)
	ex.reset()

	s.OnOrderbookUpdate(market.ETH, market.Sell, 0, 101)
	assert.Empty(t, ex.calls)
	assert.False(t, s.Top(market.ETH).Known())
}

func TestCrossedBookSkipsRequote(t *testing.T) {
	s, ex := newTestStrategy(t, DefaultParams())
	s.OnOrderbookUpdate(market.ETH, market.Buy, 1, 101)
	s.OnOrderbookUpdate(market.ETH, market.Sell, 1, 100)
	assert.Empty(t, ex.calls)
}

func TestZeroSizeLeavesExistingOrder(t *testing.T) {
	s, ex := newTestStrategy(t, DefaultParams())
	s.OnOrderbookUpdate(market.ETH, market.Buy, 1, 100)
	s.OnOrderbookUpdate(market.ETH, market.Sell, 1, 101)
	restingBid := s.Quotes(market.ETH).Bid

	// 买单成交 80 → 仓位 80，超过 0.7×max：买方向数量为 0
	s.OnAccountUpdate(market.ETH, market.Buy, 100.01, 80, 91999.2)
	ex.reset()

	s.OnOrderbookUpdate(market.ETH, market.Buy, 1, 100)
	assert.Equal(t, 80.0, s.Inventory(market.ETH))
	// 只重报卖单，买方向不下单也不撤单
	require.Len(t, ex.calls, 2)
	assert.Equal(t, "cancel", ex.calls[0].kind)
	assert.Equal(t, market.Sell, ex.calls[1].side)
	assert.InDelta(t, 20*0.3, ex.calls[1].qty, 1e-9)
	assert.False(t, s.Quotes(market.ETH).Bid.Live)
	assert.NotEqual(t, restingBid.ID, s.Quotes(market.ETH).Ask.ID)
}

func TestZeroSizeKeepsLiveHandle(t *testing.T) {
	s, ex := newTestStrategy(t, DefaultParams())
	s.OnOrderbookUpdate(market.ETH, market.Buy, 1, 100)
	s.OnOrderbookUpdate(market.ETH, market.Sell, 1, 101)
	restingBid := s.Quotes(market.ETH).Bid

	// 卖单成交：仓位 -75，卖方向停止，但买单挂单未成交仍应保留
	s.OnAccountUpdate(market.ETH, market.Sell, 101, 75, 107575)
	ex.reset()

	s.OnOrderbookUpdate(market.ETH, market.Sell, 1, 101)
	require.Len(t, ex.calls, 2)
	assert.Equal(t, []string{"cancel", "limit"}, ex.kinds())
	assert.Equal(t, restingBid.ID, ex.calls[0].id)
	assert.Equal(t, market.Buy, ex.calls[1].side)
	assert.False(t, s.Quotes(market.ETH).Ask.Live, "filled ask stays cleared, zero size places nothing")
}

func TestAccountUpdateAppliesFill(t *testing.T) {
	j := &memJournal{}
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s, ex := newTestStrategy(t, DefaultParams(), WithJournal(j), WithClock(func() time.Time { return at }))
	s.OnOrderbookUpdate(market.BTC, market.Buy, 1, 200)
	s.OnOrderbookUpdate(market.BTC, market.Sell, 1, 201)
	ex.reset()

	s.OnAccountUpdate(market.BTC, market.Buy, 200.01, 3, 99399.97)
	assert.Equal(t, 3.0, s.Inventory(market.BTC))
	assert.False(t, s.Quotes(market.BTC).Bid.Live)
	assert.True(t, s.Quotes(market.BTC).Ask.Live)
	assert.InDelta(t, 99399.97, s.Capital(), 1e-9)
	assert.InDelta(t, -600.03, s.TotalPnL(), 1e-6)
	assert.Equal(t, 1, s.Trades())
	assert.Empty(t, ex.calls, "fill within limits sends nothing")

	s.OnAccountUpdate(market.BTC, market.Sell, 201, 5, 100404.97)
	assert.Equal(t, -2.0, s.Inventory(market.BTC))
	assert.False(t, s.Quotes(market.BTC).Ask.Live)

	require.Len(t, j.fills, 2)
	assert.Equal(t, at, j.fills[0].At)
	assert.Equal(t, 3.0, j.fills[0].Inventory)
	assert.InDelta(t, 1005, j.fills[1].PnLDelta, 1e-6)
}

func TestEmergencyUnwindLong(t *testing.T) {
	j := &memJournal{}
	s, ex := newTestStrategy(t, DefaultParams(), WithJournal(j))
	s.OnOrderbookUpdate(market.ETH, market.Buy, 1, 100)
	s.OnOrderbookUpdate(market.ETH, market.Sell, 1, 100.04)
	quotes := s.Quotes(market.ETH)
	ex.reset()

	s.OnAccountUpdate(market.ETH, market.Buy, 100, 90, 91000)
	assert.Empty(t, ex.calls, "90 <= max: no unwind")

	s.OnAccountUpdate(market.ETH, market.Buy, 100, 15, 89500)
	assert.Equal(t, 105.0, s.Inventory(market.ETH))
	// 买单句柄已随成交清除，只撤卖单，然后 IOC 卖出
	require.Equal(t, []string{"cancel", "ioc"}, ex.kinds())
	assert.Equal(t, quotes.Ask.ID, ex.calls[0].id)
	ioc := ex.calls[1]
	assert.Equal(t, market.Sell, ioc.side)
	assert.InDelta(t, 52.5, ioc.qty, 1e-9)
	assert.InDelta(t, 100*0.998, ioc.price, 1e-9)

	q := s.Quotes(market.ETH)
	assert.False(t, q.Bid.Live)
	assert.False(t, q.Ask.Live)

	require.Len(t, j.unwinds, 1)
	assert.Equal(t, int64(ioc.id), j.unwinds[0].OrderID)
	assert.Equal(t, 105.0, j.unwinds[0].Inventory)
}

func TestNoUnwindAtExactlyMaxPosition(t *testing.T) {
	j := &memJournal{}
	s, ex := newTestStrategy(t, DefaultParams(), WithJournal(j))
	s.OnOrderbookUpdate(market.ETH, market.Buy, 1, 100)
	s.OnOrderbookUpdate(market.ETH, market.Sell, 1, 100.04)
	ex.reset()

	s.OnAccountUpdate(market.ETH, market.Buy, 100, 100, 90000)
	assert.Equal(t, 100.0, s.Inventory(market.ETH))
	assert.Empty(t, ex.calls, "|inv| == max: no cancel, no IOC")
	assert.Empty(t, j.unwinds)
	assert.True(t, s.Quotes(market.ETH).Ask.Live, "ask stays resting")

	s.OnAccountUpdate(market.ETH, market.Sell, 100, 200, 110000)
	assert.Equal(t, -100.0, s.Inventory(market.ETH))
	assert.Empty(t, ex.calls, "|inv| == max on the short side: no unwind")
}

func TestEmergencyUnwindShortCancelsBothFirst(t *testing.T) {
	s, ex := newTestStrategy(t, DefaultParams())
	s.OnOrderbookUpdate(market.LTC, market.Buy, 1, 50)
	s.OnOrderbookUpdate(market.LTC, market.Sell, 1, 51)
	ex.reset()

	s.EmergencyUnwind(market.LTC) // 仓位为 0：只撤单
	assert.Equal(t, []string{"cancel", "cancel"}, ex.kinds())

	s.OnOrderbookUpdate(market.LTC, market.Buy, 1, 50)
	ex.reset()
	s.OnAccountUpdate(market.LTC, market.Sell, 51, 120, 106120)
	require.Equal(t, []string{"cancel", "ioc"}, ex.kinds())
	ioc := ex.calls[1]
	assert.Equal(t, market.Buy, ioc.side)
	assert.InDelta(t, 60, ioc.qty, 1e-9)
	assert.InDelta(t, 51*1.002, ioc.price, 1e-9)
}

func TestEmergencyUnwindUnknownBookOnlyCancels(t *testing.T) {
	s, ex := newTestStrategy(t, DefaultParams())
	s.OnOrderbookUpdate(market.ETH, market.Buy, 1, 100)
	s.OnOrderbookUpdate(market.ETH, market.Sell, 1, 101)
	s.OnOrderbookUpdate(market.ETH, market.Sell, 0, 0)
	ex.reset()

	s.OnAccountUpdate(market.ETH, market.Buy, 100, 150, 85000)
	assert.Equal(t, []string{"cancel"}, ex.kinds(), "ask handle canceled, no IOC without a full book")
}

func TestRepeatedTriggersResendUnwind(t *testing.T) {
	s, ex := newTestStrategy(t, DefaultParams())
	s.OnOrderbookUpdate(market.BTC, market.Buy, 1, 100)
	s.OnOrderbookUpdate(market.BTC, market.Sell, 1, 101)
	s.OnAccountUpdate(market.BTC, market.Buy, 100, 101, 89900)
	s.OnAccountUpdate(market.BTC, market.Buy, 100, 1, 89800)

	var iocs []call
	for _, c := range ex.calls {
		if c.kind == "ioc" {
			iocs = append(iocs, c)
		}
	}
	require.Len(t, iocs, 2)
	assert.InDelta(t, 50.5, iocs[0].qty, 1e-9)
	assert.InDelta(t, 51, iocs[1].qty, 1e-9)
}

func TestJournalErrorDoesNotStopStrategy(t *testing.T) {
	j := &memJournal{err: errors.New("disk full")}
	s, _ := newTestStrategy(t, DefaultParams(), WithJournal(j))
	s.OnAccountUpdate(market.ETH, market.Buy, 100, 1, 99900)
	assert.Equal(t, 1.0, s.Inventory(market.ETH))
}

func TestTradeUpdateNeverTrades(t *testing.T) {
	s, ex := newTestStrategy(t, DefaultParams())
	s.OnTradeUpdate(market.ETH, market.Sell, 3, 99.5)
	assert.Empty(t, ex.calls)
	assert.Equal(t, 99.5, s.LastTrade(market.ETH))
}

func TestSetParams(t *testing.T) {
	s, _ := newTestStrategy(t, DefaultParams())
	bad := DefaultParams()
	bad.TickSize = 0
	require.Error(t, s.SetParams(bad))

	next := DefaultParams()
	next.BaseOrderSize = 5
	require.NoError(t, s.SetParams(next))
	assert.Equal(t, 5.0, s.Params().BaseOrderSize)
}

func TestWithCapital(t *testing.T) {
	s, _ := newTestStrategy(t, DefaultParams(), WithCapital(5000))
	s.OnAccountUpdate(market.ETH, market.Sell, 10, 1, 5010)
	assert.InDelta(t, 10, s.TotalPnL(), 1e-9)
}

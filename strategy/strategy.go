package strategy

import (
	"math"
	"time"

	"go.uber.org/zap"

	"penny-mm/infrastructure/logger"
	"penny-mm/inventory"
	"penny-mm/journal"
	"penny-mm/market"
	"penny-mm/order"
)

// DefaultCapital 为未指定时的初始资金。
const DefaultCapital = 100000.0

// Metrics 为策略的指标出口，monitor.Monitor 实现该接口。
type Metrics interface {
	order.Metrics
	RecordQuote(ticker string)
	RecordUnwind(ticker, side string)
	RecordFill(ticker, side string, qty float64)
	UpdatePosition(ticker string, net float64)
	UpdateAccount(capital, realized float64)
	UpdateTop(ticker string, bid, ask float64)
	UpdateLastTrade(ticker string, price float64)
}

// Journal 记录成交与紧急平仓，journal.Store 实现该接口。
type Journal interface {
	RecordFill(journal.FillRecord) error
	RecordUnwind(journal.UnwindRecord) error
}

// Strategy 为单线程、回调驱动的抢价做市策略。
// 所有状态只在 On* 回调内修改，调用方需保证回调串行执行。
type Strategy struct {
	params  Params
	book    *market.OrderBook
	ledger  *inventory.Ledger
	orders  *order.Manager
	log     *logger.Logger
	metrics Metrics
	journal Journal
	now     func() time.Time

	updates   uint64
	lastTrade map[market.Ticker]float64
}

// Option 配置可选依赖。
type Option func(*Strategy)

func WithLogger(l *logger.Logger) Option { return func(s *Strategy) { s.log = l } }
func WithMetrics(m Metrics) Option        { return func(s *Strategy) { s.metrics = m } }
func WithJournal(j Journal) Option        { return func(s *Strategy) { s.journal = j } }

// WithCapital 设置初始资金，首笔成交的盈亏以此为基准。
func WithCapital(c float64) Option {
	return func(s *Strategy) { s.ledger = inventory.NewLedger(c) }
}

// WithClock 替换时间来源（测试用）。
func WithClock(now func() time.Time) Option { return func(s *Strategy) { s.now = now } }

func New(ex order.Exchange, p Params, opts ...Option) (*Strategy, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &Strategy{
		params:    p,
		book:      market.NewOrderBook(),
		ledger:    inventory.NewLedger(DefaultCapital),
		log:       logger.NewNop(),
		metrics:   nopMetrics{},
		now:       time.Now,
		lastTrade: make(map[market.Ticker]float64, 3),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	s.orders = order.NewManager(ex, s.log.Named("orders"), s.metrics)
	return s, nil
}

// OnTradeUpdate 只记录最新成交价，不触发下单。
func (s *Strategy) OnTradeUpdate(ticker market.Ticker, side market.Side, quantity, price float64) {
	s.lastTrade[ticker] = price
	s.metrics.UpdateLastTrade(ticker.String(), price)
}

// OnOrderbookUpdate 更新盘口顶层；quantity 为 0 表示该侧被撤空。
// 每 QuoteFrequency 次更新（全品种共用计数）且两侧均已知时重新报价。
func (s *Strategy) OnOrderbookUpdate(ticker market.Ticker, side market.Side, quantity, price float64) {
	s.book.Apply(ticker, side, quantity, price)
	top := s.book.Top(ticker)
	bid, _ := top.Bid()
	ask, _ := top.Ask()
	s.metrics.UpdateTop(ticker.String(), bid, ask)

	s.updates++
	if s.updates%uint64(s.params.QuoteFrequency) != 0 {
		return
	}
	if top.Known() {
		s.Requote(ticker)
	}
}

// Requote 按当前盘口与库存重新挂出双边报价。
// 某侧数量为 0 时保留该侧原有挂单，不撤单。
func (s *Strategy) Requote(ticker market.Ticker) {
	top := s.book.Top(ticker)
	bestBid, okBid := top.Bid()
	bestAsk, okAsk := top.Ask()
	if !okBid || !okAsk {
		return
	}
	inv := s.ledger.Net(ticker)
	q, ok := ComputeQuote(bestBid, bestAsk, inv, s.params)
	if !ok {
		s.log.Debug("skip requote on crossed book",
			zap.Stringer("ticker", ticker), zap.Float64("bid", bestBid), zap.Float64("ask", bestAsk))
		return
	}
	s.metrics.RecordQuote(ticker.String())

	if size := OrderSize(inv, market.Buy, s.params); size > 0 {
		s.orders.Replace(order.Order{Ticker: ticker, Side: market.Buy, Quantity: size, Price: q.Bid})
	}
	if size := OrderSize(inv, market.Sell, s.params); size > 0 {
		s.orders.Replace(order.Order{Ticker: ticker, Side: market.Sell, Quantity: size, Price: q.Ask})
	}
}

// OnAccountUpdate 处理成交回报：更新资金与仓位，清除对应方向的挂单句柄，
// 仓位绝对值超过 MaxPosition 时触发紧急平仓。
func (s *Strategy) OnAccountUpdate(ticker market.Ticker, side market.Side, price, quantity, capitalRemaining float64) {
	res := s.ledger.Apply(inventory.Fill{
		Ticker:           ticker,
		Side:             side,
		Price:            price,
		Quantity:         quantity,
		CapitalRemaining: capitalRemaining,
	})
	s.orders.Clear(ticker, side)

	s.log.LogTrade("fill", ticker.String(),
		zap.Stringer("side", side),
		zap.Float64("qty", quantity),
		zap.Float64("price", price),
		zap.Float64("inventory", res.Net),
		zap.Float64("capital", res.Capital),
		zap.Float64("total_pnl", res.TotalPnL),
	)
	s.metrics.RecordFill(ticker.String(), side.String(), quantity)
	s.metrics.UpdatePosition(ticker.String(), res.Net)
	s.metrics.UpdateAccount(res.Capital, res.TotalPnL)
	if s.journal != nil {
		err := s.journal.RecordFill(journal.FillRecord{
			At:               s.now(),
			Ticker:           ticker,
			Side:             side,
			Price:            price,
			Quantity:         quantity,
			CapitalRemaining: capitalRemaining,
			PnLDelta:         res.PnLDelta,
			Inventory:        res.Net,
		})
		if err != nil {
			s.log.LogError(err, zap.String("op", "journal_fill"), zap.Stringer("ticker", ticker))
		}
	}

	if math.Abs(res.Net) > s.params.MaxPosition {
		s.EmergencyUnwind(ticker)
	}
}

// EmergencyUnwind 撤掉该品种全部挂单，然后以让价 IOC 单削减超限仓位。
// 盘口任一侧未知时只撤单不平仓。
func (s *Strategy) EmergencyUnwind(ticker market.Ticker) {
	s.CancelAll(ticker)

	top := s.book.Top(ticker)
	bestBid, okBid := top.Bid()
	bestAsk, okAsk := top.Ask()
	if !okBid || !okAsk {
		return
	}
	inv := s.ledger.Net(ticker)
	u, ok := PlanUnwind(inv, bestBid, bestAsk, s.params)
	if !ok {
		return
	}
	id := s.orders.SendIOC(order.Order{Ticker: ticker, Side: u.Side, Quantity: u.Size, Price: u.Price})

	s.log.LogRisk("emergency_unwind", ticker.String(),
		zap.Stringer("side", u.Side),
		zap.Float64("size", u.Size),
		zap.Float64("price", u.Price),
		zap.Float64("inventory", inv),
	)
	s.metrics.RecordUnwind(ticker.String(), u.Side.String())
	if s.journal != nil {
		err := s.journal.RecordUnwind(journal.UnwindRecord{
			At:        s.now(),
			Ticker:    ticker,
			Side:      u.Side,
			Size:      u.Size,
			Price:     u.Price,
			Inventory: inv,
			OrderID:   int64(id),
		})
		if err != nil {
			s.log.LogError(err, zap.String("op", "journal_unwind"), zap.Stringer("ticker", ticker))
		}
	}
}

// CancelAll 撤掉该品种记录的买卖挂单并清空句柄。
func (s *Strategy) CancelAll(ticker market.Ticker) {
	s.orders.CancelAll(ticker)
}

// SetParams 替换运行参数（热更新），需在事件循环内调用。
func (s *Strategy) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.params = p
	return nil
}

func (s *Strategy) Params() Params                              { return s.params }
func (s *Strategy) Inventory(t market.Ticker) float64           { return s.ledger.Net(t) }
func (s *Strategy) Position(t market.Ticker) *inventory.Tracker { return s.ledger.Position(t) }
func (s *Strategy) Capital() float64                            { return s.ledger.Capital() }
func (s *Strategy) TotalPnL() float64                           { return s.ledger.TotalPnL() }
func (s *Strategy) Trades() int                                 { return s.ledger.Trades() }
func (s *Strategy) Quotes(t market.Ticker) order.Quotes         { return s.orders.Quotes(t) }
func (s *Strategy) Top(t market.Ticker) market.Top              { return s.book.Top(t) }

// LastTrade 返回最近一次成交价；未收到成交时为 0。
func (s *Strategy) LastTrade(t market.Ticker) float64 { return s.lastTrade[t] }

type nopMetrics struct{}

func (nopMetrics) RecordOrderPlaced(string, string, bool) {}
func (nopMetrics) RecordOrderCanceled(string, bool)       {}
func (nopMetrics) RecordQuote(string)                     {}
func (nopMetrics) RecordUnwind(string, string)            {}
func (nopMetrics) RecordFill(string, string, float64)     {}
func (nopMetrics) UpdatePosition(string, float64)         {}
func (nopMetrics) UpdateAccount(float64, float64)         {}
func (nopMetrics) UpdateTop(string, float64, float64)     {}
func (nopMetrics) UpdateLastTrade(string, float64)        {}

package sim

import (
	"context"

	"go.uber.org/zap"

	"penny-mm/gateway"
	"penny-mm/infrastructure/logger"
	"penny-mm/market"
	"penny-mm/strategy"
)

// Handler 为事件回调的接收方，*strategy.Strategy 实现该接口。
type Handler interface {
	OnOrderbookUpdate(ticker market.Ticker, side market.Side, quantity, price float64)
	OnTradeUpdate(ticker market.Ticker, side market.Side, quantity, price float64)
	OnAccountUpdate(ticker market.Ticker, side market.Side, price, quantity, capitalRemaining float64)
	SetParams(p strategy.Params) error
}

// Matcher 为纸面撮合，*gateway.Paper 实现该接口。
type Matcher interface {
	Match(ticker market.Ticker, bestBid, bestAsk float64) []gateway.Execution
}

// Runner 是唯一驱动策略的 goroutine：串行分发事件，
// 并在两个事件之间应用热更新参数。
type Runner struct {
	Handler Handler
	Params  <-chan strategy.Params // 可选
	Paper   Matcher                // 可选，设置后盘口变化先撮合纸面挂单
	Log     *logger.Logger

	mirror *market.OrderBook
	stats  Stats
}

// Stats 统计已分发的事件数。
type Stats struct {
	Orderbook int
	Trade     int
	Account   int
	Reloads   int
}

// Run 消费事件直到 events 关闭（返回 nil）或 ctx 取消（返回 ctx.Err()）。
func (r *Runner) Run(ctx context.Context, events <-chan market.Event) error {
	if r.Log == nil {
		r.Log = logger.NewNop()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-r.Params:
			if !ok {
				r.Params = nil
				continue
			}
			r.apply(p)
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.Dispatch(ev)
		}
	}
}

// Dispatch 同步处理单个事件。
func (r *Runner) Dispatch(ev market.Event) {
	switch ev.Kind {
	case market.EventOrderbook:
		r.stats.Orderbook++
		if r.Paper != nil {
			r.matchPaper(ev)
		}
		r.Handler.OnOrderbookUpdate(ev.Ticker, ev.Side, ev.Quantity, ev.Price)
	case market.EventTrade:
		r.stats.Trade++
		r.Handler.OnTradeUpdate(ev.Ticker, ev.Side, ev.Quantity, ev.Price)
	case market.EventAccount:
		r.stats.Account++
		r.Handler.OnAccountUpdate(ev.Ticker, ev.Side, ev.Price, ev.Quantity, ev.CapitalRemaining)
	default:
		r.Log.Warn("unknown event type", zap.String("type", string(ev.Kind)))
	}
}

func (r *Runner) Stats() Stats { return r.stats }

// matchPaper 先按新盘口撮合已有挂单，成交回报早于盘口回调送达。
func (r *Runner) matchPaper(ev market.Event) {
	if r.mirror == nil {
		r.mirror = market.NewOrderBook()
	}
	r.mirror.Apply(ev.Ticker, ev.Side, ev.Quantity, ev.Price)
	top := r.mirror.Top(ev.Ticker)
	bid, _ := top.Bid()
	ask, _ := top.Ask()
	for _, ex := range r.Paper.Match(ev.Ticker, bid, ask) {
		r.Dispatch(market.Event{
			Kind:             market.EventAccount,
			Ticker:           ex.Ticker,
			Side:             ex.Side,
			Quantity:         ex.Quantity,
			Price:            ex.Price,
			CapitalRemaining: ex.CapitalRemaining,
		})
	}
}

func (r *Runner) apply(p strategy.Params) {
	if err := r.Handler.SetParams(p); err != nil {
		r.Log.LogError(err, zap.String("op", "reload_params"))
		return
	}
	r.stats.Reloads++
	r.Log.Info("strategy params reloaded",
		zap.Float64("base_order_size", p.BaseOrderSize),
		zap.Float64("max_position", p.MaxPosition),
		zap.Int("quote_frequency", p.QuoteFrequency),
	)
}

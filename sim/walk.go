package sim

import (
	"context"
	"math"
	"math/rand"

	"penny-mm/market"
)

// WalkConfig 控制随机游走盘口的生成。
type WalkConfig struct {
	Start     map[market.Ticker]float64 // 各品种初始中间价
	Tick      float64
	Spread    int     // 盘口价差（tick 数）
	Vol       float64 // 每步中间价的相对波动
	TradeProb float64 // 每步附带一笔成交事件的概率
	Depth     float64 // 盘口挂单量
	Seed      int64
}

func DefaultWalkConfig() WalkConfig {
	return WalkConfig{
		Start: map[market.Ticker]float64{
			market.ETH: 2000,
			market.BTC: 30000,
			market.LTC: 50,
		},
		Tick:      0.01,
		Spread:    4,
		Vol:       0.0005,
		TradeProb: 0.2,
		Depth:     10,
		Seed:      1,
	}
}

// Walk 为三个品种生成随机游走的盘口与成交事件。
type Walk struct {
	cfg  WalkConfig
	rng  *rand.Rand
	mids map[market.Ticker]float64
}

func NewWalk(cfg WalkConfig) *Walk {
	def := DefaultWalkConfig()
	if cfg.Tick <= 0 {
		cfg.Tick = def.Tick
	}
	if cfg.Spread <= 0 {
		cfg.Spread = def.Spread
	}
	if cfg.Depth <= 0 {
		cfg.Depth = def.Depth
	}
	if len(cfg.Start) == 0 {
		cfg.Start = def.Start
	}
	valid := 0
	for t, m := range cfg.Start {
		if t.Valid() && m > 0 {
			valid++
		}
	}
	if valid == 0 {
		cfg.Start = def.Start
	}
	w := &Walk{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		mids: make(map[market.Ticker]float64, len(cfg.Start)),
	}
	for _, t := range market.Tickers() {
		if m, ok := cfg.Start[t]; ok && m > 0 {
			w.mids[t] = m
		}
	}
	return w
}

// Step 随机挑选一个品种推进一步，返回买一、卖一两条盘口事件，
// 以及可能的一条成交事件。
func (w *Walk) Step() []market.Event {
	tickers := market.Tickers()
	var t market.Ticker
	for {
		t = tickers[w.rng.Intn(len(tickers))]
		if _, ok := w.mids[t]; ok {
			break
		}
	}
	tick := w.cfg.Tick
	mid := w.mids[t] * (1 + w.rng.NormFloat64()*w.cfg.Vol)
	halfSpread := float64(w.cfg.Spread) * tick / 2
	if mid-halfSpread < tick {
		mid = tick + halfSpread
	}
	w.mids[t] = mid

	bid := math.Round((mid-halfSpread)/tick) * tick
	ask := bid + float64(w.cfg.Spread)*tick
	out := []market.Event{
		{Kind: market.EventOrderbook, Ticker: t, Side: market.Buy, Quantity: w.cfg.Depth, Price: bid},
		{Kind: market.EventOrderbook, Ticker: t, Side: market.Sell, Quantity: w.cfg.Depth, Price: ask},
	}
	if w.rng.Float64() < w.cfg.TradeProb {
		side, px := market.Buy, ask
		if w.rng.Intn(2) == 0 {
			side, px = market.Sell, bid
		}
		out = append(out, market.Event{Kind: market.EventTrade, Ticker: t, Side: side, Quantity: 1, Price: px})
	}
	return out
}

// Run 生成 steps 步事件写入 out，结束后关闭 out。
func (w *Walk) Run(ctx context.Context, steps int, out chan<- market.Event) error {
	defer close(out)
	for i := 0; i < steps; i++ {
		for _, ev := range w.Step() {
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// Mid 返回某品种当前中间价。
func (w *Walk) Mid(t market.Ticker) float64 { return w.mids[t] }

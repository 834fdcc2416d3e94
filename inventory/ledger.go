package inventory

import "penny-mm/market"

// Fill 为一次成交回报。
type Fill struct {
	Ticker           market.Ticker
	Side             market.Side
	Price            float64
	Quantity         float64
	CapitalRemaining float64
}

// FillResult 汇总成交入账后的状态变化。
type FillResult struct {
	PnLDelta float64 // 本次资金变化（回报资金 - 上次资金）
	Net      float64 // 入账后的净仓位
	Capital  float64
	TotalPnL float64
	Trades   int
}

// Ledger 维护三个品种的仓位以及账户资金。
// 仓位只在成交回报时变化；资金直接采用撮合方回报的剩余资金。
type Ledger struct {
	positions map[market.Ticker]*Tracker
	capital   float64
	totalPnL  float64
	trades    int
}

func NewLedger(initialCapital float64) *Ledger {
	l := &Ledger{
		positions: make(map[market.Ticker]*Tracker, 3),
		capital:   initialCapital,
	}
	for _, t := range market.Tickers() {
		l.positions[t] = &Tracker{}
	}
	return l
}

// Apply 记录一次成交。
func (l *Ledger) Apply(f Fill) FillResult {
	delta := f.CapitalRemaining - l.capital
	l.totalPnL += delta
	l.trades++
	l.capital = f.CapitalRemaining

	tr := l.tracker(f.Ticker)
	tr.Update(f.Side.Sign()*f.Quantity, f.Price)
	return FillResult{
		PnLDelta: delta,
		Net:      tr.NetExposure(),
		Capital:  l.capital,
		TotalPnL: l.totalPnL,
		Trades:   l.trades,
	}
}

// Net 返回某品种当前净仓位。
func (l *Ledger) Net(t market.Ticker) float64 { return l.tracker(t).NetExposure() }

// Position 返回某品种的仓位跟踪器。
func (l *Ledger) Position(t market.Ticker) *Tracker { return l.tracker(t) }

func (l *Ledger) Capital() float64  { return l.capital }
func (l *Ledger) TotalPnL() float64 { return l.totalPnL }
func (l *Ledger) Trades() int       { return l.trades }

func (l *Ledger) tracker(t market.Ticker) *Tracker {
	tr, ok := l.positions[t]
	if !ok {
		tr = &Tracker{}
		l.positions[t] = tr
	}
	return tr
}

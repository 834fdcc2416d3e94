package market

// Top 保存单个品种的最优买/卖价；零值表示两侧均未知。
type Top struct {
	bid, ask       float64
	hasBid, hasAsk bool
}

// Bid 返回最优买价；第二个返回值为 false 表示未知。
func (t Top) Bid() (float64, bool) { return t.bid, t.hasBid }

// Ask 返回最优卖价；第二个返回值为 false 表示未知。
func (t Top) Ask() (float64, bool) { return t.ask, t.hasAsk }

// Known 两侧价格均已知。
func (t Top) Known() bool { return t.hasBid && t.hasAsk }

// Mid 返回中间价；若缺失任一侧返回 0。
func (t Top) Mid() float64 {
	if !t.Known() {
		return 0
	}
	return (t.bid + t.ask) / 2
}

// OrderBook 维护各品种的盘口顶层。仅由策略所在的单一事件循环访问。
type OrderBook struct {
	tops map[Ticker]*Top
}

func NewOrderBook() *OrderBook {
	ob := &OrderBook{tops: make(map[Ticker]*Top, 3)}
	for _, t := range Tickers() {
		ob.tops[t] = &Top{}
	}
	return ob
}

// Apply 应用一条盘口更新，qty 为 0 表示该侧被撤空。
// 价格 <= 0 同样视为未知。
func (ob *OrderBook) Apply(ticker Ticker, side Side, qty, price float64) {
	top := ob.top(ticker)
	known := qty != 0 && price > 0
	if side == Buy {
		top.bid, top.hasBid = price, known
		if !known {
			top.bid = 0
		}
		return
	}
	top.ask, top.hasAsk = price, known
	if !known {
		top.ask = 0
	}
}

// Top 返回某品种盘口快照。
func (ob *OrderBook) Top(ticker Ticker) Top {
	return *ob.top(ticker)
}

func (ob *OrderBook) top(ticker Ticker) *Top {
	top, ok := ob.tops[ticker]
	if !ok {
		top = &Top{}
		ob.tops[ticker] = top
	}
	return top
}

package strategy

// Quote 为一次报价的双边价格。
type Quote struct {
	Bid float64
	Ask float64
	// Fallback 表示抢价后价差倒挂，改用 mid±tick。
	Fallback bool
}

// Skew 返回库存带来的价格偏移：多头为正（整体下移报价），空头为负。
func Skew(inventory float64, p Params) float64 {
	return inventory * p.SpreadImprovement * p.InventorySkew
}

// ComputeQuote 在盘口内侧一个 tick 抢价，并按库存整体平移。
// 盘口交叉或锁价（ask <= bid）时返回 false。
func ComputeQuote(bestBid, bestAsk, inventory float64, p Params) (Quote, bool) {
	if bestBid <= 0 || bestAsk <= 0 || bestAsk <= bestBid {
		return Quote{}, false
	}
	adj := Skew(inventory, p)
	q := Quote{
		Bid: bestBid + p.TickSize - adj,
		Ask: bestAsk - p.TickSize - adj,
	}
	if q.Ask <= q.Bid {
		mid := (bestBid + bestAsk) / 2
		q = Quote{Bid: mid - p.TickSize, Ask: mid + p.TickSize, Fallback: true}
	}
	return q, true
}

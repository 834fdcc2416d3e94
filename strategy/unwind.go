package strategy

import (
	"math"

	"penny-mm/market"
)

// Unwind 描述一笔紧急平仓 IOC 单。
type Unwind struct {
	Side  market.Side
	Size  float64
	Price float64
}

// PlanUnwind 计算紧急平仓单。仓位未超过 UnwindThreshold×MaxPosition 时返回 false。
// 多头以买一价下方让价卖出，空头以卖一价上方让价买入；
// 数量取 min(|仓位|×UnwindFraction, |仓位| - MaxPosition×UnwindFraction)。
func PlanUnwind(inventory, bestBid, bestAsk float64, p Params) (Unwind, bool) {
	limit := p.MaxPosition * p.UnwindThreshold
	abs := math.Abs(inventory)
	size := math.Min(abs*p.UnwindFraction, abs-p.MaxPosition*p.UnwindFraction)
	switch {
	case inventory > limit:
		return Unwind{Side: market.Sell, Size: size, Price: bestBid * (1 - p.UnwindSlippage)}, size > 0
	case inventory < -limit:
		return Unwind{Side: market.Buy, Size: size, Price: bestAsk * (1 + p.UnwindSlippage)}, size > 0
	}
	return Unwind{}, false
}

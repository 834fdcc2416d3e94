package strategy

import (
	"math"

	"penny-mm/market"
)

// OrderSize 计算某方向的报价数量：
// 仓位超过 UnwindThreshold×MaxPosition 后停止同向加仓；
// 其余情况下随 |仓位| 线性缩小（不低于 SizeFloor），减仓方向再放大 FlattenBoost 倍。
func OrderSize(inventory float64, side market.Side, p Params) float64 {
	limit := p.MaxPosition * p.UnwindThreshold
	if side == market.Buy && inventory >= limit {
		return 0
	}
	if side == market.Sell && inventory <= -limit {
		return 0
	}

	factor := math.Max(p.SizeFloor, 1-math.Abs(inventory)/p.MaxPosition)
	if (side == market.Sell && inventory > 0) || (side == market.Buy && inventory < 0) {
		factor *= p.FlattenBoost
	}
	return p.BaseOrderSize * factor
}

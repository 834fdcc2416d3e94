package strategy

import "fmt"

// Params 控制报价、下单量与紧急平仓的全部参数。
type Params struct {
	BaseOrderSize     float64 // 报价基础数量
	SpreadImprovement float64 // 库存偏移的价格单位
	InventorySkew     float64 // 库存偏移系数
	TickSize          float64 // 抢价步长
	MaxPosition       float64 // 单品种最大仓位（软上限，超出后紧急平仓）
	QuoteFrequency    int     // 每 N 次盘口更新报价一次，1 表示每次都报价

	UnwindThreshold float64 // 仓位超过 MaxPosition 的该比例后停止同向加仓
	SizeFloor       float64 // 下单量缩放的下限系数
	FlattenBoost    float64 // 减仓方向的下单量放大倍数
	UnwindFraction  float64 // 紧急平仓量占仓位的比例
	UnwindSlippage  float64 // 紧急平仓相对盘口让价比例
}

// DefaultParams 返回默认参数。
func DefaultParams() Params {
	return Params{
		BaseOrderSize:     20,
		SpreadImprovement: 0.01,
		InventorySkew:     0.1,
		TickSize:          0.01,
		MaxPosition:       100,
		QuoteFrequency:    1,

		UnwindThreshold: 0.7,
		SizeFloor:       0.2,
		FlattenBoost:    1.5,
		UnwindFraction:  0.5,
		UnwindSlippage:  0.002,
	}
}

// Validate 检查参数取值范围。
func (p Params) Validate() error {
	switch {
	case p.BaseOrderSize <= 0:
		return fmt.Errorf("baseOrderSize must be > 0, got %v", p.BaseOrderSize)
	case p.TickSize <= 0:
		return fmt.Errorf("tickSize must be > 0, got %v", p.TickSize)
	case p.MaxPosition <= 0:
		return fmt.Errorf("maxPosition must be > 0, got %v", p.MaxPosition)
	case p.QuoteFrequency < 1:
		return fmt.Errorf("quoteFrequency must be >= 1, got %d", p.QuoteFrequency)
	case p.SpreadImprovement < 0 || p.InventorySkew < 0:
		return fmt.Errorf("spreadImprovement/inventorySkew must be >= 0")
	case p.UnwindThreshold <= 0 || p.UnwindThreshold > 1:
		return fmt.Errorf("unwindThreshold must be in (0,1], got %v", p.UnwindThreshold)
	case p.SizeFloor < 0 || p.SizeFloor > 1:
		return fmt.Errorf("sizeFloor must be in [0,1], got %v", p.SizeFloor)
	case p.FlattenBoost < 1:
		return fmt.Errorf("flattenBoost must be >= 1, got %v", p.FlattenBoost)
	case p.UnwindFraction <= 0 || p.UnwindFraction > 1:
		return fmt.Errorf("unwindFraction must be in (0,1], got %v", p.UnwindFraction)
	case p.UnwindSlippage < 0 || p.UnwindSlippage >= 1:
		return fmt.Errorf("unwindSlippage must be in [0,1), got %v", p.UnwindSlippage)
	}
	return nil
}

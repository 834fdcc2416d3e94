package order

import "penny-mm/market"

// OrderID 为撮合方返回的订单句柄。
type OrderID int64

// Slot 记录某一侧的挂单句柄；Live 为 false 表示该侧没有挂单。
type Slot struct {
	ID   OrderID
	Live bool
}

// Quotes 为单个品种的双边挂单。每侧至多一笔。
type Quotes struct {
	Bid Slot
	Ask Slot
}

// Side 返回指定方向的挂单槽位。
func (q Quotes) Side(s market.Side) Slot {
	if s == market.Buy {
		return q.Bid
	}
	return q.Ask
}

func (q *Quotes) slot(s market.Side) *Slot {
	if s == market.Buy {
		return &q.Bid
	}
	return &q.Ask
}

// Order 描述一次下单请求，用于日志与回放记录。
type Order struct {
	Ticker   market.Ticker
	Side     market.Side
	Quantity float64
	Price    float64
	IOC      bool
}

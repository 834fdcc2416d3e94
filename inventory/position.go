package inventory

import "sync"

// Tracker 维护单个品种的净仓位与加权平均成本。
type Tracker struct {
	mu   sync.RWMutex
	net  float64
	cost float64
}

// Update 根据成交数量调整仓位（买为正，卖为负）。
func (t *Tracker) Update(deltaQty float64, price float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := t.net + deltaQty
	switch {
	case next == 0:
		t.cost = 0
	case t.net == 0 || (t.net > 0) != (next > 0):
		// 开仓或反手：新仓位全部按本次成交价计成本
		t.cost = price
	case (t.net > 0) == (deltaQty > 0):
		// 同向加仓
		t.cost = (t.cost*t.net + price*deltaQty) / next
	}
	// 同方向减仓不改变成本
	t.net = next
}

func (t *Tracker) NetExposure() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.net
}

func (t *Tracker) AvgCost() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cost
}

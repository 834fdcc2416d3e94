package gateway

import (
	"sort"
	"sync"

	"penny-mm/market"
	"penny-mm/order"
)

// PaperOrder 为纸面撮合中的一笔订单。
type PaperOrder struct {
	ID       order.OrderID
	Ticker   market.Ticker
	Side     market.Side
	Quantity float64
	Price    float64
	IOC      bool
}

// Execution 为纸面成交，字段与 account 回调一一对应。
type Execution struct {
	OrderID          order.OrderID
	Ticker           market.Ticker
	Side             market.Side
	Price            float64
	Quantity         float64
	CapitalRemaining float64
}

// Paper 是进程内的 order.Exchange 实现：分配递增句柄、维护挂单，
// 并在 Match 时按盘口撮合被穿越的挂单与可成交的 IOC 单。
type Paper struct {
	mu      sync.Mutex
	nextID  order.OrderID
	resting map[order.OrderID]PaperOrder
	pending []PaperOrder // 等待撮合的 IOC 单
	capital float64

	placed   int
	canceled int
	markets  int
}

func NewPaper(capital float64) *Paper {
	return &Paper{
		resting: make(map[order.OrderID]PaperOrder),
		capital: capital,
	}
}

// PlaceMarketOrder 纸面模式下只记录次数，不产生成交。
func (p *Paper) PlaceMarketOrder(side market.Side, ticker market.Ticker, quantity float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.markets++
	return quantity > 0
}

func (p *Paper) PlaceLimitOrder(side market.Side, ticker market.Ticker, quantity, price float64, ioc bool) order.OrderID {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.placed++
	o := PaperOrder{ID: p.nextID, Ticker: ticker, Side: side, Quantity: quantity, Price: price, IOC: ioc}
	if ioc {
		p.pending = append(p.pending, o)
	} else {
		p.resting[o.ID] = o
	}
	return o.ID
}

// CancelOrder 仅当订单仍在挂单簿中时返回 true。
func (p *Paper) CancelOrder(ticker market.Ticker, id order.OrderID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.resting[id]
	if !ok || o.Ticker != ticker {
		return false
	}
	delete(p.resting, id)
	p.canceled++
	return true
}

// Match 用最新盘口撮合：买单价格 >= 卖一、卖单价格 <= 买一即全部成交，
// 成交价取订单价格。未能成交的 IOC 单直接丢弃。
// 返回的成交按订单句柄排序。
func (p *Paper) Match(ticker market.Ticker, bestBid, bestAsk float64) []Execution {
	p.mu.Lock()
	defer p.mu.Unlock()

	crossed := func(o PaperOrder) bool {
		if o.Side == market.Buy {
			return bestAsk > 0 && o.Price >= bestAsk
		}
		return bestBid > 0 && o.Price <= bestBid
	}

	var hits []PaperOrder
	for id, o := range p.resting {
		if o.Ticker == ticker && crossed(o) {
			hits = append(hits, o)
			delete(p.resting, id)
		}
	}
	keep := p.pending[:0]
	for _, o := range p.pending {
		switch {
		case o.Ticker != ticker:
			keep = append(keep, o)
		case crossed(o):
			hits = append(hits, o)
		}
	}
	p.pending = keep
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })

	out := make([]Execution, 0, len(hits))
	for _, o := range hits {
		p.capital -= o.Side.Sign() * o.Quantity * o.Price
		out = append(out, Execution{
			OrderID:          o.ID,
			Ticker:           o.Ticker,
			Side:             o.Side,
			Price:            o.Price,
			Quantity:         o.Quantity,
			CapitalRemaining: p.capital,
		})
	}
	return out
}

// Open 返回某品种当前挂单，按句柄排序。
func (p *Paper) Open(ticker market.Ticker) []PaperOrder {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []PaperOrder
	for _, o := range p.resting {
		if o.Ticker == ticker {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats 返回下单、撤单与市价单次数。
func (p *Paper) Stats() (placed, canceled, markets int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.placed, p.canceled, p.markets
}

func (p *Paper) Capital() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capital
}

package order

import (
	"go.uber.org/zap"

	"penny-mm/infrastructure/logger"
	"penny-mm/market"
)

// Metrics 为订单事件的指标出口，monitor.Monitor 实现该接口。
type Metrics interface {
	RecordOrderPlaced(ticker, side string, ioc bool)
	RecordOrderCanceled(ticker string, ok bool)
}

type nopMetrics struct{}

func (nopMetrics) RecordOrderPlaced(string, string, bool) {}
func (nopMetrics) RecordOrderCanceled(string, bool)       {}

// Manager 维护每个品种的双边挂单句柄，并通过 Exchange 下发撤单/下单。
// 不做并发保护：只允许在策略事件循环内调用。
type Manager struct {
	ex      Exchange
	quotes  map[market.Ticker]*Quotes
	log     *logger.Logger
	metrics Metrics
}

func NewManager(ex Exchange, log *logger.Logger, m Metrics) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	if m == nil {
		m = nopMetrics{}
	}
	mgr := &Manager{
		ex:      ex,
		quotes:  make(map[market.Ticker]*Quotes, 3),
		log:     log,
		metrics: m,
	}
	for _, t := range market.Tickers() {
		mgr.quotes[t] = &Quotes{}
	}
	return mgr
}

// Quotes 返回某品种当前记录的挂单（拷贝）。
func (m *Manager) Quotes(ticker market.Ticker) Quotes {
	return *m.entry(ticker)
}

// Replace 撤掉该侧已有挂单后挂出新的限价单（非 IOC），并记录新句柄。
func (m *Manager) Replace(o Order) OrderID {
	slot := m.entry(o.Ticker).slot(o.Side)
	if slot.Live {
		m.cancel(o.Ticker, slot.ID)
	}
	o.IOC = false
	id := m.place(o)
	*slot = Slot{ID: id, Live: true}
	return id
}

// SendIOC 下发立即成交否则撤销的限价单；IOC 单不占用挂单槽位。
func (m *Manager) SendIOC(o Order) OrderID {
	o.IOC = true
	return m.place(o)
}

// Clear 成交后清除该侧句柄，不向撮合方发送撤单。
func (m *Manager) Clear(ticker market.Ticker, side market.Side) {
	*m.entry(ticker).slot(side) = Slot{}
}

// CancelAll 撤掉该品种记录在案的买卖挂单并清空句柄。
func (m *Manager) CancelAll(ticker market.Ticker) {
	q := m.entry(ticker)
	for _, side := range []market.Side{market.Buy, market.Sell} {
		slot := q.slot(side)
		if !slot.Live {
			continue
		}
		m.cancel(ticker, slot.ID)
		*slot = Slot{}
	}
}

func (m *Manager) place(o Order) OrderID {
	id := m.ex.PlaceLimitOrder(o.Side, o.Ticker, o.Quantity, o.Price, o.IOC)
	m.metrics.RecordOrderPlaced(o.Ticker.String(), o.Side.String(), o.IOC)
	m.log.LogOrder("place", o.Ticker.String(), int64(id),
		zap.Stringer("side", o.Side),
		zap.Float64("qty", o.Quantity),
		zap.Float64("price", o.Price),
		zap.Bool("ioc", o.IOC),
	)
	return id
}

func (m *Manager) cancel(ticker market.Ticker, id OrderID) {
	ok := m.ex.CancelOrder(ticker, id)
	m.metrics.RecordOrderCanceled(ticker.String(), ok)
	m.log.LogOrder("cancel", ticker.String(), int64(id), zap.Bool("ok", ok))
}

func (m *Manager) entry(ticker market.Ticker) *Quotes {
	q, ok := m.quotes[ticker]
	if !ok {
		q = &Quotes{}
		m.quotes[ticker] = q
	}
	return q
}

package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor 收集做市指标，所有指标按品种打标签
type Monitor struct {
	registry *prometheus.Registry

	// 订单指标
	quotes         *prometheus.CounterVec
	ordersPlaced   *prometheus.CounterVec
	ordersCanceled *prometheus.CounterVec
	cancelFailures *prometheus.CounterVec
	unwinds        *prometheus.CounterVec

	// 成交指标
	fills        *prometheus.CounterVec
	tradedVolume *prometheus.CounterVec

	// 仓位/资金
	position    *prometheus.GaugeVec
	capital     prometheus.Gauge
	realizedPnL prometheus.Gauge

	// 市场
	bestBid   *prometheus.GaugeVec
	bestAsk   *prometheus.GaugeVec
	lastTrade *prometheus.GaugeVec
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "mm",
		Subsystem: "penny",
	}
}

// New 创建新的Monitor实例，使用独立 registry 避免全局注册冲突
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		}, labels)
	}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		}, []string{"ticker"})
	}

	return &Monitor{
		registry: reg,

		quotes:         counter("quotes_total", "重新报价次数", "ticker"),
		ordersPlaced:   counter("orders_placed_total", "限价单下单总数", "ticker", "side", "tif"),
		ordersCanceled: counter("orders_canceled_total", "撤单总数", "ticker"),
		cancelFailures: counter("cancel_failures_total", "撤单返回失败次数", "ticker"),
		unwinds:        counter("emergency_unwinds_total", "紧急平仓次数", "ticker", "side"),

		fills:        counter("fills_total", "成交回报总数", "ticker", "side"),
		tradedVolume: counter("traded_volume_total", "累计成交量", "ticker"),

		position: gauge("position", "当前净仓位"),
		capital: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "capital",
			Help:      "撮合方回报的剩余资金",
		}),
		realizedPnL: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "realized_pnl",
			Help:      "累计资金变化",
		}),

		bestBid:   gauge("best_bid", "当前买一价"),
		bestAsk:   gauge("best_ask", "当前卖一价"),
		lastTrade: gauge("last_trade_price", "最近成交价"),
	}
}

func (m *Monitor) RecordQuote(ticker string) {
	m.quotes.WithLabelValues(ticker).Inc()
}

// RecordOrderPlaced tif 为 "gtc" 或 "ioc"
func (m *Monitor) RecordOrderPlaced(ticker, side string, ioc bool) {
	tif := "gtc"
	if ioc {
		tif = "ioc"
	}
	m.ordersPlaced.WithLabelValues(ticker, side, tif).Inc()
}

func (m *Monitor) RecordOrderCanceled(ticker string, ok bool) {
	m.ordersCanceled.WithLabelValues(ticker).Inc()
	if !ok {
		m.cancelFailures.WithLabelValues(ticker).Inc()
	}
}

func (m *Monitor) RecordUnwind(ticker, side string) {
	m.unwinds.WithLabelValues(ticker, side).Inc()
}

func (m *Monitor) RecordFill(ticker, side string, qty float64) {
	m.fills.WithLabelValues(ticker, side).Inc()
	m.tradedVolume.WithLabelValues(ticker).Add(qty)
}

func (m *Monitor) UpdatePosition(ticker string, net float64) {
	m.position.WithLabelValues(ticker).Set(net)
}

func (m *Monitor) UpdateAccount(capital, realized float64) {
	m.capital.Set(capital)
	m.realizedPnL.Set(realized)
}

// UpdateTop 未知的一侧以 0 表示
func (m *Monitor) UpdateTop(ticker string, bid, ask float64) {
	m.bestBid.WithLabelValues(ticker).Set(bid)
	m.bestAsk.WithLabelValues(ticker).Set(ask)
}

func (m *Monitor) UpdateLastTrade(ticker string, price float64) {
	m.lastTrade.WithLabelValues(ticker).Set(price)
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

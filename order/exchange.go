package order

import "penny-mm/market"

// Exchange 为外部撮合方提供的三个下单原语，签名与返回约定固定。
// 返回值只用于日志和指标，不存在重试或错误路径。
type Exchange interface {
	PlaceMarketOrder(side market.Side, ticker market.Ticker, quantity float64) bool
	PlaceLimitOrder(side market.Side, ticker market.Ticker, quantity, price float64, ioc bool) OrderID
	CancelOrder(ticker market.Ticker, id OrderID) bool
}

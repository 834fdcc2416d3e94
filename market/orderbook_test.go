package market

import "testing"

func TestOrderBookApplyAndMid(t *testing.T) {
	ob := NewOrderBook()
	if ob.Top(ETH).Known() {
		t.Fatalf("fresh book should be unknown")
	}
	ob.Apply(ETH, Buy, 3, 100)
	ob.Apply(ETH, Sell, 2, 101)
	top := ob.Top(ETH)
	bid, ok := top.Bid()
	if !ok || bid != 100 {
		t.Fatalf("unexpected bid %f ok=%v", bid, ok)
	}
	if mid := top.Mid(); mid != 100.5 {
		t.Fatalf("unexpected mid %f", mid)
	}
	// 其他品种不受影响
	if ob.Top(BTC).Known() {
		t.Fatalf("BTC should stay unknown")
	}
}

func TestOrderBookZeroQtyClearsSide(t *testing.T) {
	ob := NewOrderBook()
	ob.Apply(LTC, Buy, 1, 50)
	ob.Apply(LTC, Sell, 1, 51)
	ob.Apply(LTC, Sell, 0, 51)
	top := ob.Top(LTC)
	if _, ok := top.Ask(); ok {
		t.Fatalf("ask should be cleared")
	}
	if top.Mid() != 0 {
		t.Fatalf("mid should be 0 when a side is missing")
	}
	ob.Apply(LTC, Buy, 5, 0)
	if _, ok := ob.Top(LTC).Bid(); ok {
		t.Fatalf("zero price should be treated as unknown")
	}
}

func TestParseTickerSide(t *testing.T) {
	tk, err := ParseTicker("btc")
	if err != nil || tk != BTC {
		t.Fatalf("parse ticker: %v %v", tk, err)
	}
	if _, err := ParseTicker("DOGE"); err == nil {
		t.Fatalf("expected error for unknown ticker")
	}
	sd, err := ParseSide("sell")
	if err != nil || sd != Sell || sd.Opposite() != Buy || sd.Sign() != -1 {
		t.Fatalf("parse side: %v %v", sd, err)
	}
	var back Ticker
	if err := back.UnmarshalText([]byte("LTC")); err != nil || back != LTC {
		t.Fatalf("unmarshal ticker: %v %v", back, err)
	}
}

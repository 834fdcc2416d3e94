package market

import (
	"fmt"
	"strings"
)

// Ticker 标识可交易品种。
type Ticker uint8

const (
	ETH Ticker = iota
	BTC
	LTC
)

// Tickers 返回全部品种，顺序固定。
func Tickers() []Ticker {
	return []Ticker{ETH, BTC, LTC}
}

func (t Ticker) String() string {
	switch t {
	case ETH:
		return "ETH"
	case BTC:
		return "BTC"
	case LTC:
		return "LTC"
	default:
		return fmt.Sprintf("Ticker(%d)", uint8(t))
	}
}

// Valid 判断是否为已知品种。
func (t Ticker) Valid() bool { return t <= LTC }

// ParseTicker 解析 "ETH"/"btc" 等字符串。
func ParseTicker(s string) (Ticker, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ETH":
		return ETH, nil
	case "BTC":
		return BTC, nil
	case "LTC":
		return LTC, nil
	}
	return 0, fmt.Errorf("unknown ticker %q", s)
}

// MarshalText / UnmarshalText 让 Ticker 能直接出现在 JSON/YAML 中。
func (t Ticker) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid ticker %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *Ticker) UnmarshalText(b []byte) error {
	v, err := ParseTicker(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Side 为买卖方向。
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

// Opposite 返回反方向。
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Sign 买为 +1，卖为 -1，用于仓位增减。
func (s Side) Sign() float64 {
	if s == Buy {
		return 1
	}
	return -1
}

func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "BID":
		return Buy, nil
	case "SELL", "ASK":
		return Sell, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

func (s Side) MarshalText() ([]byte, error) {
	if s > Sell {
		return nil, fmt.Errorf("invalid side %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	v, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

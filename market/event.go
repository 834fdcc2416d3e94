package market

import (
	"encoding/json"
	"fmt"
)

// EventKind 区分撮合方推送的三类回调事件。
type EventKind string

const (
	EventOrderbook EventKind = "orderbook"
	EventTrade     EventKind = "trade"
	EventAccount   EventKind = "account"
)

// Event 为一条入站事件；CapitalRemaining 只在 account 事件中有效。
type Event struct {
	Kind             EventKind `json:"type"`
	Ticker           Ticker    `json:"ticker"`
	Side             Side      `json:"side"`
	Quantity         float64   `json:"quantity"`
	Price            float64   `json:"price"`
	CapitalRemaining float64   `json:"capital_remaining,omitempty"`
}

// Validate 检查事件类型与数值。
func (e Event) Validate() error {
	switch e.Kind {
	case EventOrderbook, EventTrade, EventAccount:
	default:
		return fmt.Errorf("unknown event type %q", e.Kind)
	}
	if !e.Ticker.Valid() {
		return fmt.Errorf("invalid ticker %d", uint8(e.Ticker))
	}
	if e.Quantity < 0 || e.Price < 0 {
		return fmt.Errorf("negative quantity/price in %s event", e.Kind)
	}
	return nil
}

// wireEvent 用指针区分缺失字段与零值：缺省的 ticker/side 会被解码成 ETH/BUY。
type wireEvent struct {
	Kind             EventKind `json:"type"`
	Ticker           *Ticker   `json:"ticker"`
	Side             *Side     `json:"side"`
	Quantity         *float64  `json:"quantity"`
	Price            *float64  `json:"price"`
	CapitalRemaining *float64  `json:"capital_remaining"`
}

// UnmarshalJSON 要求 ticker、side、quantity、price 必填，account 事件另需 capital_remaining。
func (e *Event) UnmarshalJSON(b []byte) error {
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	missing := func(name string) error {
		return fmt.Errorf("%s event missing %q", w.Kind, name)
	}
	switch {
	case w.Ticker == nil:
		return missing("ticker")
	case w.Side == nil:
		return missing("side")
	case w.Quantity == nil:
		return missing("quantity")
	case w.Price == nil:
		return missing("price")
	case w.Kind == EventAccount && w.CapitalRemaining == nil:
		return missing("capital_remaining")
	}
	*e = Event{
		Kind:     w.Kind,
		Ticker:   *w.Ticker,
		Side:     *w.Side,
		Quantity: *w.Quantity,
		Price:    *w.Price,
	}
	if w.CapitalRemaining != nil {
		e.CapitalRemaining = *w.CapitalRemaining
	}
	return nil
}

package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"

	"penny-mm/market"
)

// ParseEvents 解析一帧 JSON：单个事件对象或事件数组。
// 任一事件校验失败则整帧丢弃。
func ParseEvents(raw []byte) ([]market.Event, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty frame")
	}
	var events []market.Event
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &events); err != nil {
			return nil, fmt.Errorf("decode event batch: %w", err)
		}
	} else {
		var ev market.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		events = []market.Event{ev}
	}
	for i, ev := range events {
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}
	return events, nil
}

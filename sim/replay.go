package sim

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"penny-mm/gateway"
	"penny-mm/market"
)

// Replayer 按顺序回放 JSON-lines 事件文件。
// 每行一个事件对象或事件数组；空行与 # 开头的行被忽略。
type Replayer struct {
	r io.Reader
}

func NewReplayer(r io.Reader) *Replayer { return &Replayer{r: r} }

// OpenReplay 打开回放文件；调用方负责关闭返回的文件。
func OpenReplay(path string) (*Replayer, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open replay: %w", err)
	}
	return NewReplayer(f), f, nil
}

// Run 将事件依次写入 out，结束后关闭 out。遇到坏行立即返回错误。
func (p *Replayer) Run(ctx context.Context, out chan<- market.Event) error {
	defer close(out)
	sc := bufio.NewScanner(p.r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}
		events, err := gateway.ParseEvents(raw)
		if err != nil {
			return fmt.Errorf("replay line %d: %w", line, err)
		}
		for _, ev := range events {
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("replay read: %w", err)
	}
	return nil
}

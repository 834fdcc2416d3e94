package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"penny-mm/infrastructure/logger"
	"penny-mm/market"
)

// EventFeed 通过 websocket 接收撮合方推送的 JSON 事件帧，
// 断线后按 Reconnect 间隔重连，直到 ctx 取消。
type EventFeed struct {
	URL         string
	Dialer      *websocket.Dialer
	ReadTimeout time.Duration // 0 表示不设读超时
	Reconnect   time.Duration
	Log         *logger.Logger

	limiter RateLimiter
}

func NewEventFeed(url string, reconnect, readTimeout time.Duration, log *logger.Logger) *EventFeed {
	return &EventFeed{
		URL:         url,
		Dialer:      websocket.DefaultDialer,
		ReadTimeout: readTimeout,
		Reconnect:   reconnect,
		Log:         log,
	}
}

// Run 阻塞读取事件并写入 out；ctx 取消后返回 ctx.Err()。
// 解析失败的帧记录日志后跳过，不中断连接。
func (f *EventFeed) Run(ctx context.Context, out chan<- market.Event) error {
	if f.URL == "" {
		return fmt.Errorf("event feed url required")
	}
	if f.Dialer == nil {
		f.Dialer = websocket.DefaultDialer
	}
	if f.Log == nil {
		f.Log = logger.NewNop()
	}
	if f.limiter == nil {
		reconnect := f.Reconnect
		if reconnect <= 0 {
			reconnect = time.Second
		}
		f.limiter = NewTokenBucketLimiter(float64(time.Second)/float64(reconnect), 1)
	}

	for {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}
		err := f.session(ctx, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.Log.Warn("event feed disconnected, reconnecting",
			zap.String("url", f.URL), zap.Error(err))
	}
}

func (f *EventFeed) session(ctx context.Context, out chan<- market.Event) error {
	conn, _, err := f.Dialer.DialContext(ctx, f.URL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	f.Log.Info("event feed connected", zap.String("url", f.URL))

	// ctx 取消时关闭连接以打断阻塞的 ReadMessage
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		if f.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(f.ReadTimeout))
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return errors.New("closed by peer")
			}
			return err
		}
		events, err := ParseEvents(msg)
		if err != nil {
			f.Log.Warn("drop malformed frame", zap.Error(err), zap.ByteString("frame", msg))
			continue
		}
		for _, ev := range events {
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

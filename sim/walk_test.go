package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"penny-mm/gateway"
	"penny-mm/market"
	"penny-mm/strategy"
)

func TestWalkStepProducesValidBook(t *testing.T) {
	w := NewWalk(DefaultWalkConfig())
	for i := 0; i < 500; i++ {
		evs := w.Step()
		require.GreaterOrEqual(t, len(evs), 2)
		bid, ask := evs[0], evs[1]
		assert.Equal(t, bid.Ticker, ask.Ticker)
		assert.Equal(t, market.Buy, bid.Side)
		assert.Equal(t, market.Sell, ask.Side)
		assert.Greater(t, bid.Price, 0.0)
		assert.InDelta(t, 0.04, ask.Price-bid.Price, 1e-6)
		for _, ev := range evs {
			require.NoError(t, ev.Validate())
		}
	}
}

func TestWalkIsDeterministicPerSeed(t *testing.T) {
	a := NewWalk(DefaultWalkConfig())
	b := NewWalk(DefaultWalkConfig())
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Step(), b.Step())
	}
}

func TestWalkWithPaperKeepsStrategyConsistent(t *testing.T) {
	cfg := DefaultWalkConfig()
	cfg.Vol = 0.002
	w := NewWalk(cfg)
	paper := gateway.NewPaper(strategy.DefaultCapital)
	s, err := strategy.New(paper, strategy.DefaultParams())
	require.NoError(t, err)

	events := make(chan market.Event, 64)
	go func() { _ = w.Run(context.Background(), 2000, events) }()
	r := &Runner{Handler: s, Paper: paper}
	require.NoError(t, r.Run(context.Background(), events))

	st := r.Stats()
	assert.Equal(t, 4000, st.Orderbook)
	assert.Equal(t, st.Account, s.Trades())
	assert.InDelta(t, paper.Capital(), s.Capital(), 1e-6)
	for _, tk := range market.Tickers() {
		q := s.Quotes(tk)
		live := 0
		for _, slot := range []bool{q.Bid.Live, q.Ask.Live} {
			if slot {
				live++
			}
		}
		// 记录在案的挂单必然仍在纸面挂单簿中
		assert.GreaterOrEqual(t, len(paper.Open(tk)), live)
	}
}

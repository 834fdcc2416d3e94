package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"penny-mm/journal"
	"penny-mm/market"
)

type stats struct {
	trades       int
	buyNotional  float64
	sellNotional float64
	pnl          float64
	inventory    float64
	unwinds      int
	unwindSize   float64
}

func (s *stats) add(f journal.FillRecord) {
	if f.Quantity <= 0 || f.Price <= 0 {
		return
	}
	notion := f.Price * f.Quantity
	s.trades++
	if f.Side == market.Buy {
		s.buyNotional += notion
	} else {
		s.sellNotional += notion
	}
	s.pnl += f.PnLDelta
	s.inventory = f.Inventory
}

// 从成交日志库统计各品种成交、资金变化与紧急平仓次数。
func main() {
	dbPath := flag.String("journal", "data/journal.db", "成交日志库路径")
	tickerStr := flag.String("ticker", "", "仅统计指定品种 (默认全部)")
	sinceStr := flag.String("since", "", "仅统计此时间之后的记录 (RFC3339，例如 2025-11-22T00:00:00Z)")
	flag.Parse()

	var since time.Time
	var err error
	if *sinceStr != "" {
		since, err = time.Parse(time.RFC3339Nano, *sinceStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "解析 since 参数失败: %v\n", err)
			os.Exit(1)
		}
	}
	tickers := market.Tickers()
	if *tickerStr != "" {
		t, err := market.ParseTicker(*tickerStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "未知品种: %v\n", err)
			os.Exit(1)
		}
		tickers = []market.Ticker{t}
	}

	if _, err := os.Stat(*dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "无法读取日志库: %v\n", err)
		os.Exit(1)
	}
	store, err := journal.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "打开日志库失败: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var total stats
	for _, t := range tickers {
		fills, err := store.Fills(ctx, t)
		if err != nil {
			fmt.Fprintf(os.Stderr, "读取 %s 成交失败: %v\n", t, err)
			os.Exit(1)
		}
		unwinds, err := store.Unwinds(ctx, t)
		if err != nil {
			fmt.Fprintf(os.Stderr, "读取 %s 平仓记录失败: %v\n", t, err)
			os.Exit(1)
		}

		var st stats
		for _, f := range fills {
			if !since.IsZero() && f.At.Before(since) {
				continue
			}
			st.add(f)
		}
		for _, u := range unwinds {
			if !since.IsZero() && u.At.Before(since) {
				continue
			}
			st.unwinds++
			st.unwindSize += u.Size
		}
		fmt.Printf("%-4s trades=%d buy=%.2f sell=%.2f pnl=%.2f inventory=%.2f unwinds=%d unwind_size=%.2f\n",
			t, st.trades, st.buyNotional, st.sellNotional, st.pnl, st.inventory, st.unwinds, st.unwindSize)

		total.trades += st.trades
		total.buyNotional += st.buyNotional
		total.sellNotional += st.sellNotional
		total.pnl += st.pnl
		total.unwinds += st.unwinds
	}
	fmt.Println("============== 统计 ==============")
	fmt.Printf("成交笔数: %d\n", total.trades)
	fmt.Printf("买入名义: %.4f\n", total.buyNotional)
	fmt.Printf("卖出名义: %.4f\n", total.sellNotional)
	fmt.Printf("资金变化: %.4f\n", total.pnl)
	fmt.Printf("紧急平仓: %d\n", total.unwinds)
}

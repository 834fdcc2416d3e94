package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"penny-mm/config"
	"penny-mm/gateway"
	"penny-mm/infrastructure/logger"
	"penny-mm/market"
	"penny-mm/sim"
	"penny-mm/strategy"
)

// 本地随机游走模拟：生成三个品种的盘口，纸面撮合我方挂单，
// 结束后打印各品种仓位与资金。不会连接任何外部事件源。
func main() {
	cfgPath := flag.String("config", "", "配置文件路径（可选，仅使用 strategy 与 initialCapital）")
	steps := flag.Int("steps", 5000, "随机游走步数")
	seed := flag.Int64("seed", 1, "随机种子")
	vol := flag.Float64("vol", 0.0005, "每步中间价相对波动")
	spread := flag.Int("spread", 4, "盘口价差（tick 数）")
	baseSize := flag.Float64("baseSize", 0, "覆盖 baseOrderSize（0 表示不覆盖）")
	maxPos := flag.Float64("maxPos", 0, "覆盖 maxPosition（0 表示不覆盖）")
	verbose := flag.Bool("v", false, "输出策略日志")
	flag.Parse()

	params := strategy.DefaultParams()
	capital := strategy.DefaultCapital
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("加载配置失败: %v", err)
		}
		params = cfg.Strategy.Params()
		capital = cfg.InitialCapital
	}
	if *baseSize > 0 {
		params.BaseOrderSize = *baseSize
	}
	if *maxPos > 0 {
		params.MaxPosition = *maxPos
	}

	lg := logger.NewNop()
	if *verbose {
		cfg := logger.DefaultConfig()
		cfg.Format = "console"
		l, err := logger.New(cfg)
		if err != nil {
			log.Fatalf("初始化日志失败: %v", err)
		}
		lg = l
		defer lg.Close()
	}

	paper := gateway.NewPaper(capital)
	strat, err := strategy.New(paper, params, strategy.WithCapital(capital), strategy.WithLogger(lg))
	if err != nil {
		log.Fatalf("初始化策略失败: %v", err)
	}

	wc := sim.DefaultWalkConfig()
	wc.Seed = *seed
	wc.Vol = *vol
	wc.Spread = *spread
	wc.Tick = params.TickSize
	walk := sim.NewWalk(wc)

	ctx := context.Background()
	events := make(chan market.Event, 256)
	go func() { _ = walk.Run(ctx, *steps, events) }()

	runner := &sim.Runner{Handler: strat, Paper: paper, Log: lg}
	if err := runner.Run(ctx, events); err != nil {
		log.Fatalf("模拟失败: %v", err)
	}

	st := runner.Stats()
	fmt.Printf("events: orderbook=%d trade=%d fills=%d\n", st.Orderbook, st.Trade, st.Account)
	placed, canceled, _ := paper.Stats()
	fmt.Printf("orders: placed=%d canceled=%d\n", placed, canceled)
	for _, t := range market.Tickers() {
		net, upnl := strat.Position(t).Valuation(walk.Mid(t))
		fmt.Printf("%-4s mid=%10.2f inventory=%8.2f avg_cost=%10.2f unrealized=%10.2f\n",
			t, walk.Mid(t), net, strat.Position(t).AvgCost(), upnl)
	}
	fmt.Printf("capital=%.2f total_pnl=%.2f trades=%d\n", strat.Capital(), strat.TotalPnL(), strat.Trades())
}

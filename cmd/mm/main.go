package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"

	"penny-mm/config"
	"penny-mm/gateway"
	"penny-mm/infrastructure/logger"
	"penny-mm/infrastructure/monitor"
	"penny-mm/journal"
	"penny-mm/market"
	"penny-mm/sim"
	"penny-mm/strategy"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	replay := flag.String("replay", "", "回放 JSON-lines 事件文件，代替 websocket 事件源")
	paperFill := flag.Bool("paperFill", true, "按盘口在本地撮合挂单；关闭时成交回报由事件源推送")
	watch := flag.Bool("watch", true, "监听配置文件变更并热更新策略参数")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer lg.Close()

	if err := run(cfg, lg, *cfgPath, *replay, *paperFill, *watch); err != nil && !errors.Is(err, context.Canceled) {
		lg.LogError(err, zap.String("op", "run"))
		_ = lg.Close()
		os.Exit(1)
	}
}

func run(cfg config.AppConfig, lg *logger.Logger, cfgPath, replay string, paperFill, watch bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mon := monitor.New(monitor.DefaultConfig())
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux(mon), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				lg.LogError(err, zap.String("op", "metrics_server"))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		lg.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))
	}

	paper := gateway.NewPaper(cfg.InitialCapital)
	opts := []strategy.Option{
		strategy.WithLogger(lg.Named("strategy")),
		strategy.WithMetrics(mon),
		strategy.WithCapital(cfg.InitialCapital),
	}
	if cfg.Journal.Path != "" {
		store, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, strategy.WithJournal(store))
	}
	strat, err := strategy.New(paper, cfg.Strategy.Params(), opts...)
	if err != nil {
		return fmt.Errorf("init strategy: %w", err)
	}

	params := make(chan strategy.Params, 1)
	if watch {
		w := config.Watcher{Path: cfgPath, Cooldown: 500 * time.Millisecond, Log: lg.Named("config")}
		go func() {
			err := w.Start(ctx, func(c config.AppConfig) {
				// 只保留最新一次参数
				select {
				case <-params:
				default:
				}
				params <- c.Strategy.Params()
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				lg.Warn("config watcher stopped", zap.Error(err))
			}
		}()
	}

	runner := &sim.Runner{Handler: strat, Params: params, Log: lg.Named("runner")}
	if paperFill {
		runner.Paper = paper
	}

	events := make(chan market.Event, 1024)
	feedErr := make(chan error, 1)
	if replay != "" {
		rp, f, err := sim.OpenReplay(replay)
		if err != nil {
			return err
		}
		defer f.Close()
		go func() { feedErr <- rp.Run(ctx, events) }()
	} else {
		if cfg.Feed.URL == "" {
			return errors.New("feed.url or -replay required")
		}
		feed := gateway.NewEventFeed(cfg.Feed.URL,
			time.Duration(cfg.Feed.ReconnectMs)*time.Millisecond,
			time.Duration(cfg.Feed.ReadTimeoutS)*time.Second,
			lg.Named("feed"))
		go func() {
			err := feed.Run(ctx, events)
			close(events)
			feedErr <- err
		}()
	}

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		lg.Warn("sd_notify failed", zap.Error(err))
	} else if ok {
		lg.Info("systemd notified ready")
	}
	lg.Info("market maker started",
		zap.String("env", cfg.Env),
		zap.Float64("capital", cfg.InitialCapital),
		zap.Bool("paper_fill", paperFill),
		zap.String("replay", replay),
	)

	runErr := runner.Run(ctx, events)
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	// 事件循环已退出，在同一 goroutine 上撤掉全部挂单
	for _, t := range market.Tickers() {
		strat.CancelAll(t)
	}
	st := runner.Stats()
	lg.Info("market maker stopped",
		zap.Int("orderbook_events", st.Orderbook),
		zap.Int("trade_events", st.Trade),
		zap.Int("account_events", st.Account),
		zap.Int("param_reloads", st.Reloads),
		zap.Int("trades", strat.Trades()),
		zap.Float64("capital", strat.Capital()),
		zap.Float64("total_pnl", strat.TotalPnL()),
	)

	if runErr != nil {
		return runErr
	}
	// events 关闭：回放结束或事件源退出
	return <-feedErr
}

func metricsMux(mon *monitor.Monitor) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", mon.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"penny-mm/infrastructure/logger"
	"penny-mm/strategy"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env            string         `yaml:"env"`
	InitialCapital float64        `yaml:"initialCapital"`
	Strategy       StrategyParams `yaml:"strategy"`
	Log            logger.Config  `yaml:"log"`
	Metrics        MetricsConfig  `yaml:"metrics"`
	Journal        JournalConfig  `yaml:"journal"`
	Feed           FeedConfig     `yaml:"feed"`
}

// StrategyParams 对应 strategy.Params；未填写的字段使用默认值。
type StrategyParams struct {
	BaseOrderSize     float64 `yaml:"baseOrderSize"`     // 报价基础数量
	SpreadImprovement float64 `yaml:"spreadImprovement"` // 库存偏移价格单位
	InventorySkew     float64 `yaml:"inventorySkew"`     // 库存偏移系数
	TickSize          float64 `yaml:"tickSize"`          // 抢价步长
	MaxPosition       float64 `yaml:"maxPosition"`       // 单品种仓位上限
	QuoteFrequency    int     `yaml:"quoteFrequency"`    // 每 N 次盘口更新报价一次
	UnwindThreshold   float64 `yaml:"unwindThreshold"`   // 停止同向加仓/紧急平仓的仓位比例
	SizeFloor         float64 `yaml:"sizeFloor"`         // 下单量缩放下限
	FlattenBoost      float64 `yaml:"flattenBoost"`      // 减仓方向放大倍数
	UnwindFraction    float64 `yaml:"unwindFraction"`    // 紧急平仓比例
	UnwindSlippage    float64 `yaml:"unwindSlippage"`    // 紧急平仓让价比例
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // 留空则不启动 /metrics
}

type JournalConfig struct {
	Path string `yaml:"path"` // 留空则不记录
}

type FeedConfig struct {
	URL          string `yaml:"url"`          // websocket 事件源
	ReconnectMs  int    `yaml:"reconnectMs"`  // 断线重连间隔
	ReadTimeoutS int    `yaml:"readTimeoutS"` // 读超时（秒）
}

// Params 合并默认值，返回策略参数。
func (p StrategyParams) Params() strategy.Params {
	out := strategy.DefaultParams()
	set := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	set(&out.BaseOrderSize, p.BaseOrderSize)
	set(&out.SpreadImprovement, p.SpreadImprovement)
	set(&out.InventorySkew, p.InventorySkew)
	set(&out.TickSize, p.TickSize)
	set(&out.MaxPosition, p.MaxPosition)
	set(&out.UnwindThreshold, p.UnwindThreshold)
	set(&out.SizeFloor, p.SizeFloor)
	set(&out.FlattenBoost, p.FlattenBoost)
	set(&out.UnwindFraction, p.UnwindFraction)
	set(&out.UnwindSlippage, p.UnwindSlippage)
	if p.QuoteFrequency != 0 {
		out.QuoteFrequency = p.QuoteFrequency
	}
	return out
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides deployment fields from env vars.
// A .env file next to the process is honoured when present; existing env vars win.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("MM_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("MM_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("MM_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
	return cfg, Validate(cfg)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.InitialCapital == 0 {
		cfg.InitialCapital = strategy.DefaultCapital
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = logger.DefaultConfig().Level
	}
	if len(cfg.Log.Outputs) == 0 {
		cfg.Log.Outputs = logger.DefaultConfig().Outputs
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = logger.DefaultConfig().Format
	}
	if cfg.Feed.ReconnectMs == 0 {
		cfg.Feed.ReconnectMs = 1000
	}
	if cfg.Feed.ReadTimeoutS == 0 {
		cfg.Feed.ReadTimeoutS = 30
	}
}

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.InitialCapital <= 0 {
		return ErrInvalid("initialCapital must be > 0")
	}
	if cfg.Feed.ReconnectMs < 0 || cfg.Feed.ReadTimeoutS < 0 {
		return ErrInvalid("feed.reconnectMs/readTimeoutS must be >= 0")
	}
	if err := cfg.Strategy.Params().Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	return nil
}

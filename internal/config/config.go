package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":9921"
	}
	if c.Binance.Source == "" {
		c.Binance.Source = "sdk"
	}
	if c.Binance.TimeoutSeconds <= 0 {
		c.Binance.TimeoutSeconds = 15
	}
	if c.Fetch.PageSize <= 0 {
		c.Fetch.PageSize = 1000
	}
	if c.Fetch.RateLimitPerMin <= 0 {
		c.Fetch.RateLimitPerMin = 480
	}
	if c.Preheat.WindowDays <= 0 {
		c.Preheat.WindowDays = 365
	}
}

func validate(c *Config) error {
	switch strings.ToLower(strings.TrimSpace(c.Binance.Source)) {
	case "sdk", "rest":
	default:
		return fmt.Errorf("binance.source must be \"sdk\" or \"rest\", got %q", c.Binance.Source)
	}
	if c.DCA.DefaultFeePercent < 0 {
		return fmt.Errorf("dca.default_fee_percent must not be negative")
	}
	if c.Fetch.PageSize > 1000 {
		return fmt.Errorf("fetch.page_size must not exceed the upstream cap of 1000")
	}
	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" || c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
		}
	}
	return nil
}

package config

// Config 是 stacker 的主配置载体。
type Config struct {
	App     AppConfig     `toml:"app"`
	Binance BinanceConfig `toml:"binance"`
	Fetch   FetchConfig   `toml:"fetch"`
	DCA     DCAConfig     `toml:"dca"`
	Presets PresetsConfig `toml:"presets"`
	Notify  NotifyConfig  `toml:"notify"`
	Preheat PreheatConfig `toml:"preheat"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// BinanceConfig 描述行情来源。Source 取 "sdk" 或 "rest"。
type BinanceConfig struct {
	Source         string `toml:"source"`
	RESTBaseURL    string `toml:"rest_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	ProxyEnabled   bool   `toml:"proxy_enabled"`
	RESTProxyURL   string `toml:"rest_proxy_url"`
}

// FetchConfig 控制历史序列拉取的分页与限速。
type FetchConfig struct {
	PageSize        int `toml:"page_size"`
	RateLimitPerMin int `toml:"rate_limit_per_min"`
}

type DCAConfig struct {
	Annualize         bool    `toml:"annualize"`
	DefaultFeePercent float64 `toml:"default_fee_percent"`
}

type PresetsConfig struct {
	Path string `toml:"path"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

// PreheatConfig 启动时预热的币种与窗口长度（天）。
type PreheatConfig struct {
	Enabled    bool     `toml:"enabled"`
	Symbols    []string `toml:"symbols"`
	WindowDays int      `toml:"window_days"`
}

package config

import "time"

// DashboardConfig is the root configuration for a dashboard instance.
type DashboardConfig struct {
	Chain    ChainConfig    `yaml:"chain"`
	Market   MarketConfig   `yaml:"market"`
	Network  NetworkConfig  `yaml:"network"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Writer   WriterConfig   `yaml:"writer"`
	Cache    CacheConfig    `yaml:"cache"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// ChainConfig locates the chain node's REST API.
type ChainConfig struct {
	RestURL    string        `yaml:"rest_url"` // Takes precedence over Host
	Host       string        `yaml:"host"`     // Derives http://<host>:1317 when RestURL is empty
	Org        string        `yaml:"org"`
	Repo       string        `yaml:"repo"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"` // Chain status reads only; market reads never retry
}

// MarketConfig holds market poller settings.
type MarketConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Timeout   time.Duration `yaml:"timeout"`
	QuoteUnit string        `yaml:"quote_unit"`
}

// NetworkConfig holds chain poller settings.
type NetworkConfig struct {
	Interval      time.Duration `yaml:"interval"`
	Timeout       time.Duration `yaml:"timeout"` // Whole cycle including retries; chain.timeout bounds each request
	StaleAfter    time.Duration `yaml:"stale_after"`
	ValidatorSet  int           `yaml:"validator_set"` // Fallback when the node does not report one
	TransferLimit int           `yaml:"transfer_limit"`
	DisplayDenom  string        `yaml:"display_denom"`
	DenomExponent int           `yaml:"denom_exponent"`
	AddressPrefix string        `yaml:"address_prefix"`
}

// ServerConfig holds the public HTTP API settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds the PostgreSQL connection for price history.
type DatabaseConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// WriterConfig holds price history writer settings.
type WriterConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// CacheConfig holds the Redis latest-price cache settings.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

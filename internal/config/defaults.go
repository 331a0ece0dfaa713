package config

import (
	"fmt"
	"time"
)

// Default values for optional configuration fields.
const (
	DefaultChainHost       = "localhost"
	DefaultChainRESTPort   = 1317
	DefaultOrg             = "wuledger"
	DefaultRepo            = "wuledger"
	DefaultChainTimeout    = 5 * time.Second
	DefaultChainMaxRetries = 2
	DefaultMarketInterval  = 5 * time.Second
	DefaultQuoteUnit       = "QUOTE"
	DefaultNetworkInterval = 10 * time.Second
	DefaultStaleAfter      = 60 * time.Second
	DefaultValidatorSet    = 3
	DefaultTransferLimit   = 10
	DefaultDisplayDenom    = "OGC"
	DefaultDenomExponent   = 6
	DefaultAddressPrefix   = "ogc"
	DefaultServerPort      = 8080
	DefaultShutdownTimeout = 10 * time.Second
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 4
	DefaultMinConns        = 1
	DefaultBatchSize       = 100
	DefaultFlushInterval   = 5 * time.Second
	DefaultBufferSize      = 256
	DefaultCacheAddr       = "localhost:6379"
	DefaultCacheTTL        = 30 * time.Second
	DefaultMetricsPort     = 9090
	DefaultMetricsPath     = "/metrics"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// ApplyDefaults fills every unset optional field.
func (c *DashboardConfig) ApplyDefaults() {
	// Chain defaults
	if c.Chain.RestURL == "" {
		host := c.Chain.Host
		if host == "" {
			host = DefaultChainHost
		}
		c.Chain.RestURL = RestURLForHost(host)
	}
	if c.Chain.Org == "" {
		c.Chain.Org = DefaultOrg
	}
	if c.Chain.Repo == "" {
		c.Chain.Repo = DefaultRepo
	}
	if c.Chain.Timeout == 0 {
		c.Chain.Timeout = DefaultChainTimeout
	}
	if c.Chain.MaxRetries == 0 {
		c.Chain.MaxRetries = DefaultChainMaxRetries
	}

	// Market defaults
	if c.Market.Interval == 0 {
		c.Market.Interval = DefaultMarketInterval
	}
	if c.Market.Timeout == 0 {
		// A request never outlives its tick.
		c.Market.Timeout = c.Market.Interval
	}
	if c.Market.QuoteUnit == "" {
		c.Market.QuoteUnit = DefaultQuoteUnit
	}

	// Network defaults
	if c.Network.Interval == 0 {
		c.Network.Interval = DefaultNetworkInterval
	}
	if c.Network.Timeout == 0 {
		c.Network.Timeout = c.Network.Interval
	}
	if c.Network.StaleAfter == 0 {
		c.Network.StaleAfter = DefaultStaleAfter
	}
	if c.Network.ValidatorSet == 0 {
		c.Network.ValidatorSet = DefaultValidatorSet
	}
	if c.Network.TransferLimit == 0 {
		c.Network.TransferLimit = DefaultTransferLimit
	}
	if c.Network.DisplayDenom == "" {
		c.Network.DisplayDenom = DefaultDisplayDenom
	}
	if c.Network.DenomExponent == 0 {
		c.Network.DenomExponent = DefaultDenomExponent
	}
	if c.Network.AddressPrefix == "" {
		c.Network.AddressPrefix = DefaultAddressPrefix
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Writer defaults
	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = DefaultFlushInterval
	}
	if c.Writer.BufferSize == 0 {
		c.Writer.BufferSize = DefaultBufferSize
	}

	// Cache defaults
	if c.Cache.Addr == "" {
		c.Cache.Addr = DefaultCacheAddr
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// RestURLForHost returns the chain REST base URL served on the given host.
func RestURLForHost(host string) string {
	return fmt.Sprintf("http://%s:%d", host, DefaultChainRESTPort)
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}

package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks that all required fields are set and values are valid.
func (c *DashboardConfig) Validate() error {
	if c.Chain.RestURL == "" {
		return errors.New("chain.rest_url is required")
	}
	u, err := url.Parse(c.Chain.RestURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("chain.rest_url must be an absolute URL, got %q", c.Chain.RestURL)
	}
	if c.Chain.Org == "" {
		return errors.New("chain.org is required")
	}
	if c.Chain.Repo == "" {
		return errors.New("chain.repo is required")
	}
	if c.Chain.MaxRetries < 0 {
		return errors.New("chain.max_retries must be >= 0")
	}

	if c.Market.Interval <= 0 {
		return errors.New("market.interval must be > 0")
	}
	if c.Market.Timeout <= 0 {
		return errors.New("market.timeout must be > 0")
	}
	if c.Market.Timeout > c.Market.Interval {
		return fmt.Errorf("market.timeout (%s) cannot exceed market.interval (%s)", c.Market.Timeout, c.Market.Interval)
	}

	if c.Network.Interval <= 0 {
		return errors.New("network.interval must be > 0")
	}
	if c.Network.Timeout <= 0 {
		return errors.New("network.timeout must be > 0")
	}
	if c.Network.Timeout > c.Network.Interval {
		return fmt.Errorf("network.timeout (%s) cannot exceed network.interval (%s)", c.Network.Timeout, c.Network.Interval)
	}
	if c.Chain.Timeout > c.Network.Timeout {
		return fmt.Errorf("chain.timeout (%s) cannot exceed network.timeout (%s)", c.Chain.Timeout, c.Network.Timeout)
	}
	if c.Network.ValidatorSet < 1 {
		return errors.New("network.validator_set must be >= 1")
	}
	if c.Network.TransferLimit < 1 || c.Network.TransferLimit > 100 {
		return fmt.Errorf("network.transfer_limit must be between 1 and 100, got %d", c.Network.TransferLimit)
	}
	if c.Network.DenomExponent < 0 {
		return errors.New("network.denom_exponent must be >= 0")
	}

	if err := validatePort("server.port", c.Server.Port); err != nil {
		return err
	}

	if c.Database.Enabled {
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
		if c.Writer.BatchSize < 1 {
			return errors.New("writer.batch_size must be >= 1")
		}
		if c.Writer.BufferSize < 1 {
			return errors.New("writer.buffer_size must be >= 1")
		}
	}

	if c.Cache.Enabled && c.Cache.Addr == "" {
		return errors.New("cache.addr is required")
	}

	if err := validatePort("metrics.port", c.Metrics.Port); err != nil {
		return err
	}
	if c.Metrics.Port == c.Server.Port {
		return fmt.Errorf("metrics.port and server.port must differ, both are %d", c.Server.Port)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

func validatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

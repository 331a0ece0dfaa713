package router

// RouterConfig holds configuration for the update router.
type RouterConfig struct {
	BufferSize int // Per-subscriber capacity (default: 256)
}

// DefaultRouterConfig returns default configuration.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		BufferSize: 256,
	}
}

// RouterStats contains runtime statistics.
type RouterStats struct {
	UpdatesReceived int64
	UpdatesRouted   int64 // Per-subscriber deliveries
	Subscribers     map[string]BufferStats
}

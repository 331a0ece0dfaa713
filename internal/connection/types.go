package connection

import (
	"errors"
	"time"

	"github.com/rickgao/ledger-dashboard/internal/model"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// MessageTypeMarket is the only stream message type.
const MessageTypeMarket = "market"

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// StreamMessage is one record pushed to stream subscribers.
// Market is null when there is no active market.
type StreamMessage struct {
	Type       string            `json:"type"`
	Market     *model.PricePoint `json:"market"`
	Display    string            `json:"display,omitempty"`
	ObservedAt *time.Time        `json:"observed_at,omitempty"` // Absent before the first poll
}

// NewMarketMessage builds the stream message for an update. polled is false
// before the first poll has completed.
func NewMarketMessage(u model.MarketUpdate, polled bool, unit string) StreamMessage {
	msg := StreamMessage{Type: MessageTypeMarket}
	if !polled {
		return msg
	}
	observed := u.ObservedAt.UTC()
	msg.ObservedAt = &observed
	if u.Point != nil {
		point := *u.Point
		msg.Market = &point
		msg.Display = point.Display(unit)
	}
	return msg
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // Stream URL, e.g. ws://localhost:8080/ws
	PingTimeout  time.Duration // Max time without ping before considering connection stale
	WriteTimeout time.Duration // Write deadline for sends and control frames
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout:  75 * time.Second, // Hub pings every 30s
		WriteTimeout: 5 * time.Second,
		BufferSize:   64,
	}
}

// HubConfig configures the server-side stream hub.
type HubConfig struct {
	QuoteUnit    string        // Unit appended to the display price
	PingInterval time.Duration // Server ping period (default: 30s)
	PongWait     time.Duration // Read deadline extended by each pong (default: 2*PingInterval)
	WriteTimeout time.Duration // Per-write deadline (default: 10s)
	SendQueue    int           // Per-client queued messages before the client is dropped
	ReadLimit    int64         // Max inbound frame size
}

// DefaultHubConfig returns sensible defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		QuoteUnit:    "QUOTE",
		PingInterval: 30 * time.Second,
		PongWait:     60 * time.Second,
		WriteTimeout: 10 * time.Second,
		SendQueue:    16,
		ReadLimit:    512,
	}
}

// WatcherConfig configures a reconnecting stream watcher.
type WatcherConfig struct {
	Client            ClientConfig
	ReconnectBaseWait time.Duration // Base wait time for reconnection
	ReconnectMaxWait  time.Duration // Max wait time for reconnection
}

// DefaultWatcherConfig returns sensible defaults.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		Client:            DefaultClientConfig(),
		ReconnectBaseWait: 1 * time.Second,
		ReconnectMaxWait:  30 * time.Second,
	}
}

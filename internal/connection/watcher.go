package connection

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Watcher follows a stream, reconnecting with exponential backoff.
type Watcher struct {
	cfg    WatcherConfig
	logger *slog.Logger
}

// NewWatcher creates a new Watcher.
func NewWatcher(cfg WatcherConfig, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultWatcherConfig()
	if cfg.ReconnectBaseWait <= 0 {
		cfg.ReconnectBaseWait = def.ReconnectBaseWait
	}
	if cfg.ReconnectMaxWait < cfg.ReconnectBaseWait {
		cfg.ReconnectMaxWait = cfg.ReconnectBaseWait
	}
	return &Watcher{
		cfg:    cfg,
		logger: logger,
	}
}

// Run delivers every decoded stream message to fn until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, fn func(StreamMessage, time.Time)) error {
	wait := w.cfg.ReconnectBaseWait

	for {
		client := NewClient(w.cfg.Client, w.logger)
		err := client.Connect(ctx)
		if err == nil {
			w.logger.Info("stream connected", "url", w.cfg.Client.URL)
			wait = w.cfg.ReconnectBaseWait
			err = w.readLoop(ctx, client, fn)
		}
		client.Close()

		if ctx.Err() != nil {
			return nil
		}

		w.logger.Warn("stream disconnected, reconnecting",
			"url", w.cfg.Client.URL,
			"error", err,
			"wait", wait,
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}

		// Exponential backoff
		wait *= 2
		if wait > w.cfg.ReconnectMaxWait {
			wait = w.cfg.ReconnectMaxWait
		}
	}
}

// readLoop decodes messages until the connection fails or ctx ends.
func (w *Watcher) readLoop(ctx context.Context, client *Client, fn func(StreamMessage, time.Time)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-client.Errors():
			// Deliver what arrived before the failure.
			for {
				select {
				case msg := <-client.Messages():
					w.deliver(msg, fn)
				default:
					return err
				}
			}

		case msg := <-client.Messages():
			w.deliver(msg, fn)
		}
	}
}

func (w *Watcher) deliver(msg TimestampedMessage, fn func(StreamMessage, time.Time)) {
	var sm StreamMessage
	if err := json.Unmarshal(msg.Data, &sm); err != nil {
		w.logger.Warn("failed to decode stream message", "error", err)
		return
	}
	if sm.Type != MessageTypeMarket {
		w.logger.Debug("skipping message type", "type", sm.Type)
		return
	}
	fn(sm, msg.ReceivedAt)
}

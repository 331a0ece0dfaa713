// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Market poll outcomes by reason, and the current price
//   - Chain poll success and latency
//   - Stream subscriber count and slow-client drops
//   - History writer rows and flush errors
//   - Router buffer depth and overflow per subscriber
package metrics

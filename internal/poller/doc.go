// Package poller implements the Market Poller and Chain Poller components.
//
// The Market Poller:
//   - Polls the pool endpoint every 5 seconds (configurable)
//   - Derives the display record, or the absent state on any failure
//   - Never retries; the next tick is the retry
//
// The Chain Poller:
//   - Polls the latest block, validator set and recent transfers
//   - Marks the network halted when blocks stop advancing
//
// Each poller issues one request at a time. Ticks that fire while a request
// is in flight are dropped.
package poller

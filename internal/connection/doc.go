// Package connection carries market updates over WebSocket.
//
// The Hub is the server side: it upgrades HTTP requests, sends each new
// subscriber the current record, then pushes every update from its router
// buffer. Slow subscribers are disconnected rather than allowed to stall
// the broadcast.
//
// Client and Watcher are the consuming side used by the watch command.
// Watcher reconnects with exponential backoff.
package connection

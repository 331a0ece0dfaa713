// Package server exposes the dashboard's HTTP API.
//
// Routes:
//
//	GET /api/v1/market          Current market record
//	GET /api/v1/market/history  Recorded price samples (requires a database)
//	GET /api/v1/network         Chain liveness
//	GET /api/v1/ledger          Recent transfers
//	GET /api/v1/version         Build information
//	GET /ws                     Market update stream
//	GET /health                 Component status
package server

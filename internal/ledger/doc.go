// Package ledger holds the live network status and recent transfer feed, and
// formats both for display ("8,992,103", "ogc...39s", "1,000 OGC", "10s ago").
package ledger

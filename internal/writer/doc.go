// Package writer batches market updates into the price history table.
//
// Every poll outcome is written, absent ones included, so the history shows
// when the market disappeared and why. Writes are append-only; replays of
// the same update ID are ignored by ON CONFLICT DO NOTHING.
package writer

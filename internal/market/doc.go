// Package market derives the displayed market record from the chain's AMM pool.
//
// The market has two states:
//   - absent: no pool, zero base reserve, or any fetch/parse failure ("No active market")
//   - populated: price = reserveQuote / reserveOgc with 4 decimals, volume "N/A", time "Live"
//
// Board holds the current state for readers; the poller package writes it.
package market

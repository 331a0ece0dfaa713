// Package database provides PostgreSQL access for price history.
//
// A single pgx pool holds the market_prices table. The schema ships
// embedded in the binary and is applied by Migrate at startup.
package database

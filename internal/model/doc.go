// Package model defines shared data types used across the ledger dashboard.
//
// Conventions:
//   - Reserves and amounts: base-10 integer strings exactly as the chain reports them
//   - Display records (PricePoint, formatted transfers) are strings ready to render
//   - IDs: uuid.UUID for poll observations, tx hashes for transfers
package model

// Package models defines the core domain models for tallyup.
//
// # Models
//
//   - Group: a set of members who share expenses
//   - Member: a participant of one group, identified by an opaque ID
//   - Expense: an amount paid by one member and split across members
//   - Split: one member's share of an expense
//
// # Design Principles
//
// 1. **Exact money**: amounts and shares are decimal.Decimal, never float64
// 2. **Avoid circular references**: use ID strings instead of pointers for relationships
// 3. **Ordered membership**: Group.Members keeps insertion order, which callers rely on
// for stable, reproducible settlement output
//
// Settlement results (balances and transfers) are not models: they are recomputed on
// every request by package settlement and never persisted.
package models

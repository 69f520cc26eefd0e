// Package settlement computes group balances and the transfers that settle them.
//
// The engine is a pure function of its inputs:
//
//	members + expenses -> ComputeBalances -> []Balance -> Settle -> []Transfer
//
// Balances are exact decimal sums rounded to cents (half away from zero). Settle
// greedily pairs the largest remaining creditor with the largest remaining debtor,
// which is deterministic but not the minimum-transfer optimum.
//
// Settler wires the engine to the group and expense stores and is what the API
// layer calls.
package settlement

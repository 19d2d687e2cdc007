// Package rebalance compares a portfolio's per-class allocation with a named
// target strategy and suggests buy, sell or hold actions.
//
// Everything here is a pure function over an immutable snapshot: no I/O, no
// logging, no shared state. Callers price the holdings first and re-run the
// evaluation whenever holdings or prices change.
package rebalance

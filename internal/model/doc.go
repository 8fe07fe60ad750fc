// Package model defines the shared domain types for the scanner pipeline:
// inventory items, reference listings, cached snapshots, currency units and
// profitability decisions. Types here are plain data with no behavior beyond
// small derived helpers, so every other package can depend on model without
// cycles.
package model

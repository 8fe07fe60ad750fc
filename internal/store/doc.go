// Package store implements persistence for scanner state.
//
// Postgres holds everything durable: cached snapshots, currency price
// history, the per-endpoint API call log, schema tables and error records.
// The snapshot cache alone can be switched to Redis (shared cache with
// native TTLs) or to an in-process map for tests and dry runs.
package store

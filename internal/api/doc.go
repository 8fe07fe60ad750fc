// Package api provides HTTP clients for the external pricing services.
//
// Endpoints:
//   - Classifieds snapshots and currency rates: https://backpack.tf/api
//   - Pricing bot quotes: https://autobot.tf
//   - Item schema properties: https://schema.autobot.tf
package api

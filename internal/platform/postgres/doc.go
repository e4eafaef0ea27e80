// Package postgres implements the store contracts on PostgreSQL via
// the pgx driver's database/sql adapter.
package postgres

// Package database implements the submission store on PostgreSQL via pgx.
package database

// Package pg manages the PostgreSQL connection pool and schema migrations.
//
// Connect builds a pgxpool with retry so services survive a database that
// comes up slower than they do; Migrate applies goose migrations through
// the same pool. Error helpers classify common SQLSTATE failures so
// callers do not string-match driver errors.
package pg

// Package database provides the SQLite run ledger for the library converter.
//
// Every run gets a row in the runs table, keyed by a random UUID, and every
// asset result is appended to the results table as it completes. Partial
// successes (the converted asset was uploaded but the original could not be
// deleted) are listed as orphans until an operator resolves them.
//
// The database uses WAL mode and applies schema migrations on open, so an
// existing ledger is upgraded in place.
package database

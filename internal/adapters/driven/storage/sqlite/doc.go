// Package sqlite stores report records in a single SQLite file through the
// cgo-free modernc.org/sqlite driver.
//
// The schema lives in migrations/ as numbered .up.sql/.down.sql pairs applied
// on open. A record's sequence number is its AUTOINCREMENT rowid, so numbers
// only grow and are never reused after a delete. The database runs in WAL
// mode; the default location is ~/.healthlens/data/reports.db.
package sqlite

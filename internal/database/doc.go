// Package database provides SQLite-based run history for wcagscan.
//
// HistoryDB stores:
//   - every completed run as JSON together with its counters
//   - one row per tested URL per run, so the violation trend of a page can
//     be listed without decoding whole runs
//
// SQLite is accessed through modernc.org/sqlite, a CGO-free driver, so the
// history lives in a single file under the XDG data directory.
package database

// Package aggregate collects the scan results of a run and decides the
// verdict of every target.
//
// A Report is created at the start of a run, receives one result per
// scanned target through Record, and is sealed after the last target.
// Summarize turns the sealed results into one row per violation for the
// console summary.
package aggregate

// Package model defines the core data structures used throughout wcagscan.
//
// This package contains the following main types:
//   - TargetSite and Credentials: the resolved inputs of a run
//   - Finding and ScanResult: what the rule engine reported for one page
//   - TestOutcome and ReportCase: per-target verdicts consumed by reporters
//   - RunReport: the serializable record of a whole run
//
// Models live in their own package so that the scanner, the aggregator and
// the reporters can share them without import cycles. All of them are
// serializable to JSON for report output and history storage.
package model

// Package pipeline drives the per-target sequence of a scan run.
//
// Each target is processed by a Pipeline of steps (login, axe scan, record,
// verdict) operating on a TargetRun. The Runner opens a page for every
// target, executes a fresh pipeline on it under the per-target timeout,
// always closes the page, and turns the result into a model.TestOutcome.
// Targets run strictly one after another so the shared browser session is
// never used by two targets at once; a failing target never stops the
// targets that follow it.
package pipeline

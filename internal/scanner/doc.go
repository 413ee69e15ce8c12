// Package scanner runs the axe-core rule engine against an open page and
// maps its output into model.ScanResult.
//
// The engine is injected into the page first, from a local build or from a
// URL, then invoked with a fixed WCAG tag filter (levels A and AA).
// Classification belongs to the engine: the scanner keeps every impact and
// element locator exactly as returned. A page with violations is a normal
// result; only a failure to run the engine is an error.
package scanner

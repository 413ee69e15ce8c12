// Package main provides the entry point for the wcagscan CLI.
//
// wcagscan opens every configured page in a browser, logs in when
// credentials are configured, runs the axe-core rule engine against the
// page and reports WCAG 2 A/AA violations as JUnit XML, an HTML report and
// a console summary.
//
// Usage:
//
//	wcagscan scan
//	wcagscan scan --url https://example.com --url https://example.com/about
//	wcagscan history
//	wcagscan compare
//
// See --help for all available options.
package main

// main is the entry point for wcagscan.
func main() {
	Execute()
}

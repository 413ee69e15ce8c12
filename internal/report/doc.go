// Package report renders a completed wcagscan run for people and tools.
//
// This package contains writers for different output formats:
//   - ConsoleWriter: progress lines, per-target rule tables and the run
//     summary table for terminal display
//   - JSONWriter: the run record with counters for tool integration
//   - MarkdownWriter: a Markdown report with an impact breakdown
//   - HTMLWriter: the Markdown report rendered into a themed HTML page
//
// File-based writers implement the Writer interface and are written through
// WriteFile, which replaces the destination atomically. The JUnit artifact
// lives in package junit.
package report

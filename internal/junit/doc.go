// Package junit renders test outcomes as a JUnit XML artifact for CI.
//
// The document holds one <testsuite> with one <testcase> per executed test.
// Failed cases carry a <failure> whose body is every failure message joined
// by newlines. The output contains no timestamps or durations, so the same
// outcomes always render to the same bytes.
package junit

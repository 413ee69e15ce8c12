package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/wcagscan/internal/model"
)

// JSONWriter outputs run reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is stamped into the document when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion stamps the wcagscan version into the document.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport wraps a run with output-only metadata.
type JSONReport struct {
	// Version is the wcagscan version that produced the run.
	Version string `json:"version,omitempty"`

	// Tests is the number of attempted targets.
	Tests int `json:"tests"`

	// Failures is the number of failed targets.
	Failures int `json:"failures"`

	// Violations is the total number of violations.
	Violations int `json:"violations"`

	// Run is the complete run record.
	Run *model.RunReport `json:"run"`
}

// NewJSONReport creates a JSONReport for run.
func NewJSONReport(run *model.RunReport, version string) *JSONReport {
	return &JSONReport{
		Version:    version,
		Tests:      len(run.Outcomes),
		Failures:   run.FailedCount(),
		Violations: run.ViolationCount(),
		Run:        run,
	}
}

// Write outputs the run wrapped with its counters.
func (w *JSONWriter) Write(run *model.RunReport) (int, error) {
	return w.writeJSON(NewJSONReport(run, w.version))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}

package report

import (
	"fmt"
	"io"

	"github.com/nao1215/wcagscan/internal/fsutil"
	"github.com/nao1215/wcagscan/internal/model"
)

// Writer defines the interface for run report output.
// Implementations render a completed run in one format.
type Writer interface {
	// Write outputs the run to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.RunReport) (int, error)
}

// Factory builds a Writer on top of an output stream.
type Factory func(output io.Writer) Writer

// FileError reports that a report artifact could not be produced.
// A prior artifact at Path is left intact.
type FileError struct {
	Path  string
	Cause error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to write report %s: %v", e.Path, e.Cause)
}

func (e *FileError) Unwrap() error {
	return e.Cause
}

// WriteFile renders run with the writer built by newWriter and atomically
// replaces path with the result.
func WriteFile(path string, newWriter Factory, run *model.RunReport) error {
	err := fsutil.LockedWrite(path, func(w io.Writer) error {
		_, err := newWriter(w).Write(run)
		return err
	})
	if err != nil {
		return &FileError{Path: path, Cause: err}
	}
	return nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

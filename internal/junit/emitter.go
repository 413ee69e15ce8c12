package junit

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/wcagscan/internal/fsutil"
	"github.com/nao1215/wcagscan/internal/model"
)

// Defaults for an Emitter.
const (
	DefaultPath      = "junit-axe-report.xml"
	DefaultSuiteName = "Accessibility Tests (JUnit)"
	DefaultClassName = "WCAG-Accessibility"
)

// WriteError reports that the artifact could not be produced. The scans
// are already complete when it occurs; a prior artifact at Path is intact.
type WriteError struct {
	Path  string
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write JUnit report %s: %v", e.Path, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// Emitter writes the JUnit artifact of a run.
type Emitter struct {
	path      string
	suiteName string
	className string
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithPath sets the artifact path.
func WithPath(path string) Option {
	return func(e *Emitter) {
		if path != "" {
			e.path = path
		}
	}
}

// WithSuiteName sets the test-suite name.
func WithSuiteName(name string) Option {
	return func(e *Emitter) {
		if name != "" {
			e.suiteName = name
		}
	}
}

// WithClassName sets the class name applied to every test case.
func WithClassName(name string) Option {
	return func(e *Emitter) {
		if name != "" {
			e.className = name
		}
	}
}

// NewEmitter creates an Emitter with the defaults overridden by opts.
func NewEmitter(opts ...Option) *Emitter {
	e := &Emitter{
		path:      DefaultPath,
		suiteName: DefaultSuiteName,
		className: DefaultClassName,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Path returns the artifact path.
func (e *Emitter) Path() string {
	return e.path
}

// Cases converts outcomes into report cases, keeping their order.
func (e *Emitter) Cases(outcomes []model.TestOutcome) []model.ReportCase {
	cases := make([]model.ReportCase, 0, len(outcomes))
	for _, o := range outcomes {
		name := o.FullName
		if name == "" {
			name = o.Title
		}
		c := model.ReportCase{
			Name:      name,
			ClassName: e.className,
			Failed:    o.Status == model.StatusFailed,
		}
		if c.Failed {
			c.FailureText = strings.Join(o.FailureMessages, "\n")
		}
		cases = append(cases, c)
	}
	return cases
}

type xmlTestSuites struct {
	XMLName  xml.Name       `xml:"testsuites"`
	Tests    int            `xml:"tests,attr"`
	Failures int            `xml:"failures,attr"`
	Suites   []xmlTestSuite `xml:"testsuite"`
}

type xmlTestSuite struct {
	Name     string        `xml:"name,attr"`
	Tests    int           `xml:"tests,attr"`
	Failures int           `xml:"failures,attr"`
	Errors   int           `xml:"errors,attr"`
	Skipped  int           `xml:"skipped,attr"`
	Cases    []xmlTestCase `xml:"testcase"`
}

type xmlTestCase struct {
	ClassName string      `xml:"classname,attr"`
	Name      string      `xml:"name,attr"`
	Failure   *xmlFailure `xml:"failure"`
}

type xmlFailure struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// Render encodes cases as a JUnit XML document.
func (e *Emitter) Render(cases []model.ReportCase) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.render(&buf, cases); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Emitter) render(w io.Writer, cases []model.ReportCase) error {
	suite := xmlTestSuite{
		Name:  e.suiteName,
		Tests: len(cases),
		Cases: make([]xmlTestCase, 0, len(cases)),
	}
	for _, c := range cases {
		tc := xmlTestCase{ClassName: c.ClassName, Name: c.Name}
		if c.Failed {
			suite.Failures++
			tc.Failure = &xmlFailure{Message: firstLine(c.FailureText), Body: c.FailureText}
		}
		suite.Cases = append(suite.Cases, tc)
	}
	doc := xmlTestSuites{
		Tests:    suite.Tests,
		Failures: suite.Failures,
		Suites:   []xmlTestSuite{suite},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode JUnit XML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Emit renders outcomes and atomically replaces the artifact.
// Failures are returned as *WriteError.
func (e *Emitter) Emit(outcomes []model.TestOutcome) error {
	cases := e.Cases(outcomes)
	err := fsutil.LockedWrite(e.path, func(w io.Writer) error {
		return e.render(w, cases)
	})
	if err != nil {
		return &WriteError{Path: e.path, Cause: err}
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

package aggregate

import (
	"strings"

	"github.com/nao1215/wcagscan/internal/model"
)

// ElementSeparator joins the locators of one violation in a summary row.
const ElementSeparator = ", "

// SummaryRow describes one violation of one target.
type SummaryRow struct {
	URL         string
	Rule        string
	Description string
	Impact      model.Impact
	Elements    string
}

// Summary is the run-wide list of violations.
type Summary struct {
	Rows []SummaryRow
}

// Empty reports the "no violations detected" state.
func (s Summary) Empty() bool {
	return len(s.Rows) == 0
}

// Summarize returns one row per violation, ordered by record order and then
// by engine order within a target. A violation implicating several
// elements still yields a single row.
func (r *Report) Summarize() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []SummaryRow
	for _, res := range r.results {
		for _, v := range res.Violations {
			rows = append(rows, SummaryRow{
				URL:         res.URL,
				Rule:        v.RuleID,
				Description: v.Description,
				Impact:      v.Impact,
				Elements:    strings.Join(v.Elements, ElementSeparator),
			})
		}
	}
	return Summary{Rows: rows}
}

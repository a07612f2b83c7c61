package cleaning

import (
	"fmt"
	"strings"
)

// Report records the actions one cleaning pass took
type Report struct {
	Name  string   `json:"name"`
	Notes []string `json:"notes"`
}

// NewReport creates an empty report for the named dataset
func NewReport(name string) *Report {
	return &Report{Name: name, Notes: []string{}}
}

// Add appends a note
func (r *Report) Add(format string, args ...interface{}) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// Render produces the markdown section for this report
func (r *Report) Render() string {
	var b strings.Builder
	b.WriteString("## " + r.Name + "\n")
	for i, note := range r.Notes {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- " + note)
	}
	b.WriteByte('\n')
	return b.String()
}

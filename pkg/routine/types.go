// Package routine models the RMS class-routine page and implements the two
// automation drivers that run against it: scraping every slot's subjects and
// reachable dates into records, and replaying an edited report back into the
// attendance modal.
package routine

import (
	"strings"
)

// Canonical report columns. Lookups go through NormalizeKey so header drift
// introduced by spreadsheet edits (casing, stray spaces) does not break
// field resolution.
const (
	FieldDays      = "days"
	FieldColumn    = "column"
	FieldDate      = "date"
	FieldSubject   = "subject"
	FieldExecution = "class execution"
	FieldTopic     = "topic covered"
	FieldReason    = "reason"
	FieldTotal     = "total students"
	FieldAttended  = "attended students"
	FieldSubmitted = "submitted"
)

// Headers is the column order of a freshly scraped report.
var Headers = []string{
	"Days", "Column", "Date", "Subject", "Class Execution",
	"Topic Covered", "Reason", "Total Students", "Attended Students", "Submitted",
}

const (
	// SubmittedReady opts a row into replay. Compared case-insensitively.
	SubmittedReady = "Ready"

	// OutcomeSuccess marks a replayed row that the page accepted.
	OutcomeSuccess = "Processed (Success)"

	// SubjectNotFound is the sentinel subject emitted when a slot's subject
	// dropdown exposes no real options. Scraping never stalls on it.
	SubjectNotFound = "Subject Not Found"
)

// OutcomeError marks a replayed row that failed, carrying the reason.
func OutcomeError(msg string) string {
	return "Processed (Error: " + msg + ")"
}

// Slot addresses one schedule cell of the live routine table. Row and Column
// are 0-based table coordinates; the trigger control is re-located from them
// on every interaction instead of holding a DOM handle.
type Slot struct {
	Day    string `json:"day"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
}

// ScrapedRecord is one row of scraped output: the cross product of a slot's
// subjects and its reachable calendar dates.
type ScrapedRecord struct {
	Day     string
	Column  int
	Subject string
	Date    string // ISO 2006-01-02
}

// Direction selects which month-navigation control the calendar walk uses.
type Direction int

const (
	Past Direction = iota
	Future
)

func (d Direction) String() string {
	if d == Past {
		return "past"
	}
	return "future"
}

// InputRow is one uploaded report row: normalized field name to text value.
// Missing cells read as "".
type InputRow map[string]string

// NormalizeKey lowercases a header cell and collapses runs of whitespace so
// "  Class   Execution " and "class execution" resolve to the same field.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Field returns the value for a canonical field name.
func (r InputRow) Field(name string) string {
	return r[NormalizeKey(name)]
}

// Set stores a value under the normalized form of name.
func (r InputRow) Set(name, value string) {
	r[NormalizeKey(name)] = value
}

// Clone returns an independent copy of the row.
func (r InputRow) Clone() InputRow {
	out := make(InputRow, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Eligible reports whether a row opts into replay: its Submitted marker is
// the ready sentinel and its execution flag is one of the two recognized
// values. Everything else passes through untouched.
func Eligible(r InputRow) bool {
	if !strings.EqualFold(strings.TrimSpace(r.Field(FieldSubmitted)), SubmittedReady) {
		return false
	}
	flag := strings.TrimSpace(r.Field(FieldExecution))
	return strings.EqualFold(flag, "yes") || strings.EqualFold(flag, "no")
}

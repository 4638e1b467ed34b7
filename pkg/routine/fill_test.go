package routine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRow(pairs map[string]string) InputRow {
	r := make(InputRow, len(pairs))
	for k, v := range pairs {
		r.Set(k, v)
	}
	return r
}

func readyRow(overrides map[string]string) InputRow {
	r := newRow(map[string]string{
		"Days":              "Monday",
		"Column":            "3",
		"Date":              "2024-03-04",
		"Subject":           "Algebra",
		"Class Execution":   "Yes",
		"Topic Covered":     "Quadratic equations",
		"Total Students":    "40",
		"Attended Students": "35",
		"Submitted":         "Ready",
	})
	for k, v := range overrides {
		r.Set(k, v)
	}
	return r
}

func fillPage() *fakePage {
	return &fakePage{
		slots:          []Slot{{Day: "Monday", Row: 0, Column: 3}},
		subjectOptions: []string{"Algebra", "Geometry"},
		reasonOptions:  []string{"Holiday", "Exam Duty"},
	}
}

func TestFillSuccess(t *testing.T) {
	page := fillPage()
	rows, sum, err := NewFiller(page).Run(context.Background(), []InputRow{readyRow(nil)})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, OutcomeSuccess, rows[0].Field(FieldSubmitted))
	assert.Equal(t, FillSummary{Total: 1, Eligible: 1, Succeeded: 1}, sum)

	assert.Equal(t, "2024-03-04", page.dateSet)
	assert.True(t, page.executionYes)
	assert.Equal(t, "Algebra", page.subjectSet)
	assert.Equal(t, "Quadratic equations", page.topicSet)
	assert.Equal(t, "40", page.totalSet)
	assert.Equal(t, "35", page.attendedSet)
	assert.Equal(t, 1, page.submits)
}

func TestFillSubjectNotSelectable(t *testing.T) {
	page := fillPage()
	page.subjectOptions = []string{"Geometry"}

	rows, sum, err := NewFiller(page).Run(context.Background(), []InputRow{readyRow(nil)})
	require.NoError(t, err)

	assert.Equal(t, `Processed (Error: Subject "Algebra" could not be selected.)`,
		rows[0].Field(FieldSubmitted))
	assert.Equal(t, 1, sum.Failed)
	assert.GreaterOrEqual(t, page.forceCloses, 1, "a failed row's modal must be force-closed")
}

func TestFillNoExecutionSelectsReason(t *testing.T) {
	page := fillPage()
	row := readyRow(map[string]string{"Class Execution": "No", "Reason": "Holiday"})

	rows, _, err := NewFiller(page).Run(context.Background(), []InputRow{row})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, rows[0].Field(FieldSubmitted))
	assert.False(t, page.executionYes)
	assert.Equal(t, "Holiday", page.reasonSet)
	assert.Empty(t, page.subjectSet, "subject must not be touched on a No row")
}

func TestFillIneligibleRowsPassThroughUntouched(t *testing.T) {
	blank := readyRow(map[string]string{"Submitted": ""})
	done := readyRow(map[string]string{"Submitted": OutcomeSuccess})
	badFlag := readyRow(map[string]string{"Class Execution": "Maybe"})
	want := []InputRow{blank.Clone(), done.Clone(), badFlag.Clone()}

	page := fillPage()
	rows, sum, err := NewFiller(page).Run(context.Background(), []InputRow{blank, done, badFlag})
	require.NoError(t, err)

	assert.Equal(t, want, rows, "ineligible rows must pass through unmodified")
	assert.Equal(t, 0, sum.Eligible)
	assert.False(t, page.touched, "zero eligible rows means zero page interaction")
}

func TestFillRowScopedLookupFailure(t *testing.T) {
	page := fillPage()
	missing := readyRow(map[string]string{"Days": "Sunday"})
	ok := readyRow(nil)

	rows, sum, err := NewFiller(page).Run(context.Background(), []InputRow{missing, ok})
	require.NoError(t, err, "a row's lookup failure must never abort the run")

	assert.Equal(t, `Processed (Error: no routine row matches day "Sunday")`,
		rows[0].Field(FieldSubmitted))
	assert.Equal(t, OutcomeSuccess, rows[1].Field(FieldSubmitted))
	assert.Equal(t, FillSummary{Total: 2, Eligible: 2, Succeeded: 1, Failed: 1}, sum)
}

func TestFillInvalidColumn(t *testing.T) {
	page := fillPage()
	rows, _, err := NewFiller(page).Run(context.Background(),
		[]InputRow{readyRow(map[string]string{"Column": "three"})})
	require.NoError(t, err)
	assert.Equal(t, `Processed (Error: invalid column "three")`, rows[0].Field(FieldSubmitted))
}

func TestFillContractViolationAbortsRemainder(t *testing.T) {
	page := fillPage()
	page.slots = append(page.slots, Slot{Day: "Tuesday", Row: 1, Column: 2})
	page.openErr = map[string]error{
		key("Tuesday", 2): contractf("routine table not found on page"),
	}

	ok := readyRow(nil)
	vanished := readyRow(map[string]string{"Days": "Tuesday", "Column": "2"})
	remainder := readyRow(nil)

	rows, sum, err := NewFiller(page).Run(context.Background(),
		[]InputRow{ok, vanished, remainder})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContract))

	require.Len(t, rows, 3, "aborting must still return every row")
	assert.Equal(t, OutcomeSuccess, rows[0].Field(FieldSubmitted))
	assert.Equal(t, `Processed (Error: routine table not found on page)`,
		rows[1].Field(FieldSubmitted))
	assert.Equal(t, "Ready", rows[2].Field(FieldSubmitted),
		"rows after the abort must pass through untouched")
	assert.Equal(t, FillSummary{Total: 3, Eligible: 3, Succeeded: 1, Failed: 1}, sum)
	assert.Equal(t, 1, page.submits, "nothing may be attempted once the table is gone")
}

func TestFillReadySentinelIsCaseInsensitive(t *testing.T) {
	page := fillPage()
	rows, _, err := NewFiller(page).Run(context.Background(),
		[]InputRow{readyRow(map[string]string{"Submitted": "  ready "})})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, rows[0].Field(FieldSubmitted))
}

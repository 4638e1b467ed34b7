package routine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Filler replays an uploaded report into the attendance modal, one eligible
// row at a time, and rewrites each row's Submitted field with the outcome.
type Filler struct {
	Page Page
	Log  *logrus.Entry
}

func NewFiller(p Page) *Filler {
	return &Filler{Page: p, Log: logrus.WithField("task", "fill")}
}

// FillSummary is the user-visible tally of one fill run.
type FillSummary struct {
	Total     int
	Eligible  int
	Succeeded int
	Failed    int
}

// Run attempts every eligible row in input order and returns the full row
// set: processed rows carry their outcome in Submitted, ineligible rows pass
// through untouched. Only a contract violation aborts the run, and even then
// the row set is returned alongside the error with the remaining rows
// untouched; partial results are never discarded. With zero eligible rows
// the page is never touched.
func (f *Filler) Run(ctx context.Context, rows []InputRow) ([]InputRow, FillSummary, error) {
	start := time.Now()
	sum := FillSummary{Total: len(rows)}
	for _, r := range rows {
		if Eligible(r) {
			sum.Eligible++
		}
	}
	if sum.Eligible == 0 {
		f.Log.Info("No records to process")
		return rows, sum, nil
	}

	if err := f.Page.Ready(ctx); err != nil {
		return nil, sum, err
	}

	out := make([]InputRow, 0, len(rows))
	for i, row := range rows {
		if !Eligible(row) {
			out = append(out, row)
			continue
		}

		result := row.Clone()
		err := f.fillRow(ctx, row)
		if err != nil {
			f.Log.WithField("row", i+1).Warnf("⚠️ Row failed: %v", err)
			result.Set(FieldSubmitted, OutcomeError(err.Error()))
			sum.Failed++
			f.Page.ForceCloseModal(ctx)
		} else {
			result.Set(FieldSubmitted, OutcomeSuccess)
			sum.Succeeded++
		}
		out = append(out, result)

		// A contract violation means the routine table itself is gone; every
		// remaining row would fail the same way, each burning a full wait
		// timeout. Stop here and hand the untouched remainder back.
		if err != nil && errors.Is(err, ErrContract) {
			out = append(out, rows[i+1:]...)
			f.Log.Errorf("❌ Aborting run: %v", err)
			return out, sum, err
		}
	}

	f.Log.Infof("✓ Processed %d/%d rows (%d succeeded, %d failed) in %.1fs",
		sum.Eligible, sum.Total, sum.Succeeded, sum.Failed, time.Since(start).Seconds())
	return out, sum, nil
}

// fillRow replays a single row. Every failure here is row-scoped: the caller
// records it in the row's outcome and moves on.
func (f *Filler) fillRow(ctx context.Context, row InputRow) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while filling row: %v", r)
		}
	}()

	day := strings.TrimSpace(row.Field(FieldDays))
	column, convErr := strconv.Atoi(strings.TrimSpace(row.Field(FieldColumn)))
	if convErr != nil {
		return fmt.Errorf("invalid column %q", row.Field(FieldColumn))
	}

	if err := f.Page.OpenSlotAt(ctx, day, column); err != nil {
		return err
	}
	if err := f.Page.SetDate(ctx, strings.TrimSpace(row.Field(FieldDate))); err != nil {
		return err
	}

	yes := strings.EqualFold(strings.TrimSpace(row.Field(FieldExecution)), "yes")
	if err := f.Page.SetExecution(ctx, yes); err != nil {
		return err
	}

	if yes {
		if err := f.Page.SelectSubject(ctx, strings.TrimSpace(row.Field(FieldSubject))); err != nil {
			return err
		}
		if err := f.Page.SetTopic(ctx, row.Field(FieldTopic)); err != nil {
			return err
		}
		if err := f.Page.SetCounts(ctx, row.Field(FieldTotal), row.Field(FieldAttended)); err != nil {
			return err
		}
	} else {
		if err := f.Page.SelectReason(ctx, strings.TrimSpace(row.Field(FieldReason))); err != nil {
			return err
		}
	}

	return f.Page.Submit(ctx)
}

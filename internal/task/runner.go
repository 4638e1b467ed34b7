// Package task dispatches the two automation commands. It enforces the
// single-flight rule: the page permits exactly one open interaction at a
// time, so a second command is rejected outright while one is in progress,
// never queued.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pranjalchakraborty/RMS-filler/pkg/report"
	"github.com/pranjalchakraborty/RMS-filler/pkg/routine"
)

// ErrBusy rejects a command dispatched while another task is running.
var ErrBusy = errors.New("a task is already running")

// Command is one trigger-channel request.
type Command interface {
	name() string
}

// Scrape requests a full routine scrape.
type Scrape struct{}

func (Scrape) name() string { return "scrape" }

// Fill requests replay of an uploaded report.
type Fill struct {
	Headers []string
	Rows    []routine.InputRow
}

func (Fill) name() string { return "fill" }

// Ack is the immediate fire-and-forget response to a dispatch. Real results
// arrive asynchronously through the Exporter.
type Ack struct {
	ID       string
	Accepted bool
	Reason   string
}

// Exporter receives finished artifacts by name.
type Exporter interface {
	Export(name string, data []byte) error
}

// Notifier receives best-effort run summaries.
type Notifier interface {
	Notify(event, message string) error
}

// Session provides a browser tab bound to the routine page for one task.
type Session interface {
	NewTab() (context.Context, context.CancelFunc)
	OpenPage(ctx context.Context) error
}

// Runner owns the in-flight task slot.
type Runner struct {
	Session    Session
	Page       routine.Page
	Exporter   Exporter
	Notifier   Notifier
	RunTimeout time.Duration

	busy atomic.Bool
	wg   sync.WaitGroup
}

// Dispatch accepts or rejects a command and returns immediately. On
// acceptance the task runs on its own goroutine; the busy flag is cleared on
// every exit path.
func (r *Runner) Dispatch(cmd Command) Ack {
	if !r.busy.CompareAndSwap(false, true) {
		return Ack{Accepted: false, Reason: ErrBusy.Error()}
	}

	id := uuid.NewString()
	log := logrus.WithFields(logrus.Fields{"task": cmd.name(), "id": id})
	log.Info("Task accepted")

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.busy.Store(false)
		defer func() {
			if rec := recover(); rec != nil {
				log.Errorf("❌ Task panicked: %v", rec)
			}
		}()
		r.run(log, cmd)
	}()

	return Ack{ID: id, Accepted: true}
}

// Wait blocks until the in-flight task (if any) finishes.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(log *logrus.Entry, cmd Command) {
	tabCtx, cancelTab := r.Session.NewTab()
	defer cancelTab()

	ctx := tabCtx
	if r.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(tabCtx, r.RunTimeout)
		defer cancel()
	}

	if err := r.Session.OpenPage(ctx); err != nil {
		log.Errorf("❌ %v", err)
		r.notify(cmd.name()+".error", err.Error())
		return
	}

	switch c := cmd.(type) {
	case Scrape:
		r.runScrape(ctx, log)
	case Fill:
		r.runFill(ctx, log, c)
	default:
		log.Errorf("❌ Unknown command %q", cmd.name())
	}
}

func (r *Runner) runScrape(ctx context.Context, log *logrus.Entry) {
	records, err := routine.NewScraper(r.Page).Run(ctx)
	if err != nil {
		log.Errorf("❌ Scrape aborted: %v", err)
		r.notify("scrape.error", err.Error())
		return
	}
	if len(records) == 0 {
		log.Info("No data found")
		r.notify("scrape.done", "no data found")
		return
	}

	data, err := report.EncodeRecords(records)
	if err != nil {
		log.Errorf("❌ Could not encode records: %v", err)
		return
	}
	if err := r.Exporter.Export(report.ScrapeFileName, data); err != nil {
		log.Errorf("❌ Export failed: %v", err)
		return
	}
	r.notify("scrape.done", fmt.Sprintf("%d records found", len(records)))
}

func (r *Runner) runFill(ctx context.Context, log *logrus.Entry, cmd Fill) {
	rows, sum, err := routine.NewFiller(r.Page).Run(ctx, cmd.Rows)
	if err != nil {
		log.Errorf("❌ Fill aborted: %v", err)
		r.notify("fill.error", err.Error())
		if len(rows) == 0 {
			return
		}
		// An aborted run still ships the outcomes of the rows it attempted.
	} else if sum.Eligible == 0 {
		r.notify("fill.done", "no records to process")
		return
	}

	headers := cmd.Headers
	if len(headers) == 0 {
		headers = routine.Headers
	}
	data, encErr := report.EncodeOutcomes(headers, rows)
	if encErr != nil {
		log.Errorf("❌ Could not encode report: %v", encErr)
		return
	}
	if expErr := r.Exporter.Export(report.FillReportFileName, data); expErr != nil {
		log.Errorf("❌ Export failed: %v", expErr)
		return
	}
	if err == nil {
		r.notify("fill.done", fmt.Sprintf("processed %d/%d rows, %d succeeded, %d failed",
			sum.Eligible, sum.Total, sum.Succeeded, sum.Failed))
	}
}

func (r *Runner) notify(event, message string) {
	if r.Notifier == nil {
		return
	}
	if err := r.Notifier.Notify(event, message); err != nil {
		logrus.Warnf("⚠️ Notification failed: %v", err)
	}
}

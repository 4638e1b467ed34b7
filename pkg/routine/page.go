package routine

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/pranjalchakraborty/RMS-filler/pkg/dom"
	"github.com/pranjalchakraborty/RMS-filler/pkg/poll"
)

// Page is what the drivers assume about the RMS page: a routine table of
// trigger cells, one attendance modal at a time, subject/execution/reason
// dropdowns, a date input backed by a month-at-a-time calendar widget, and
// close/confirm controls. Implemented against a live Chrome tab by
// ChromePage; tests substitute fakes.
type Page interface {
	// Ready waits for the routine table. Failure is a contract violation.
	Ready(ctx context.Context) error

	// Slots lists every schedule cell with a trigger control, in document order.
	Slots(ctx context.Context) ([]Slot, error)

	// OpenSlot triggers a slot's control and waits for the modal.
	OpenSlot(ctx context.Context, s Slot) error

	// OpenSlotAt re-locates a slot by day label (case-insensitive) and column
	// index, then opens it. Lookup failures are row-scoped errors.
	OpenSlotAt(ctx context.Context, day string, column int) error

	// CloseModal dismisses the modal and waits for it to disappear.
	CloseModal(ctx context.Context) error

	// ForceCloseModal best-effort closes a possibly open modal. Never fails.
	ForceCloseModal(ctx context.Context)

	// Subjects lists the subject dropdown's options, placeholder excluded.
	// A missing dropdown yields an empty list, not an error.
	Subjects(ctx context.Context) ([]string, error)

	// CalendarDates opens the calendar widget and collects every allowed date
	// reachable by navigating month by month in the given direction. The
	// widget cannot reverse direction mid-walk; callers reset it by closing
	// and re-opening the modal between directions.
	CalendarDates(ctx context.Context, dir Direction) ([]string, error)

	SetDate(ctx context.Context, date string) error

	// SetExecution selects the yes/no execution option and waits for the
	// sub-field the page reveals in response before returning.
	SetExecution(ctx context.Context, yes bool) error

	SelectSubject(ctx context.Context, label string) error
	SelectReason(ctx context.Context, label string) error
	SetTopic(ctx context.Context, topic string) error
	SetCounts(ctx context.Context, total, attended string) error

	// Submit confirms the modal and waits for it to disappear, which is the
	// page's only acceptance signal.
	Submit(ctx context.Context) error
}

// Selectors for the RMS page markup. The page is not under our control; if
// its structure deviates from these, behavior is undefined by design.
const (
	selRoutineTable = `table#class-routine`
	selSlotTrigger  = `a.open-attendance`

	selModal       = `#attendance-modal`
	selModalClose  = `#attendance-modal .modal-header button.close`
	selModalSubmit = `#attendance-modal button#save-attendance`

	selSubjectSelect   = `#attendance-modal select#subject-select`
	selExecutionSelect = `#attendance-modal select#class-execution`
	selReasonSelect    = `#attendance-modal select#reason-select`
	selTopicInput      = `#attendance-modal input#topic-covered`
	selTotalInput      = `#attendance-modal input#total-students`
	selAttendedInput   = `#attendance-modal input#attended-students`
	selDateInput       = `#attendance-modal input#class-date`

	selCalendar      = `.daterangepicker`
	selCalendarMonth = `.daterangepicker .drp-calendar.left .month`
	selCalendarPrev  = `.daterangepicker .drp-calendar.left th.prev.available`
	selCalendarNext  = `.daterangepicker .drp-calendar.left th.next.available`
)

// maxCalendarMonths bounds the month walk so a widget that never disables
// its navigation control cannot loop forever.
const maxCalendarMonths = 240

// ChromePage drives the RMS page through a chromedp tab context.
type ChromePage struct {
	// WaitTimeout bounds each individual DOM wait.
	WaitTimeout time.Duration
	// SubmitTimeout bounds the modal-disappearance wait after confirm, which
	// includes the page's own server round trip.
	SubmitTimeout time.Duration

	Log *logrus.Entry
}

var _ Page = (*ChromePage)(nil)

// NewChromePage returns a page driver with the given per-wait timeouts.
func NewChromePage(waitTimeout, submitTimeout time.Duration) *ChromePage {
	return &ChromePage{
		WaitTimeout:   waitTimeout,
		SubmitTimeout: submitTimeout,
		Log:           logrus.WithField("component", "page"),
	}
}

func (p *ChromePage) Ready(ctx context.Context) error {
	if err := dom.WaitVisible(selRoutineTable, p.WaitTimeout).Do(ctx); err != nil {
		return contractf("routine table %q not found on page", selRoutineTable)
	}
	return nil
}

// slotScript walks the routine table and reports every cell holding a
// trigger control, along with its row's day label.
const slotScript = `(function() {
	const table = document.querySelector('table#class-routine');
	if (!table) return {found: false, slots: []};
	const slots = [];
	table.querySelectorAll('tbody tr').forEach((row, rowIdx) => {
		const dayCell = row.cells[0];
		if (!dayCell) return;
		const day = dayCell.textContent.trim();
		Array.from(row.cells).forEach((cell, colIdx) => {
			if (colIdx === 0) return;
			if (cell.querySelector('a.open-attendance')) {
				slots.push({day: day, row: rowIdx, column: colIdx});
			}
		});
	});
	return {found: true, slots: slots};
})()`

func (p *ChromePage) Slots(ctx context.Context) ([]Slot, error) {
	var res struct {
		Found bool   `json:"found"`
		Slots []Slot `json:"slots"`
	}
	if err := chromedp.Run(ctx, chromedp.Evaluate(slotScript, &res)); err != nil {
		return nil, fmt.Errorf("listing slots: %w", err)
	}
	if !res.Found {
		return nil, contractf("routine table %q not found on page", selRoutineTable)
	}
	return res.Slots, nil
}

// triggerSelector addresses a slot's control by table coordinates.
// nth-child is 1-based.
func triggerSelector(s Slot) string {
	return fmt.Sprintf("table#class-routine tbody tr:nth-child(%d) td:nth-child(%d) %s",
		s.Row+1, s.Column+1, selSlotTrigger)
}

func (p *ChromePage) OpenSlot(ctx context.Context, s Slot) error {
	sel := triggerSelector(s)
	var exists bool
	if err := chromedp.Run(ctx, dom.Exists(sel, &exists)); err != nil {
		return fmt.Errorf("locating slot trigger: %w", err)
	}
	if !exists {
		return stalef("slot trigger for %s column %d is no longer attached", s.Day, s.Column)
	}
	if err := chromedp.Run(ctx, dom.ClickAndWaitVisible(sel, selModal, p.WaitTimeout)); err != nil {
		return notFoundf("attendance modal did not open for %s column %d", s.Day, s.Column)
	}
	return nil
}

func (p *ChromePage) OpenSlotAt(ctx context.Context, day string, column int) error {
	var rowIdx int
	script := fmt.Sprintf(`(function() {
		const table = document.querySelector('table#class-routine');
		if (!table) return -2;
		const rows = table.querySelectorAll('tbody tr');
		for (let i = 0; i < rows.length; i++) {
			const dayCell = rows[i].cells[0];
			if (dayCell && dayCell.textContent.trim().toLowerCase() === %q.trim().toLowerCase()) {
				const cell = rows[i].cells[%d];
				if (!cell || !cell.querySelector('a.open-attendance')) return -1;
				return i;
			}
		}
		return -3;
	})()`, day, column)
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &rowIdx)); err != nil {
		return fmt.Errorf("locating slot for %s column %d: %w", day, column, err)
	}
	switch rowIdx {
	case -2:
		return contractf("routine table %q not found on page", selRoutineTable)
	case -3:
		return notFoundf("no routine row matches day %q", day)
	case -1:
		return notFoundf("day %q has no trigger control at column %d", day, column)
	}
	return p.OpenSlot(ctx, Slot{Day: day, Row: rowIdx, Column: column})
}

func (p *ChromePage) CloseModal(ctx context.Context) error {
	if err := chromedp.Run(ctx, dom.ClickAndWaitHidden(selModalClose, selModal, p.WaitTimeout)); err != nil {
		return notFoundf("attendance modal did not close")
	}
	return nil
}

func (p *ChromePage) ForceCloseModal(ctx context.Context) {
	var visible bool
	if err := chromedp.Run(ctx, dom.Visible(selModal, &visible)); err != nil || !visible {
		return
	}
	if err := chromedp.Run(ctx, dom.ClickAndWaitHidden(selModalClose, selModal, p.WaitTimeout)); err != nil {
		p.Log.Warnf("⚠️ Could not force-close modal: %v", err)
	}
}

func (p *ChromePage) Subjects(ctx context.Context) ([]string, error) {
	var subjects []string
	script := fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		if (!el) return [];
		const out = [];
		for (let i = 1; i < el.options.length; i++) {
			const text = el.options[i].text.trim();
			if (text) out.push(text);
		}
		return out;
	})()`, selSubjectSelect)
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &subjects)); err != nil {
		return nil, fmt.Errorf("reading subject options: %w", err)
	}
	return subjects, nil
}

// monthDatesScript reads every allowed date of the currently rendered month
// as an ISO string. Dates are derived from the month label plus the cell's
// day number, not from display order.
const monthDatesScript = `(function() {
	const cal = document.querySelector('.daterangepicker .drp-calendar.left');
	if (!cal) return [];
	const monthLabel = cal.querySelector('.month');
	if (!monthLabel) return [];
	const out = [];
	cal.querySelectorAll('td.available:not(.off)').forEach(td => {
		const d = new Date(monthLabel.textContent.trim() + ' ' + td.textContent.trim());
		if (isNaN(d)) return;
		const mm = String(d.getMonth() + 1).padStart(2, '0');
		const dd = String(d.getDate()).padStart(2, '0');
		out.push(d.getFullYear() + '-' + mm + '-' + dd);
	});
	return out;
})()`

func (p *ChromePage) CalendarDates(ctx context.Context, dir Direction) ([]string, error) {
	// Clicking the date input mounts the calendar widget.
	if err := chromedp.Run(ctx, dom.ClickAndWaitVisible(selDateInput, selCalendar, p.WaitTimeout)); err != nil {
		return nil, notFoundf("calendar widget did not open")
	}

	navSel := selCalendarPrev
	if dir == Future {
		navSel = selCalendarNext
	}

	var dates []string
	for i := 0; i < maxCalendarMonths; i++ {
		var month []string
		if err := chromedp.Run(ctx, chromedp.Evaluate(monthDatesScript, &month)); err != nil {
			return nil, fmt.Errorf("reading calendar month: %w", err)
		}
		dates = append(dates, month...)

		var navEnabled bool
		if err := chromedp.Run(ctx, dom.Visible(navSel, &navEnabled)); err != nil {
			return nil, fmt.Errorf("checking %s month control: %w", dir, err)
		}
		if !navEnabled {
			break
		}

		var before string
		if err := chromedp.Run(ctx, dom.Text(selCalendarMonth, &before)); err != nil {
			return nil, fmt.Errorf("reading month label: %w", err)
		}
		if err := chromedp.Run(ctx, dom.JSClick(navSel)); err != nil {
			return nil, fmt.Errorf("navigating %s: %w", dir, err)
		}
		changed := poll.Until(ctx, func(ctx context.Context) bool {
			var now string
			if err := chromedp.Run(ctx, dom.Text(selCalendarMonth, &now)); err != nil {
				return false
			}
			return now != "" && now != before
		}, p.WaitTimeout, fmt.Sprintf("calendar did not advance %s of %s", dir, before))
		if !changed {
			break
		}
	}
	return dates, nil
}

func (p *ChromePage) SetDate(ctx context.Context, date string) error {
	if err := chromedp.Run(ctx, dom.SetValue(selDateInput, date)); err != nil {
		return notFoundf("date field could not be set")
	}
	return nil
}

func (p *ChromePage) SetExecution(ctx context.Context, yes bool) error {
	label, revealed := "No", selReasonSelect
	if yes {
		label, revealed = "Yes", selSubjectSelect
	}
	var found bool
	if err := chromedp.Run(ctx, dom.SelectByLabel(selExecutionSelect, label, &found)); err != nil {
		return fmt.Errorf("selecting execution status: %w", err)
	}
	if !found {
		return notFoundf("execution option %q could not be selected.", label)
	}
	// The page reveals the subject or reason sub-field in response to the
	// change event; it must be on screen before the driver touches it.
	if err := chromedp.Run(ctx, dom.WaitVisible(revealed, p.WaitTimeout)); err != nil {
		return notFoundf("field revealed by execution=%s never appeared", label)
	}
	return nil
}

func (p *ChromePage) SelectSubject(ctx context.Context, label string) error {
	var found bool
	if err := chromedp.Run(ctx, dom.SelectByLabel(selSubjectSelect, label, &found)); err != nil {
		return fmt.Errorf("selecting subject: %w", err)
	}
	if !found {
		return notFoundf("Subject %q could not be selected.", label)
	}
	return nil
}

func (p *ChromePage) SelectReason(ctx context.Context, label string) error {
	var found bool
	if err := chromedp.Run(ctx, dom.SelectByLabel(selReasonSelect, label, &found)); err != nil {
		return fmt.Errorf("selecting reason: %w", err)
	}
	if !found {
		return notFoundf("Reason %q could not be selected.", label)
	}
	return nil
}

func (p *ChromePage) SetTopic(ctx context.Context, topic string) error {
	if err := chromedp.Run(ctx, dom.SetValue(selTopicInput, topic)); err != nil {
		return notFoundf("topic field could not be set")
	}
	return nil
}

func (p *ChromePage) SetCounts(ctx context.Context, total, attended string) error {
	if err := chromedp.Run(ctx,
		dom.SetValue(selTotalInput, total),
		dom.SetValue(selAttendedInput, attended),
	); err != nil {
		return notFoundf("attendance count fields could not be set")
	}
	return nil
}

func (p *ChromePage) Submit(ctx context.Context) error {
	// The page disables the save control until its required fields are set;
	// clicking a disabled control would just hang the modal-close wait.
	var enabled bool
	if err := chromedp.Run(ctx, dom.Enabled(selModalSubmit, &enabled)); err != nil {
		return fmt.Errorf("checking submit control: %w", err)
	}
	if !enabled {
		return notFoundf("submit control is disabled")
	}
	if err := chromedp.Run(ctx, dom.ClickAndWaitHidden(selModalSubmit, selModal, p.SubmitTimeout)); err != nil {
		return notFoundf("modal did not close after submit; record may not have been accepted")
	}
	return nil
}

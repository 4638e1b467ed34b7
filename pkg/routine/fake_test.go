package routine

import (
	"context"
	"fmt"
	"strings"
)

// fakePage is an in-memory stand-in for the live page, shared by the scrape
// and fill driver tests.
type fakePage struct {
	readyErr error
	slots    []Slot

	// keyed by "day/column"
	subjects map[string][]string
	past     map[string][]string
	future   map[string][]string
	openErr  map[string]error

	// page-side dropdown contents for fill runs
	subjectOptions []string
	reasonOptions  []string
	submitErr      error

	// observed state
	cur          string
	modalOpen    bool
	touched      bool
	forceCloses  int
	opens        int
	dateSet      string
	executionYes bool
	subjectSet   string
	reasonSet    string
	topicSet     string
	totalSet     string
	attendedSet  string
	submits      int
}

func key(day string, column int) string { return fmt.Sprintf("%s/%d", day, column) }

func (f *fakePage) Ready(context.Context) error {
	f.touched = true
	return f.readyErr
}

func (f *fakePage) Slots(context.Context) ([]Slot, error) {
	f.touched = true
	return f.slots, nil
}

func (f *fakePage) OpenSlot(_ context.Context, s Slot) error {
	f.touched = true
	k := key(s.Day, s.Column)
	if err := f.openErr[k]; err != nil {
		return err
	}
	f.cur = k
	f.modalOpen = true
	f.opens++
	return nil
}

func (f *fakePage) OpenSlotAt(ctx context.Context, day string, column int) error {
	f.touched = true
	for _, s := range f.slots {
		if strings.EqualFold(s.Day, day) && s.Column == column {
			return f.OpenSlot(ctx, s)
		}
	}
	return notFoundf("no routine row matches day %q", day)
}

func (f *fakePage) CloseModal(context.Context) error {
	if !f.modalOpen {
		return notFoundf("modal is not open")
	}
	f.modalOpen = false
	return nil
}

func (f *fakePage) ForceCloseModal(context.Context) {
	f.forceCloses++
	f.modalOpen = false
}

func (f *fakePage) Subjects(context.Context) ([]string, error) {
	return f.subjects[f.cur], nil
}

func (f *fakePage) CalendarDates(_ context.Context, dir Direction) ([]string, error) {
	if dir == Past {
		return f.past[f.cur], nil
	}
	return f.future[f.cur], nil
}

func (f *fakePage) SetDate(_ context.Context, date string) error {
	f.dateSet = date
	return nil
}

func (f *fakePage) SetExecution(_ context.Context, yes bool) error {
	f.executionYes = yes
	return nil
}

func (f *fakePage) SelectSubject(_ context.Context, label string) error {
	for _, opt := range f.subjectOptions {
		if strings.EqualFold(opt, label) {
			f.subjectSet = opt
			return nil
		}
	}
	return notFoundf("Subject %q could not be selected.", label)
}

func (f *fakePage) SelectReason(_ context.Context, label string) error {
	for _, opt := range f.reasonOptions {
		if strings.EqualFold(opt, label) {
			f.reasonSet = opt
			return nil
		}
	}
	return notFoundf("Reason %q could not be selected.", label)
}

func (f *fakePage) SetTopic(_ context.Context, topic string) error {
	f.topicSet = topic
	return nil
}

func (f *fakePage) SetCounts(_ context.Context, total, attended string) error {
	f.totalSet = total
	f.attendedSet = attended
	return nil
}

func (f *fakePage) Submit(context.Context) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submits++
	f.modalOpen = false
	return nil
}

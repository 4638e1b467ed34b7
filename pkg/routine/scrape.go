package routine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// Scraper walks every slot of the routine table and accumulates one record
// per (subject × date) pair. A single slot's failure never aborts the run.
type Scraper struct {
	Page Page
	Log  *logrus.Entry
}

func NewScraper(p Page) *Scraper {
	return &Scraper{Page: p, Log: logrus.WithField("task", "scrape")}
}

// Run scrapes the whole routine table. Only a contract violation (missing
// table) is returned as an error; per-slot failures are logged, the modal is
// force-closed, and iteration continues.
func (s *Scraper) Run(ctx context.Context) ([]ScrapedRecord, error) {
	start := time.Now()

	if err := s.Page.Ready(ctx); err != nil {
		return nil, err
	}
	slots, err := s.Page.Slots(ctx)
	if err != nil {
		return nil, err
	}
	s.Log.Infof("Found %d slots in the routine table", len(slots))

	var records []ScrapedRecord
	for _, slot := range slots {
		recs, err := s.scrapeSlot(ctx, slot)
		if err != nil {
			s.Log.WithField("slot", fmt.Sprintf("%s/%d", slot.Day, slot.Column)).
				Warnf("⚠️ Skipping slot: %v", err)
			s.Page.ForceCloseModal(ctx)
			continue
		}
		records = append(records, recs...)
	}

	s.Log.Infof("✓ Scraped %d records from %d slots in %.1fs",
		len(records), len(slots), time.Since(start).Seconds())
	return records, nil
}

// scrapeSlot reads one slot: subjects, then the calendar in both directions.
// The widget cannot reverse its month navigation mid-walk, so the modal is
// closed and re-opened between the past and future passes to reset it to the
// default month.
func (s *Scraper) scrapeSlot(ctx context.Context, slot Slot) (recs []ScrapedRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while scraping slot: %v", r)
		}
	}()

	if err := s.Page.OpenSlot(ctx, slot); err != nil {
		return nil, err
	}

	subjects, err := s.Page.Subjects(ctx)
	if err != nil {
		return nil, err
	}
	if len(subjects) == 0 {
		subjects = []string{SubjectNotFound}
	}

	past, err := s.Page.CalendarDates(ctx, Past)
	if err != nil {
		return nil, err
	}
	if err := s.Page.CloseModal(ctx); err != nil {
		return nil, err
	}
	if err := s.Page.OpenSlot(ctx, slot); err != nil {
		return nil, err
	}
	future, err := s.Page.CalendarDates(ctx, Future)
	if err != nil {
		return nil, err
	}

	dates := dedupeDates(past, future)
	for _, subject := range subjects {
		for _, date := range dates {
			recs = append(recs, ScrapedRecord{
				Day:     slot.Day,
				Column:  slot.Column,
				Subject: subject,
				Date:    date,
			})
		}
	}

	if err := s.Page.CloseModal(ctx); err != nil {
		return nil, err
	}
	return recs, nil
}

// dedupeDates merges both navigation passes into a sorted set. The default
// month is rendered by both passes, so duplicates are the norm.
func dedupeDates(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, d := range list {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

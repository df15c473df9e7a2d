package monitor

import (
	"time"

	"github.com/de-tools/cost-sentinel/pkg/models/domain"
)

// CurrentMonthWindow is [first of the month, today], inclusive of today.
func CurrentMonthWindow(today time.Time) domain.Window {
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	return domain.Window{Start: start, End: today}
}

// PreviousMonthWindow is the full calendar month immediately before today's,
// with month lengths and leap years handled by the date arithmetic.
func PreviousMonthWindow(today time.Time) domain.Window {
	firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	end := firstOfMonth.AddDate(0, 0, -1)
	start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location())
	return domain.Window{Start: start, End: end}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

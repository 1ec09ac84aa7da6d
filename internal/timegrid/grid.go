// Package timegrid computes schedule grid geometry: the days of a week or
// month, technician rows, and which work orders land in which cell.
package timegrid

import (
	"fmt"
	"strings"
	"time"

	"dispatchboard/internal/domain"
)

type ViewMode string

const (
	ViewDay   ViewMode = "day"
	ViewWeek  ViewMode = "week"
	ViewMonth ViewMode = "month"
)

// ParseViewMode accepts day, week or month (case-insensitive).
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case ViewDay:
		return ViewDay, nil
	case ViewWeek, "":
		return ViewWeek, nil
	case ViewMonth:
		return ViewMonth, nil
	}
	return "", fmt.Errorf("invalid view mode %q", s)
}

// DefaultMonthCellLimit is how many jobs a month cell lists before reporting overflow.
const DefaultMonthCellLimit = 2

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day. b is compared
// in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// Combine places hour:minute on the calendar day of date.
func Combine(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

// WeekDays returns the seven days of the week containing anchor, starting on weekStart.
func WeekDays(anchor time.Time, weekStart time.Weekday) [7]time.Time {
	day := Midnight(anchor)
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	first := day.AddDate(0, 0, -offset)
	var out [7]time.Time
	for i := range out {
		out[i] = first.AddDate(0, 0, i)
	}
	return out
}

// DaysIn returns the number of days in anchor's month.
func DaysIn(anchor time.Time) int {
	return time.Date(anchor.Year(), anchor.Month()+1, 0, 0, 0, 0, 0, anchor.Location()).Day()
}

// MonthDays returns the day numbers 1..N of anchor's month.
func MonthDays(anchor time.Time) []int {
	n := DaysIn(anchor)
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// MonthDates returns the midnight dates of anchor's month.
func MonthDates(anchor time.Time) []time.Time {
	days := MonthDays(anchor)
	out := make([]time.Time, len(days))
	for i, d := range days {
		out[i] = time.Date(anchor.Year(), anchor.Month(), d, 0, 0, 0, 0, anchor.Location())
	}
	return out
}

// PeriodDays returns the dates rendered for mode around anchor.
func PeriodDays(anchor time.Time, mode ViewMode, weekStart time.Weekday) []time.Time {
	switch mode {
	case ViewDay:
		return []time.Time{Midnight(anchor)}
	case ViewMonth:
		return MonthDates(anchor)
	default:
		days := WeekDays(anchor, weekStart)
		return days[:]
	}
}

// AdvancePeriod moves date by one period in direction dir (-1 or +1). Month
// steps keep the day of month, clamped to the length of the target month.
func AdvancePeriod(date time.Time, mode ViewMode, dir int) time.Time {
	if dir > 0 {
		dir = 1
	} else if dir < 0 {
		dir = -1
	}
	switch mode {
	case ViewDay:
		return date.AddDate(0, 0, dir)
	case ViewMonth:
		first := time.Date(date.Year(), date.Month()+time.Month(dir), 1,
			date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), date.Location())
		day := date.Day()
		if n := DaysIn(first); day > n {
			day = n
		}
		return first.AddDate(0, 0, day-1)
	default:
		return date.AddDate(0, 0, 7*dir)
	}
}

// Today returns the start of now's calendar day.
func Today(now time.Time) time.Time {
	return Midnight(now)
}

// JobsForDay returns the work orders assigned to technicianID that start on date.
func JobsForDay(orders []domain.WorkOrder, technicianID string, date time.Time) []domain.WorkOrder {
	var out []domain.WorkOrder
	for _, wo := range orders {
		if !wo.AssignedTo(technicianID) {
			continue
		}
		if SameDay(date, wo.ScheduledStart) {
			out = append(out, wo)
		}
	}
	return out
}

// Cell is one (technician, day) intersection of the grid.
type Cell struct {
	Date     time.Time          `json:"date" format:"date"`
	Jobs     []domain.WorkOrder `json:"jobs"`
	Overflow int                `json:"overflow"`
}

// DayCell builds the cell for technicianID on date. A positive limit truncates
// the job list and reports the remainder as Overflow.
func DayCell(orders []domain.WorkOrder, technicianID string, date time.Time, limit int) Cell {
	jobs := JobsForDay(orders, technicianID, date)
	cell := Cell{Date: Midnight(date), Jobs: jobs}
	if cell.Jobs == nil {
		cell.Jobs = []domain.WorkOrder{}
	}
	if limit > 0 && len(jobs) > limit {
		cell.Overflow = len(jobs) - limit
		cell.Jobs = jobs[:limit]
	}
	return cell
}

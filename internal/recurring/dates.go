// Package recurring generates and materializes the dated occurrences of
// recurring jobs. Date arithmetic works on plain calendar dates so the
// recurrence math is testable without any storage or framework.
package recurring

import (
	"fmt"
	"time"

	"github.com/mpetrov/fieldclock/internal/apperrors"
	"github.com/mpetrov/fieldclock/internal/models"
)

// Date is a calendar date with no time-of-day and no zone.
type Date struct {
	Year  int
	Month int // 1-12
	Day   int // 1-31
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return Date{}, apperrors.Validation("invalid date %q, want YYYY-MM-DD", s)
	}
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

// DateOf truncates a timestamp to its calendar date in local time.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is later than other.
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// Weekday returns the day of week, 0=Sunday through 6=Saturday.
func (d Date) Weekday() int {
	return int(time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC).Weekday())
}

// AddDays returns the date n days later, rolling over months and years.
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// DaysSince returns the number of days from other to d, negative when d
// is the earlier date.
func (d Date) DaysSince(other Date) int {
	a := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	b := time.Date(other.Year, time.Month(other.Month), other.Day, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year, month int) int {
	// day 0 of the next month normalizes to the last day of this one
	t := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	return t.Day()
}

// dateInMonth places day-of-month in a month, clamping to the month's
// last day (a job on the 31st falls on Feb 28/29).
func dateInMonth(year, month, day int) Date {
	if max := daysInMonth(year, month); day > max {
		day = max
	}
	return Date{Year: year, Month: month, Day: day}
}

// nextMonth advances a (year, month) pair by one calendar month.
func nextMonth(year, month int) (int, int) {
	month++
	if month > 12 {
		month = 1
		year++
	}
	return year, month
}

// MaxDatesPerRun caps how many due dates a single generation pass may
// return. A job left unpaused for years drains its backlog across runs
// instead of flooding one pass; the watermark only ever advances to the
// last date actually generated.
const MaxDatesPerRun = 100

// ComputeDueDates returns the ordered dates a job is due between from and
// to, both inclusive. Dates past the job's end date are never returned.
func ComputeDueDates(job *models.RecurringJob, from, to Date) ([]Date, error) {
	if to.Before(from) {
		return nil, nil
	}

	var endDate *Date
	if job.EndDate != nil {
		parsed, err := ParseDate(*job.EndDate)
		if err != nil {
			return nil, err
		}
		endDate = &parsed
	}

	var step func(Date) Date
	var first Date

	switch job.Frequency {
	case models.FrequencyWeekly, models.FrequencyBiweekly:
		days := 7
		if job.Frequency == models.FrequencyBiweekly {
			days = 14
		}
		first = from
		for first.Weekday() != job.DayOfWeek {
			first = first.AddDays(1)
		}
		if job.Frequency == models.FrequencyBiweekly {
			// The fortnight phase is anchored to the job's start date, so a
			// window opening mid-cycle (the run after a watermark advance)
			// keeps the 14-day cadence instead of drifting a week.
			if anchor, err := ParseDate(job.StartDate); err == nil {
				for anchor.Weekday() != job.DayOfWeek {
					anchor = anchor.AddDays(1)
				}
				if first.DaysSince(anchor)%14 != 0 {
					first = first.AddDays(7)
				}
			}
		}
		step = func(d Date) Date { return d.AddDays(days) }

	case models.FrequencyMonthly:
		first = dateInMonth(from.Year, from.Month, job.DayOfMonth)
		if first.Before(from) {
			y, m := nextMonth(from.Year, from.Month)
			first = dateInMonth(y, m, job.DayOfMonth)
		}
		step = func(d Date) Date {
			y, m := nextMonth(d.Year, d.Month)
			return dateInMonth(y, m, job.DayOfMonth)
		}

	default:
		return nil, apperrors.Validation("unknown frequency %q", job.Frequency)
	}

	var dates []Date
	for d := first; !d.After(to); d = step(d) {
		if endDate != nil && d.After(*endDate) {
			break
		}
		dates = append(dates, d)
		if len(dates) >= MaxDatesPerRun {
			break
		}
	}
	return dates, nil
}

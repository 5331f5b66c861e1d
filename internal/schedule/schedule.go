// Package schedule derives a class's session calendar from its weekly
// meeting pattern. All functions are pure and operate on naive calendar
// dates: every date is normalized to midnight UTC and compared day by day,
// with no timezone conversion anywhere in the package.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/models"
)

var (
	// ErrInvalidSchedule marks a malformed schedule: no weekdays, an
	// unknown weekday label, an end date before the start date, or no way
	// to derive an end date at all.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrDateNotInSchedule marks a date that is not one of the generated
	// session dates.
	ErrDateNotInSchedule = errors.New("date not in schedule")

	// ErrSessionNumberOutOfRange marks a session number below 1 or past
	// the end of the generated calendar.
	ErrSessionNumberOutOfRange = errors.New("session number out of range")
)

// weekdayNames maps the schedule's day labels onto time.Weekday.
var weekdayNames = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// DateOnly strips the time-of-day and timezone from t, anchoring the
// calendar date at midnight UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// EffectiveEndDate resolves the schedule's end date: the explicit EndDate
// when set, otherwise StartDate + DurationWeeks*7 - 1 day.
func EffectiveEndDate(s models.ClassSchedule) (time.Time, error) {
	start := DateOnly(s.StartDate)
	if !s.EndDate.IsZero() {
		end := DateOnly(s.EndDate)
		if end.Before(start) {
			return time.Time{}, fmt.Errorf("%w: end date %s is before start date %s",
				ErrInvalidSchedule, FormatDate(end), FormatDate(start))
		}
		return end, nil
	}
	if s.DurationWeeks < 1 {
		return time.Time{}, fmt.Errorf("%w: neither end date nor duration weeks is set", ErrInvalidSchedule)
	}
	return start.AddDate(0, 0, s.DurationWeeks*7-1), nil
}

// GenerateSessionDates expands the schedule into every session date within
// [StartDate, effective end date], sorted ascending with no duplicates.
// Generation walks week by week from the Sunday of the week containing
// StartDate and checks each selected weekday in canonical Sunday..Saturday
// order, so the result does not depend on the order of s.Days.
func GenerateSessionDates(s models.ClassSchedule) ([]time.Time, error) {
	if len(s.Days) == 0 {
		return nil, fmt.Errorf("%w: no weekdays selected", ErrInvalidSchedule)
	}
	var wanted [7]bool
	for _, name := range s.Days {
		wd, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidSchedule, name)
		}
		wanted[wd] = true
	}

	start := DateOnly(s.StartDate)
	end, err := EffectiveEndDate(s)
	if err != nil {
		return nil, err
	}

	// Back up to the Sunday starting the week that contains the start date.
	weekStart := start.AddDate(0, 0, -int(start.Weekday()))

	var dates []time.Time
	for ws := weekStart; !ws.After(end); ws = ws.AddDate(0, 0, 7) {
		for wd := 0; wd < 7; wd++ {
			if !wanted[wd] {
				continue
			}
			d := ws.AddDate(0, 0, wd)
			if d.Before(start) || d.After(end) {
				continue
			}
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// DateToSessionNumber returns the 1-based ordinal of target within the
// generated calendar, ordered by date.
func DateToSessionNumber(s models.ClassSchedule, target time.Time) (int, error) {
	dates, err := GenerateSessionDates(s)
	if err != nil {
		return 0, err
	}
	day := DateOnly(target)
	for i, d := range dates {
		if d.Equal(day) {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: %s is not a session date of this class", ErrDateNotInSchedule, FormatDate(day))
}

// SessionNumberToDate returns the date of the n-th session. It is the exact
// inverse of DateToSessionNumber over the same generated calendar.
func SessionNumberToDate(s models.ClassSchedule, n int) (time.Time, error) {
	dates, err := GenerateSessionDates(s)
	if err != nil {
		return time.Time{}, err
	}
	if n < 1 || n > len(dates) {
		return time.Time{}, fmt.Errorf("%w: session %d of %d", ErrSessionNumberOutOfRange, n, len(dates))
	}
	return dates[n-1], nil
}

// TotalSessions counts the sessions the schedule generates.
func TotalSessions(s models.ClassSchedule) (int, error) {
	dates, err := GenerateSessionDates(s)
	if err != nil {
		return 0, err
	}
	return len(dates), nil
}

package hcm

import (
	"fmt"
	"time"
)

// =============================================================================
// CLOCK TIME - Minutes since midnight, for shift and punch arithmetic
// =============================================================================

// ClockTime is a time of day with minute precision, stored as minutes
// since midnight. It deliberately carries no date: shift windows and
// punches wrap across midnight for the night shift, so all deltas are
// computed modulo 24 hours.
type ClockTime struct {
	Minutes int // 0..1439
}

func NewClockTime(hour, minute int) ClockTime {
	return ClockTime{Minutes: ((hour*60+minute)%minutesPerDay + minutesPerDay) % minutesPerDay}
}

const minutesPerDay = 24 * 60

// ParseClockTime parses "HH:mm".
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return NewClockTime(t.Hour(), t.Minute()), nil
}

func (c ClockTime) Hour() int   { return c.Minutes / 60 }
func (c ClockTime) Minute() int { return c.Minutes % 60 }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// DeltaMinutes returns how many minutes c falls after from, modulo 24h.
// Deltas in the upper half of the day are folded to negative values: a
// punch 22 hours "after" a shift start is really 2 hours before it. This
// is what keeps a 00:10 punch against a 23:00 night shift at +70 minutes
// instead of -1370.
func (c ClockTime) DeltaMinutes(from ClockTime) int {
	d := ((c.Minutes-from.Minutes)%minutesPerDay + minutesPerDay) % minutesPerDay
	if d > minutesPerDay/2 {
		return d - minutesPerDay
	}
	return d
}

// SpanMinutes returns the length of the window from c to until, wrapping
// forward across midnight. A checkout equal to the check-in is a zero span.
func (c ClockTime) SpanMinutes(until ClockTime) int {
	return ((until.Minutes-c.Minutes)%minutesPerDay + minutesPerDay) % minutesPerDay
}

// =============================================================================
// SHIFT - A named daily work window
// =============================================================================

type Shift struct {
	ID    string
	Name  string
	Start ClockTime
	End   ClockTime
}

// CrossesMidnight reports whether the shift window wraps past 00:00
// (the 23:00-07:00 night shift does).
func (s Shift) CrossesMidnight() bool {
	return s.End.Minutes <= s.Start.Minutes
}

// =============================================================================
// TIME POINT - A calendar date
// =============================================================================

type TimePoint struct {
	Time time.Time
}

func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func Today() TimePoint {
	now := time.Now()
	return NewTimePoint(now.Year(), now.Month(), now.Day())
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return TimePoint{Time: t}, nil
}

func (tp TimePoint) Before(o TimePoint) bool { return tp.normalize().Before(o.normalize()) }
func (tp TimePoint) Equal(o TimePoint) bool  { return tp.normalize().Equal(o.normalize()) }
func (tp TimePoint) After(o TimePoint) bool  { return tp.normalize().After(o.normalize()) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }

func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) MonthOf() time.Month   { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsSunday() bool        { return tp.Weekday() == time.Sunday }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	return tp.Time.Format("2006-01-02")
}

// =============================================================================
// MONTH - The payroll period
// =============================================================================

// Month identifies one calendar month, the boundary for payroll runs and
// the late-deduction counter.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func MonthOf(tp TimePoint) Month {
	return Month{Year: tp.Year(), Month: tp.MonthOf()}
}

func (m Month) Start() TimePoint { return NewTimePoint(m.Year, m.Month, 1) }

func (m Month) End() TimePoint {
	t := time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return TimePoint{Time: t}
}

func (m Month) Days() int {
	return m.End().Day()
}

// Contains reports whether the date falls inside the month.
func (m Month) Contains(tp TimePoint) bool {
	return tp.Year() == m.Year && tp.MonthOf() == m.Month
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// WorkingDays counts the payable days of the month: everything except
// Sundays and calendar holidays. This is the divisor for the daily rate
// used by both the late deduction and the overtime hourly rate.
func (m Month) WorkingDays(calendar HolidayCalendar) int {
	if calendar == nil {
		calendar = &DefaultHolidayCalendar{}
	}
	count := 0
	for d := m.Start(); !d.After(m.End()); d = d.AddDays(1) {
		if d.IsSunday() || calendar.IsHoliday(d) {
			continue
		}
		count++
	}
	return count
}

// =============================================================================
// HOLIDAY CALENDAR - Company holidays
// =============================================================================

// Holiday is a non-working day that pays the 2.0x overtime multiplier.
type Holiday struct {
	ID        string
	Date      TimePoint
	Name      string
	Recurring bool // same month/day every year
}

type HolidayCalendar interface {
	IsHoliday(date TimePoint) bool
}

// DefaultHolidayCalendar is a no-op calendar for when holidays are not
// configured.
type DefaultHolidayCalendar struct{}

func (d *DefaultHolidayCalendar) IsHoliday(date TimePoint) bool { return false }

// ListHolidayCalendar is a HolidayCalendar over a fixed slice.
type ListHolidayCalendar struct {
	Holidays []Holiday
}

func (c *ListHolidayCalendar) IsHoliday(date TimePoint) bool {
	for _, h := range c.Holidays {
		if h.Recurring {
			if h.Date.MonthOf() == date.MonthOf() && h.Date.Day() == date.Day() {
				return true
			}
			continue
		}
		if h.Date.Equal(date) {
			return true
		}
	}
	return false
}

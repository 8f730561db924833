package hcm

import (
	"testing"
	"time"
)

func TestClockTimeDeltaMinutes(t *testing.T) {
	tests := []struct {
		name       string
		punch, ref ClockTime
		want       int
	}{
		{"same minute", NewClockTime(9, 0), NewClockTime(9, 0), 0},
		{"ten after", NewClockTime(9, 10), NewClockTime(9, 0), 10},
		{"thirty before", NewClockTime(8, 30), NewClockTime(9, 0), -30},
		{"across midnight forward", NewClockTime(0, 10), NewClockTime(23, 0), 70},
		{"across midnight backward", NewClockTime(22, 30), NewClockTime(23, 0), -30},
		{"noon against midnight", NewClockTime(12, 0), NewClockTime(0, 0), 720},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.punch.DeltaMinutes(tc.ref); got != tc.want {
				t.Errorf("DeltaMinutes = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestClockTimeSpanMinutes(t *testing.T) {
	// A night shift span wraps forward across midnight.
	in := NewClockTime(23, 0)
	out := NewClockTime(7, 0)
	if got := in.SpanMinutes(out); got != 480 {
		t.Errorf("span = %d, want 480", got)
	}
	// A day shift does not.
	if got := NewClockTime(9, 0).SpanMinutes(NewClockTime(17, 30)); got != 510 {
		t.Errorf("span = %d, want 510", got)
	}
}

func TestParseClockTime(t *testing.T) {
	c, err := ParseClockTime("23:45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Hour() != 23 || c.Minute() != 45 {
		t.Errorf("parsed %s, want 23:45", c)
	}
	if _, err := ParseClockTime("9am"); err == nil {
		t.Error("expected error for non HH:mm input")
	}
}

func TestShiftCrossesMidnight(t *testing.T) {
	day := Shift{Start: NewClockTime(9, 0), End: NewClockTime(17, 0)}
	night := Shift{Start: NewClockTime(23, 0), End: NewClockTime(7, 0)}
	if day.CrossesMidnight() {
		t.Error("day shift must not cross midnight")
	}
	if !night.CrossesMidnight() {
		t.Error("night shift must cross midnight")
	}
}

func TestMonthWorkingDays(t *testing.T) {
	// August 2025 has 31 days and five Sundays.
	august := Month{Year: 2025, Month: time.August}
	if got := august.WorkingDays(nil); got != 26 {
		t.Errorf("workingDays = %d, want 26", got)
	}

	// A weekday holiday removes a working day; a Sunday holiday does not.
	calendar := &ListHolidayCalendar{Holidays: []Holiday{
		{Date: NewTimePoint(2025, time.August, 14)}, // Thursday
		{Date: NewTimePoint(2025, time.August, 10)}, // Sunday
	}}
	if got := august.WorkingDays(calendar); got != 25 {
		t.Errorf("workingDays with holidays = %d, want 25", got)
	}
}

func TestMonthBounds(t *testing.T) {
	feb, err := ParseMonth("2024-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feb.Days() != 29 {
		t.Errorf("2024-02 days = %d, want 29", feb.Days())
	}
	if !feb.Contains(NewTimePoint(2024, time.February, 29)) {
		t.Error("month must contain its last day")
	}
	if feb.Contains(NewTimePoint(2024, time.March, 1)) {
		t.Error("month must not contain the next month's first day")
	}
	if feb.String() != "2024-02" {
		t.Errorf("String = %s, want 2024-02", feb)
	}
}

func TestRecurringHoliday(t *testing.T) {
	calendar := &ListHolidayCalendar{Holidays: []Holiday{
		{Date: NewTimePoint(2025, time.August, 14), Name: "Independence Day", Recurring: true},
		{Date: NewTimePoint(2025, time.March, 23), Name: "One-off"},
	}}

	if !calendar.IsHoliday(NewTimePoint(2030, time.August, 14)) {
		t.Error("recurring holiday must match in any year")
	}
	if calendar.IsHoliday(NewTimePoint(2026, time.March, 23)) {
		t.Error("one-off holiday must not recur")
	}
	if !calendar.IsHoliday(NewTimePoint(2025, time.March, 23)) {
		t.Error("one-off holiday must match its own date")
	}
}

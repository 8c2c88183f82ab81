package leave

import (
	"testing"
	"time"
)

func date(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func TestWorkingDaysSkipsWeekendsAndHolidays(t *testing.T) {
	// 2025-01-01 is a Wednesday holiday; 4th and 5th are the weekend.
	cal := NewCalendar(date("2025-01-01"))

	got := WorkingDays(date("2025-01-01"), date("2025-01-05"), cal)
	if got != 2 {
		t.Fatalf("expected 2 working days, got %d", got)
	}
}

func TestWorkingDaysReversedRangeIsEmpty(t *testing.T) {
	got := WorkingDays(date("2025-03-10"), date("2025-03-01"), NewCalendar())
	if got != 0 {
		t.Fatalf("expected 0 for reversed range, got %d", got)
	}
}

func TestWorkingDaysWeekendOnlyRange(t *testing.T) {
	// 2025-01-04 and 2025-01-05 are Saturday and Sunday.
	got := WorkingDays(date("2025-01-04"), date("2025-01-05"), NewCalendar())
	if got != 0 {
		t.Fatalf("expected 0 for weekend-only range, got %d", got)
	}
}

func TestWorkingDaysHolidayOnlyRange(t *testing.T) {
	cal := NewCalendar(date("2025-04-18"), date("2025-04-21"))
	got := WorkingDays(date("2025-04-18"), date("2025-04-18"), cal)
	if got != 0 {
		t.Fatalf("expected 0 for a holiday, got %d", got)
	}
}

func TestWorkingDaysSingleDay(t *testing.T) {
	// 2025-01-06 is a Monday.
	if got := WorkingDays(date("2025-01-06"), date("2025-01-06"), NewCalendar()); got != 1 {
		t.Fatalf("expected 1 for a plain weekday, got %d", got)
	}
	if got := WorkingDays(date("2025-01-04"), date("2025-01-04"), NewCalendar()); got != 0 {
		t.Fatalf("expected 0 for a Saturday, got %d", got)
	}
}

func TestWorkingDaysIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2025, 1, 6, 23, 30, 0, 0, time.UTC)
	end := time.Date(2025, 1, 7, 0, 15, 0, 0, time.UTC)
	if got := WorkingDays(start, end, NewCalendar()); got != 2 {
		t.Fatalf("expected 2 working days across midnight, got %d", got)
	}
}

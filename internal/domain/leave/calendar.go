package leave

import "time"

const dateLayout = "2006-01-02"

// Calendar is the set of public holiday dates, keyed by YYYY-MM-DD. It is
// loaded from storage, not compiled in, so one engine serves any
// jurisdiction or year.
type Calendar map[string]struct{}

func NewCalendar(dates ...time.Time) Calendar {
	cal := make(Calendar, len(dates))
	for _, date := range dates {
		cal.Add(date)
	}
	return cal
}

func (c Calendar) Add(date time.Time) {
	c[date.Format(dateLayout)] = struct{}{}
}

func (c Calendar) IsHoliday(date time.Time) bool {
	_, ok := c[date.Format(dateLayout)]
	return ok
}

func isWeekend(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// WorkingDays counts the days in the inclusive range [start, end] that are
// neither weekends nor holidays in cal. A reversed range counts as empty.
func WorkingDays(start, end time.Time, cal Calendar) int {
	start = truncateDay(start)
	end = truncateDay(end)

	days := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if isWeekend(day) || cal.IsHoliday(day) {
			continue
		}
		days++
	}
	return days
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

package booking

import "time"

const dateLayout = "2006-01-02"

// LongDate renders an ISO date as "10 March 2025". Unparseable input is
// returned unchanged.
func LongDate(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("2 January 2006")
}

// WeekdayDate renders an ISO date as "Monday, 10 March 2025".
func WeekdayDate(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Monday, 2 January 2006")
}

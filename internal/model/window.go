package model

import "time"

// DateLayout is the accepted command-line date format.
const DateLayout = "2006-01-02"

// apiTimeLayout mirrors how start/end dates are sent to the API: wall-clock
// local time with a literal Z suffix.
const apiTimeLayout = "2006-01-02T15:04:05Z"

// Window is an inclusive date-time range covering whole days.
type Window struct {
	Start time.Time
	End   time.Time
}

// ParseWindow builds a window from start 00:00:00 to end 23:59:59.
func ParseWindow(startDate, endDate string) (Window, error) {
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return Window{}, Validationf("start date", "%q is not YYYY-MM-DD", startDate)
	}
	end, err := time.Parse(DateLayout, endDate)
	if err != nil {
		return Window{}, Validationf("end date", "%q is not YYYY-MM-DD", endDate)
	}
	if end.Before(start) {
		return Window{}, Validationf("end date", "%s is before start date %s", endDate, startDate)
	}
	return Window{
		Start: start,
		End:   end.Add(24*time.Hour - time.Second),
	}, nil
}

// MonthWindow returns the calendar month containing t.
func MonthWindow(t time.Time) Window {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return Window{Start: start, End: end}
}

// Contains reports whether start <= t <= end, comparing wall-clock values.
func (w Window) Contains(t time.Time) bool {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	return !wall.Before(w.Start) && !wall.After(w.End)
}

// StartParam formats the start bound for the API.
func (w Window) StartParam() string { return w.Start.Format(apiTimeLayout) }

// EndParam formats the end bound for the API.
func (w Window) EndParam() string { return w.End.Format(apiTimeLayout) }

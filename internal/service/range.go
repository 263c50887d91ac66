// Package service provides business logic implementations.
package service

import "time"

const dateLayout = "2006-01-02"

// RangeResolver determines which calendar dates are missing from the
// archive. All date arithmetic happens in the archive owner's fixed
// reference timezone so "today" never shifts with the server's clock zone.
type RangeResolver struct {
	loc          *time.Location
	lookbackDays int
	startDate    time.Time
}

// NewRangeResolver creates a RangeResolver. When the archive is empty,
// lookbackDays > 0 bounds the first sync to the lookbackDays+1 dates
// ending today; otherwise the range starts at startDate.
func NewRangeResolver(loc *time.Location, lookbackDays int, startDate time.Time) *RangeResolver {
	return &RangeResolver{
		loc:          loc,
		lookbackDays: lookbackDays,
		startDate:    calendarDate(startDate, loc),
	}
}

// Resolve returns the ordered dates strictly after the cursor up to and
// including today, ascending. A zero cursor means no sync has ever run.
// An empty result means the archive is already up to date.
func (r *RangeResolver) Resolve(cursor time.Time, now time.Time) []time.Time {
	today := calendarDate(now.In(r.loc), r.loc)

	var start time.Time
	switch {
	case !cursor.IsZero():
		// The cursor is a calendar date, not an instant; reinterpreting it
		// through another zone would shift it by a day.
		start = calendarDate(cursor, r.loc).AddDate(0, 0, 1)
	case r.lookbackDays > 0:
		start = today.AddDate(0, 0, -r.lookbackDays)
	default:
		start = r.startDate
	}

	if start.After(today) {
		return nil
	}

	var dates []time.Time
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// calendarDate keeps t's year/month/day and pins them to midnight in loc.
func calendarDate(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

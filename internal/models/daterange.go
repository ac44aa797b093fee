package models

import "time"

// dateKeyLayout is the canonical YYYYMMDD partition key layout.
const dateKeyLayout = "20060102"

// DateRange is an inclusive start/end instant pair, normally spanning one
// calendar day. Its canonical YYYYMMDD form partitions programs for
// day-scoped queries and deletions.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange creates a range with start strictly before end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if !start.Before(end) {
		return DateRange{}, ErrInvalidTimeRange
	}
	return DateRange{Start: start, End: end}, nil
}

// DateRangeForDay expands an 8-digit YYYYMMDD key into the full day
// [00:00:00, 23:59:59] in the given location.
func DateRangeForDay(key string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(dateKeyLayout, key, loc)
	if err != nil || len(key) != 8 {
		return DateRange{}, ErrInvalidDateKey
	}
	return DateRange{
		Start: day,
		End:   day.Add(24*time.Hour - time.Second),
	}, nil
}

// Contains reports whether t falls inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Key returns the canonical YYYYMMDD form of the range's start day.
func (r DateRange) Key() string {
	return r.Start.Format(dateKeyLayout)
}

// DateKey formats an instant as a YYYYMMDD partition key in loc.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(dateKeyLayout)
}

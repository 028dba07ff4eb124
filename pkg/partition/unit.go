// Package partition expands time-partitioned path templates over date ranges.
package partition

import "time"

// Unit is a calendar step size used to enumerate partitions.
type Unit int

const (
	// Hour steps one clock hour at a time.
	Hour Unit = iota
	// Day steps one calendar day at a time.
	Day
	// Month steps one calendar month at a time.
	Month
	// Year steps one calendar year at a time.
	Year
)

// unitTable maps date-format tokens to units, ordered finest first. Unit
// detection walks this table in order so a template carrying both an hour
// and a day token is treated at hour granularity.
var unitTable = []struct {
	unit  Unit
	token string
}{
	{Hour, "%H"},
	{Day, "%d"},
	{Month, "%m"},
	{Year, "%Y"},
}

// String returns the unit name.
func (u Unit) String() string {
	switch u {
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Month:
		return "month"
	case Year:
		return "year"
	}
	return "unknown"
}

// Token returns the date-format token for the unit.
func (u Unit) Token() string {
	for _, e := range unitTable {
		if e.unit == u {
			return e.token
		}
	}
	return ""
}

// Step advances t by one unit. Month and year steps are calendar-aware, not
// fixed-length; arithmetic happens in t's location.
func (u Unit) Step(t time.Time) time.Time {
	switch u {
	case Hour:
		return t.Add(time.Hour)
	case Day:
		return t.AddDate(0, 0, 1)
	case Month:
		return t.AddDate(0, 1, 0)
	case Year:
		return t.AddDate(1, 0, 0)
	}
	return t
}

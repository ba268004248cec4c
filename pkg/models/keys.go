package models

import "fmt"

// RootKey is the composite key of the years list
const RootKey = "root"

// IndexKeys are composite keys of the lookup index that a path belongs to.
type IndexKeys struct {
	Year         string
	YearMonth    string
	YearMonthDay string
}

// Keys derives composite keys of the path.
func (x *PathDateTime) Keys() IndexKeys {
	return IndexKeys{
		Year:         YearKey(x.Year),
		YearMonth:    YearMonthKey(x.Year, x.Month),
		YearMonthDay: YearMonthDayKey(x.Year, x.Month, x.Day),
	}
}

// YearKey is the key of the months list of the year
func YearKey(year int) string { return fmt.Sprintf("%d", year) }

// YearMonthKey is the key of the days list of the month
func YearMonthKey(year, month int) string { return fmt.Sprintf("%d-%d", year, month) }

// YearMonthDayKey is the key of the objects list of the day
func YearMonthDayKey(year, month, day int) string {
	return fmt.Sprintf("%d-%d-%d", year, month, day)
}

package types

import (
	"fmt"
	"time"
)

// Timestamp is a calendar point in time with second resolution. It is a plain
// value type: every mutation-like operation returns a new Timestamp.
//
// Ordering is lexicographic over (year, month, day, hour, minute, second).
type Timestamp struct {
	Year   int `json:"year" yaml:"year"`
	Month  int `json:"month" yaml:"month"`
	Day    int `json:"day" yaml:"day"`
	Hour   int `json:"hour" yaml:"hour"`
	Minute int `json:"minute" yaml:"minute"`
	Second int `json:"second" yaml:"second"`
}

// NewTimestamp creates a Timestamp from calendar components.
func NewTimestamp(year, month, day, hour, minute, second int) Timestamp {
	return Timestamp{
		Year:   year,
		Month:  month,
		Day:    day,
		Hour:   hour,
		Minute: minute,
		Second: second,
	}
}

// NewDate creates a Timestamp at midnight of the given calendar day.
func NewDate(year, month, day int) Timestamp {
	return NewTimestamp(year, month, day, 0, 0, 0)
}

// TimestampFromTime converts a time.Time into a Timestamp using its UTC
// calendar components.
func TimestampFromTime(t time.Time) Timestamp {
	u := t.UTC()

	return NewTimestamp(u.Year(), int(u.Month()), u.Day(), u.Hour(), u.Minute(), u.Second())
}

// IsLeapYear reports whether the year is a Gregorian leap year: divisible by
// 400, or by 4 and not by 100.
func IsLeapYear(year int) bool {
	return year%400 == 0 || (year%4 == 0 && year%100 != 0)
}

// DaysInMonth returns the number of days in the given month of the given year.
func DaysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if IsLeapYear(year) {
			return 29
		}

		return 28
	default:
		return 30
	}
}

// Add returns a new Timestamp advanced by the given number of seconds,
// rolling minutes, hours, days, months, and years as needed. Seconds must be
// non-negative.
func (ts Timestamp) Add(seconds int) Timestamp {
	totalSeconds := ts.Second + seconds
	second := totalSeconds % 60
	totalMinutes := ts.Minute + totalSeconds/60
	minute := totalMinutes % 60
	totalHours := ts.Hour + totalMinutes/60
	hour := totalHours % 24

	year := ts.Year
	month := ts.Month
	day := ts.Day + totalHours/24

	for {
		dim := DaysInMonth(year, month)
		if day <= dim {
			break
		}

		day -= dim
		month++

		if month > 12 {
			month = 1
			year++
		}
	}

	return NewTimestamp(year, month, day, hour, minute, second)
}

// Compare returns -1 if ts precedes other, +1 if it follows, and 0 if equal.
func (ts Timestamp) Compare(other Timestamp) int {
	pairs := [6][2]int{
		{ts.Year, other.Year},
		{ts.Month, other.Month},
		{ts.Day, other.Day},
		{ts.Hour, other.Hour},
		{ts.Minute, other.Minute},
		{ts.Second, other.Second},
	}

	for _, p := range pairs {
		if p[0] < p[1] {
			return -1
		}

		if p[0] > p[1] {
			return 1
		}
	}

	return 0
}

// Before reports whether ts precedes other.
func (ts Timestamp) Before(other Timestamp) bool {
	return ts.Compare(other) < 0
}

// After reports whether ts follows other.
func (ts Timestamp) After(other Timestamp) bool {
	return ts.Compare(other) > 0
}

// Equal reports whether ts and other name the same point in time.
func (ts Timestamp) Equal(other Timestamp) bool {
	return ts.Compare(other) == 0
}

// SameDate reports whether ts and other fall on the same calendar day.
func (ts Timestamp) SameDate(other Timestamp) bool {
	return ts.Year == other.Year && ts.Month == other.Month && ts.Day == other.Day
}

// Date returns the Timestamp truncated to midnight of its calendar day.
func (ts Timestamp) Date() Timestamp {
	return NewDate(ts.Year, ts.Month, ts.Day)
}

// IsZero reports whether ts is the zero value.
func (ts Timestamp) IsZero() bool {
	return ts == Timestamp{}
}

// Time converts the Timestamp into a time.Time in UTC.
func (ts Timestamp) Time() time.Time {
	return time.Date(ts.Year, time.Month(ts.Month), ts.Day, ts.Hour, ts.Minute, ts.Second, 0, time.UTC)
}

// String formats the Timestamp as "YYYY-MM-DD HH:MM:SS".
func (ts Timestamp) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
		ts.Year, ts.Month, ts.Day, ts.Hour, ts.Minute, ts.Second)
}

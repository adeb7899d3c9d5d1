package date

import "fmt"

// Range represents a range of dates.
type Range struct{ From, To Date }

// YearToDate returns the range from January 1st of d's year up to d.
func YearToDate(d Date) Range {
	return Range{From: d.StartOfYear(), To: d}
}

// Year returns the whole calendar year.
func Year(y int) Range {
	start := New(y, 1, 1)
	return Range{From: start, To: start.EndOfYear()}
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// Identifier compute a unique identifier for the Range.
// Whole calendar years are named by their year.
func (r Range) Identifier() string {
	if r.From == r.From.StartOfYear() && r.To == r.From.EndOfYear() {
		return fmt.Sprintf("%d", r.From.Year())
	}
	return fmt.Sprintf("%s_%s", r.From, r.To)
}

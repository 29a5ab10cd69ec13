package booking

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ErrBadPeriod is returned when a month/year pair is out of range.
var ErrBadPeriod = errors.New("month must be 1-12 and year four digits")

// BookingRange is one reservation as the backend reports it. CheckIn is
// inclusive and CheckOut exclusive; both are calendar dates.
type BookingRange struct {
	PropertyID int    `json:"propertyId"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
}

// DaySet holds day-of-month numbers.
type DaySet map[int]struct{}

func (s DaySet) Add(day int) { s[day] = struct{}{} }

func (s DaySet) Has(day int) bool {
	_, ok := s[day]
	return ok
}

// Sorted returns the days in ascending order.
func (s DaySet) Sorted() []int {
	days := make([]int, 0, len(s))
	for d := range s {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// ValidatePeriod checks a month/year pair.
func ValidatePeriod(month, year int) error {
	if month < 1 || month > 12 || year < 1000 || year > 9999 {
		return fmt.Errorf("%w: got %d/%d", ErrBadPeriod, month, year)
	}
	return nil
}

// parseDate accepts plain dates and full RFC 3339 timestamps; only the
// calendar date part is kept.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// span parses both ends of a booking.
func (b BookingRange) span() (time.Time, time.Time, error) {
	in, err := parseDate(b.CheckIn)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("check-in: %w", err)
	}
	out, err := parseDate(b.CheckOut)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("check-out: %w", err)
	}
	if out.Before(in) {
		return time.Time{}, time.Time{}, fmt.Errorf("check-out %s before check-in %s", b.CheckOut, b.CheckIn)
	}
	return in, out, nil
}

// ComputeBookedDays walks every booking from check-in up to (not including)
// check-out and collects the days that land in month/year, per property.
// A booking with unusable dates is logged and skipped; the rest still count.
// Properties without any booked day in the period are absent from the result.
func ComputeBookedDays(bookings []BookingRange, month, year int) map[int]DaySet {
	booked := make(map[int]DaySet)
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	for _, b := range bookings {
		in, out, err := b.span()
		if err != nil {
			log.Printf("⚠️ skipping booking for property %d: %v", b.PropertyID, err)
			continue
		}

		// only the part of the stay inside the month is walked
		if in.Before(first) {
			in = first
		}
		if out.After(next) {
			out = next
		}

		for d := in; d.Before(out); d = d.AddDate(0, 0, 1) {
			days, ok := booked[b.PropertyID]
			if !ok {
				days = make(DaySet)
				booked[b.PropertyID] = days
			}
			days.Add(d.Day())
		}
	}

	return booked
}

package booking

import (
	"strconv"
	"sync/atomic"
	"time"
)

// Key addresses one property's booked days for one month.
type Key struct {
	PropertyID int
	Year       int
	Month      int
}

// Snapshot is the availability index for a single month/year. It is built
// once and never modified afterwards.
type Snapshot struct {
	Month     int
	Year      int
	Days      map[int]DaySet
	Message   string
	FetchedAt time.Time
}

// NewSnapshot builds the index for month/year from bookings.
func NewSnapshot(bookings []BookingRange, month, year int) *Snapshot {
	return &Snapshot{
		Month:     month,
		Year:      year,
		Days:      ComputeBookedDays(bookings, month, year),
		FetchedAt: time.Now().UTC(),
	}
}

// emptySnapshot is what callers see when the feed failed: no booked days
// known, plus a message for the user.
func emptySnapshot(month, year int, message string) *Snapshot {
	return &Snapshot{
		Month:     month,
		Year:      year,
		Days:      map[int]DaySet{},
		Message:   message,
		FetchedAt: time.Now().UTC(),
	}
}

// Covers reports whether the snapshot was built for month/year.
func (s *Snapshot) Covers(month, year int) bool {
	return s != nil && s.Month == month && s.Year == year
}

// Lookup returns the booked days for k, or nil when k is outside the
// snapshot's period or the property has nothing booked. A nil DaySet is
// safe to query.
func (s *Snapshot) Lookup(k Key) DaySet {
	if !s.Covers(k.Month, k.Year) {
		return nil
	}
	return s.Days[k.PropertyID]
}

// View is the JSON shape served to the UI.
type View struct {
	Month      int              `json:"month"`
	Year       int              `json:"year"`
	Properties map[string][]int `json:"properties"`
	Message    string           `json:"message,omitempty"`
	FetchedAt  time.Time        `json:"fetchedAt"`
}

func (s *Snapshot) View() View {
	v := View{
		Month:      s.Month,
		Year:       s.Year,
		Properties: make(map[string][]int, len(s.Days)),
		Message:    s.Message,
		FetchedAt:  s.FetchedAt,
	}
	for id, days := range s.Days {
		v.Properties[strconv.Itoa(id)] = days.Sorted()
	}
	return v
}

// Index holds the current snapshot. Readers never see a half-built one:
// a new snapshot replaces the old one in a single store.
type Index struct {
	cur atomic.Pointer[Snapshot]
}

func (i *Index) Current() *Snapshot {
	return i.cur.Load()
}

func (i *Index) Swap(s *Snapshot) {
	i.cur.Store(s)
}

// Reset drops the current snapshot.
func (i *Index) Reset() {
	i.cur.Store(nil)
}

package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"
)

// failedRetryAfter is how long a snapshot from a failed fetch is served
// before Ensure asks the backend again.
const failedRetryAfter = 15 * time.Second

// Source supplies the bookings for a month.
type Source interface {
	Monthly(ctx context.Context, month, year int) ([]BookingRange, error)
}

// Cache receives every successfully built snapshot.
type Cache interface {
	StoreAvailability(ctx context.Context, snap *Snapshot) error
}

// Service keeps the availability index in step with the bookings feed.
type Service struct {
	source   Source
	cache    Cache
	index    Index
	watchers *watchers

	flights    singleflight.Group
	retryAfter time.Duration
}

// NewService wires a feed source; cache may be nil.
func NewService(source Source, cache Cache) *Service {
	return &Service{
		source:     source,
		cache:      cache,
		watchers:   newWatchers(),
		retryAfter: failedRetryAfter,
	}
}

// Current returns the snapshot in use, or nil before the first refresh.
func (s *Service) Current() *Snapshot {
	return s.index.Current()
}

// Refresh fetches month/year and replaces the index wholesale. When the
// fetch fails the index is replaced by an empty snapshot carrying a
// user-facing message, and the error is returned alongside it.
func (s *Service) Refresh(ctx context.Context, month, year int) (*Snapshot, error) {
	if err := ValidatePeriod(month, year); err != nil {
		return nil, err
	}

	bookings, err := s.source.Monthly(ctx, month, year)
	if err != nil {
		log.Printf("❌ availability refresh %02d/%d: %v", month, year, err)
		snap := emptySnapshot(month, year, fmt.Sprintf("Could not load bookings for %d/%d", month, year))
		s.index.Swap(snap)
		s.watchers.notify(month, year)
		return snap, err
	}

	snap := NewSnapshot(bookings, month, year)
	s.index.Swap(snap)
	log.Printf("✅ availability %02d/%d: %d bookings, %d properties booked", month, year, len(bookings), len(snap.Days))

	if s.cache != nil {
		if err := s.cache.StoreAvailability(ctx, snap); err != nil {
			log.Printf("⚠️ availability cache: %v", err)
		}
	}
	s.watchers.notify(month, year)

	return snap, nil
}

// Ensure returns the snapshot for month/year, refreshing when the current
// one covers another period, force is set, or it came from a failed fetch
// older than retryAfter. Concurrent calls for the same period share one
// fetch. It never fails: a failed fetch yields the empty snapshot with its
// message.
func (s *Service) Ensure(ctx context.Context, month, year int, force bool) (*Snapshot, error) {
	if err := ValidatePeriod(month, year); err != nil {
		return nil, err
	}
	if cur := s.index.Current(); !force && s.fresh(cur, month, year) {
		return cur, nil
	}

	key := periodKey(month, year)
	if force {
		key += ":force"
	}
	v, _, _ := s.flights.Do(key, func() (any, error) {
		// a flight that just finished may already have loaded the period
		if cur := s.index.Current(); !force && s.fresh(cur, month, year) {
			return cur, nil
		}
		snap, _ := s.Refresh(context.WithoutCancel(ctx), month, year)
		return snap, nil
	})
	return v.(*Snapshot), nil
}

func (s *Service) fresh(cur *Snapshot, month, year int) bool {
	if !cur.Covers(month, year) {
		return false
	}
	return cur.Message == "" || time.Since(cur.FetchedAt) < s.retryAfter
}

// Close drops the index and disconnects watchers.
func (s *Service) Close() {
	s.index.Reset()
	s.watchers.closeAll()
}

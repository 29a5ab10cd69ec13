package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"villas/fallback"
	"villas/metrics"
)

// ErrUnrecognizedFeed means the body was JSON but held no booking list.
var ErrUnrecognizedFeed = errors.New("monthly bookings response has no booking list")

// Feed fetches the monthly bookings report from the backend.
type Feed struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewFeed(baseURL, token string) *Feed {
	return &Feed{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Monthly returns all bookings touching month/year.
func (f *Feed) Monthly(ctx context.Context, month, year int) (bookings []BookingRange, err error) {
	if err := ValidatePeriod(month, year); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { metrics.ObserveFeed(start, err) }()

	q := url.Values{}
	q.Set("month", strconv.Itoa(month))
	q.Set("year", strconv.Itoa(year))
	endpoint := f.BaseURL + "/bookings/monthly?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch monthly bookings: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read monthly bookings: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("monthly bookings: unexpected status %d", resp.StatusCode)
	}

	return ParseMonthly(body)
}

// ParseMonthly normalises the feed body. It accepts either a list of
// properties each carrying its bookings, or a flat list of bookings that
// name their own property, optionally wrapped in data/properties/results.
// Entries that cannot be attributed to a property are skipped.
func ParseMonthly(body []byte) ([]BookingRange, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode monthly bookings: %w", err)
	}

	var items []any
	switch top := raw.(type) {
	case []any:
		items = top
	case map[string]any:
		list, ok := fallback.List(top, "data", "properties", "results", "bookings")
		if !ok {
			return nil, ErrUnrecognizedFeed
		}
		items = list
	default:
		return nil, ErrUnrecognizedFeed
	}

	var out []BookingRange
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			log.Printf("⚠️ monthly bookings: entry %d is not an object", i)
			continue
		}

		if nested, ok := fallback.List(entry, "bookings", "reservations"); ok {
			propertyID, ok := propertyIDOf(entry, true)
			if !ok {
				log.Printf("⚠️ monthly bookings: entry %d has no property id", i)
				continue
			}
			for _, nb := range nested {
				if b, ok := nb.(map[string]any); ok {
					out = append(out, rangeOf(b, propertyID))
				}
			}
			continue
		}

		propertyID, ok := propertyIDOf(entry, false)
		if !ok {
			log.Printf("⚠️ monthly bookings: booking %d has no property id", i)
			continue
		}
		out = append(out, rangeOf(entry, propertyID))
	}

	return out, nil
}

// propertyIDOf resolves the property id. A property object may use a bare
// "id"; a booking may not, since there "id" is the booking's own.
func propertyIDOf(m map[string]any, isProperty bool) (int, bool) {
	names := []string{"property_id", "propertyId", "villa_id"}
	if isProperty {
		names = append(names, "id")
	}
	if id, ok := fallback.Int(m, names...); ok {
		return id, true
	}
	v, ok := fallback.First(m,
		fallback.Path("property", "id"),
		fallback.Path("property", "property_id"),
		fallback.Path("villa", "id"),
		fallback.Path("villa", "property_id"),
	)
	if !ok {
		return 0, false
	}
	return fallback.AsInt(v)
}

func rangeOf(m map[string]any, propertyID int) BookingRange {
	in, _ := fallback.String(m, "check_in", "checkIn", "start_date", "startDate")
	out, _ := fallback.String(m, "check_out", "checkOut", "end_date", "endDate")
	return BookingRange{PropertyID: propertyID, CheckIn: in, CheckOut: out}
}

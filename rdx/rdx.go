package rdx

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"villas/booking"
	"villas/notify"

	"github.com/redis/go-redis/v9"
)

// NotificationChannel is the pub/sub channel every stored notification is
// published on, for other local consumers.
const NotificationChannel = "notification-events"

// Client is the part of go-redis the bridge needs.
type Client interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Connect opens a client and checks it with PING.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	conn := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := conn.Ping(ctx).Err(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return conn, nil
}

// Bridge publishes notifications and caches availability snapshots.
type Bridge struct {
	conn Client
	ttl  time.Duration
}

func NewBridge(conn Client, ttl time.Duration) *Bridge {
	return &Bridge{conn: conn, ttl: ttl}
}

// Notified publishes n on NotificationChannel.
func (b *Bridge) Notified(ctx context.Context, n notify.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := b.conn.Publish(ctx, NotificationChannel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", n.ID, err)
	}
	return nil
}

// AvailabilityKey is where the whole month view is cached.
func AvailabilityKey(month, year int) string {
	return fmt.Sprintf("availability:%d-%02d", year, month)
}

// PropertyAvailabilityKey is where one property's booked days are cached.
func PropertyAvailabilityKey(propertyID, month, year int) string {
	return AvailabilityKey(month, year) + ":" + strconv.Itoa(propertyID)
}

// StoreAvailability writes the month view plus one key per property.
func (b *Bridge) StoreAvailability(ctx context.Context, snap *booking.Snapshot) error {
	view, err := json.Marshal(snap.View())
	if err != nil {
		return fmt.Errorf("marshal availability: %w", err)
	}
	if err := b.conn.Set(ctx, AvailabilityKey(snap.Month, snap.Year), view, b.ttl).Err(); err != nil {
		return fmt.Errorf("cache availability: %w", err)
	}

	for propertyID, days := range snap.Days {
		data, _ := json.Marshal(days.Sorted())
		key := PropertyAvailabilityKey(propertyID, snap.Month, snap.Year)
		if err := b.conn.Set(ctx, key, data, b.ttl).Err(); err != nil {
			return fmt.Errorf("cache %s: %w", key, err)
		}
	}
	return nil
}

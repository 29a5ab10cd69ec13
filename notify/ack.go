package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Acknowledger reports read state to the backend. The store is updated
// optimistically; if the backend rejects the call the change is rolled
// back and the item is flagged AckFailed.
type Acknowledger struct {
	BaseURL string
	Token   string
	Client  *http.Client

	store *Store
}

func NewAcknowledger(baseURL, token string, store *Store) *Acknowledger {
	return &Acknowledger{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
		store:   store,
	}
}

func (a *Acknowledger) post(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("server answered %d", resp.StatusCode)
	}
	return nil
}

// MarkRead marks id read locally, then on the server. The local flag is
// reverted when the server call fails, unless the server pushed the item
// as read while the call was in flight.
func (a *Acknowledger) MarkRead(ctx context.Context, id string) error {
	wasUnread, ok := a.store.beginAck(id)
	if !ok {
		return ErrNotFound
	}

	err := a.post(ctx, "/notifications/"+url.PathEscape(id)+"/read")
	a.store.settleAck(id, wasUnread, err != nil)
	if err != nil {
		return fmt.Errorf("mark %s read: %w", id, err)
	}
	return nil
}

// MarkAllRead clears the unread counter locally and on the server. On
// failure the items that were unread become unread again, except those the
// server has meanwhile pushed as read.
func (a *Acknowledger) MarkAllRead(ctx context.Context) error {
	changed := a.store.beginAckAll()

	err := a.post(ctx, "/notifications/read-all")
	for _, id := range changed {
		a.store.settleAck(id, true, err != nil)
	}
	if err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

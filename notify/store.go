package notify

import (
	"errors"
	"sort"
	"sync"

	"villas/metrics"
)

// ErrNotFound is returned when an id is not in the store.
var ErrNotFound = errors.New("notification not found")

// State is a copy of the store contents. Version grows by one with every
// mutation, so consumers can tell a newer state from an older one.
type State struct {
	Items       []Notification `json:"items"`
	UnreadCount int            `json:"unreadCount"`
	Version     uint64         `json:"version"`
}

// Store is the ordered, deduplicated notification list with its unread
// counter. Items are kept newest first. unread always equals the number
// of items with Read == false.
type Store struct {
	mu        sync.Mutex
	items     []Notification
	unread    int
	version   uint64
	listeners []func(State)

	// held while listeners run so they see states in mutation order
	deliver sync.Mutex
}

func NewStore() *Store {
	return &Store{}
}

// OnChange registers fn to receive the new state after every mutation.
// Calls are serialized and arrive in mutation order. fn runs outside the
// store lock but must not call back into the store.
func (s *Store) OnChange(fn func(State)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) stateLocked() State {
	items := make([]Notification, len(s.items))
	copy(items, s.items)
	return State{Items: items, UnreadCount: s.unread, Version: s.version}
}

func (s *Store) countUnreadLocked() int {
	n := 0
	for _, it := range s.items {
		if !it.Read {
			n++
		}
	}
	return n
}

// commit publishes the state after a mutation. Must be called with s.mu
// held; it releases the lock. The delivery lock is taken before s.mu is
// released, so two commits cannot reach listeners out of order.
func (s *Store) commit() {
	s.version++
	st := s.stateLocked()
	listeners := s.listeners
	s.deliver.Lock()
	s.mu.Unlock()
	defer s.deliver.Unlock()

	metrics.SetUnread(st.UnreadCount)
	for _, fn := range listeners {
		fn(st)
	}
}

// AddNotification inserts n at the front. If an item with the same id is
// already present the fields of n are merged into it instead, and the
// unread counter is not bumped a second time. Once read, an item stays
// read through later merges. It reports whether a new item was inserted.
func (s *Store) AddNotification(n Notification) bool {
	s.mu.Lock()

	if i := s.indexOf(n.ID); i >= 0 {
		cur := &s.items[i]
		wasRead := cur.Read
		merge(cur, n)
		if !wasRead && cur.Read && s.unread > 0 {
			s.unread--
		}
		s.commit()
		return false
	}

	s.items = append([]Notification{n}, s.items...)
	if !n.Read {
		s.unread++
	}
	s.commit()
	return true
}

func merge(dst *Notification, src Notification) {
	if src.Type != "" {
		dst.Type = src.Type
	}
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Body != "" {
		dst.Body = src.Body
	}
	if src.Data != nil {
		dst.Data = src.Data
	}
	if src.CreatedAt != "" {
		dst.CreatedAt = src.CreatedAt
	}
	if src.AckState != AckNone {
		dst.AckState = src.AckState
	}
	if src.Read {
		// the server reported it read; nothing left to acknowledge
		dst.Read = true
		dst.AckState = AckCommitted
	}
}

// MarkAsRead flags id as read. It reports whether anything changed; an
// unknown or already-read id is a no-op.
func (s *Store) MarkAsRead(id string) bool {
	changed, _ := s.markRead(id, false)
	return changed
}

// beginAck marks id read and flags its acknowledgement pending in one
// step. wasUnread reports whether the read flag changed.
func (s *Store) beginAck(id string) (wasUnread, ok bool) {
	return s.markRead(id, true)
}

func (s *Store) markRead(id string, pending bool) (changed, found bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false, false
	}
	it := &s.items[i]
	if it.Read && !pending {
		s.mu.Unlock()
		return false, true
	}
	if !it.Read {
		it.Read = true
		changed = true
		if s.unread > 0 {
			s.unread--
		}
	}
	if pending {
		it.AckState = AckPending
	}
	s.commit()
	return changed, true
}

// MarkAllRead flags every item read and returns the ids that were unread.
func (s *Store) MarkAllRead() []string {
	return s.markAllRead(false)
}

// beginAckAll is MarkAllRead with the changed items flagged pending.
func (s *Store) beginAckAll() []string {
	return s.markAllRead(true)
}

func (s *Store) markAllRead(pending bool) []string {
	s.mu.Lock()
	var changed []string
	for i := range s.items {
		if !s.items[i].Read {
			s.items[i].Read = true
			if pending {
				s.items[i].AckState = AckPending
			}
			changed = append(changed, s.items[i].ID)
		}
	}
	if len(changed) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.unread = 0
	s.commit()
	return changed
}

// settleAck records the outcome of an acknowledgement begun by beginAck.
// Only an item still pending is touched: if the server already pushed the
// item as read, that state stands even when the request failed. A failed
// item goes back to unread when the acknowledgement had made it read.
func (s *Store) settleAck(id string, wasUnread, failed bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 || s.items[i].AckState != AckPending {
		s.mu.Unlock()
		return
	}
	it := &s.items[i]
	if !failed {
		it.AckState = AckCommitted
		s.commit()
		return
	}
	it.AckState = AckFailed
	if wasUnread && it.Read {
		it.Read = false
		s.unread++
	}
	s.commit()
}

// SetNotifications replaces the whole list. The new list is ordered newest
// first by CreatedAt and the unread counter is recounted. Later duplicates
// of an id are dropped.
func (s *Store) SetNotifications(list []Notification) {
	seen := make(map[string]bool, len(list))
	items := make([]Notification, 0, len(list))
	for _, n := range list {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		items = append(items, n)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})

	s.mu.Lock()
	s.items = items
	s.unread = s.countUnreadLocked()
	s.commit()
}

// RemoveNotification drops id and recounts unread items. It reports
// whether the id was present.
func (s *Store) RemoveNotification(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.unread = s.countUnreadLocked()
	s.commit()
	return true
}

func (s *Store) Get(id string) (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return Notification{}, false
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

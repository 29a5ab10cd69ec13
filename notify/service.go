package notify

import (
	"context"
	"log"
	"time"
)

// Archive persists notifications beyond the life of the process.
type Archive interface {
	Sink
	Delete(ctx context.Context, id string) error
	Load(ctx context.Context, limit int) ([]Notification, error)
}

// Service bundles the store with the live channel, the acknowledgement
// client and the optional archive.
type Service struct {
	Store   *Store
	Channel *Channel
	Acks    *Acknowledger
	Archive Archive
	Hub     *Hub
}

// Hydrate loads archived notifications into the store.
func (s *Service) Hydrate(ctx context.Context, limit int) error {
	if s.Archive == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	list, err := s.Archive.Load(ctx, limit)
	if err != nil {
		return err
	}
	s.Store.SetNotifications(list)
	log.Printf("✅ loaded %d archived notifications (%d unread)", len(list), s.Store.UnreadCount())
	return nil
}

// MarkRead acknowledges id and keeps the archive in step.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	if err := s.Acks.MarkRead(ctx, id); err != nil {
		return err
	}
	s.archive(ctx, id)
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context) error {
	if err := s.Acks.MarkAllRead(ctx); err != nil {
		return err
	}
	if s.Archive != nil {
		for _, n := range s.Store.Snapshot().Items {
			if err := s.Archive.Notified(ctx, n); err != nil {
				log.Printf("⚠️ archive %s: %v", n.ID, err)
			}
		}
	}
	return nil
}

// Remove drops id from the store and the archive.
func (s *Service) Remove(ctx context.Context, id string) error {
	if !s.Store.RemoveNotification(id) {
		return ErrNotFound
	}
	if s.Archive != nil {
		if err := s.Archive.Delete(ctx, id); err != nil {
			log.Printf("⚠️ archive delete %s: %v", id, err)
		}
	}
	return nil
}

func (s *Service) archive(ctx context.Context, id string) {
	if s.Archive == nil {
		return
	}
	n, ok := s.Store.Get(id)
	if !ok {
		return
	}
	if err := s.Archive.Notified(ctx, n); err != nil {
		log.Printf("⚠️ archive %s: %v", id, err)
	}
}

// Shutdown stops the channel first so no frame lands after the hub is gone.
func (s *Service) Shutdown() {
	if s.Channel != nil {
		s.Channel.Shutdown()
	}
	if s.Hub != nil {
		s.Hub.Stop()
	}
}

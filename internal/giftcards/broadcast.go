package giftcards

import (
	"sync"

	"github.com/richxcame/gift-wallet/pkg/logger"
	"go.uber.org/zap"
)

// subscriberBuffer bounds how far a consumer may lag before events are
// dropped for it.
const subscriberBuffer = 16

// UpdateHub is a process-wide multicast channel of gift-card updates.
// It lives for the whole process and has no replay: a late subscriber
// simply misses earlier events. Delivery is non-blocking; a subscriber
// that stops draining its channel loses events, not the other producers.
type UpdateHub struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}
}

// Subscription is one consumer's view of the hub. Read from C; call
// Cancel exactly once when done.
type Subscription struct {
	C chan GiftCard

	hub  *UpdateHub
	once sync.Once
}

// NewUpdateHub creates an empty hub.
func NewUpdateHub() *UpdateHub {
	return &UpdateHub{
		subscribers: make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a new consumer.
func (h *UpdateHub) Subscribe() *Subscription {
	sub := &Subscription{
		C:   make(chan GiftCard, subscriberBuffer),
		hub: h,
	}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Cancel removes the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subscribers, s)
		s.hub.mu.Unlock()
		close(s.C)
	})
}

// Publish delivers a card update to every current subscriber. Slow
// subscribers with a full buffer are skipped.
func (h *UpdateHub) Publish(card GiftCard) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		select {
		case sub.C <- card:
		default:
			logger.Warn("dropping card update for slow subscriber",
				zap.String("invoice_id", card.InvoiceID),
				zap.String("brand", card.Name),
			)
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (h *UpdateHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

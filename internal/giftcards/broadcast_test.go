package giftcards

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveCard(t *testing.T, sub *Subscription) GiftCard {
	t.Helper()
	select {
	case card := <-sub.C:
		return card
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for card update")
		return GiftCard{}
	}
}

func TestUpdateHub_PublishReachesAllSubscribers(t *testing.T) {
	hub := NewUpdateHub()
	first := hub.Subscribe()
	second := hub.Subscribe()
	defer first.Cancel()
	defer second.Cancel()

	card := GiftCard{InvoiceID: "inv1", Status: StatusSuccess}
	hub.Publish(card)

	assert.Equal(t, "inv1", receiveCard(t, first).InvoiceID)
	assert.Equal(t, "inv1", receiveCard(t, second).InvoiceID)
}

func TestUpdateHub_LateSubscriberMissesEarlierEvents(t *testing.T) {
	hub := NewUpdateHub()

	hub.Publish(GiftCard{InvoiceID: "early", Status: StatusSuccess})

	sub := hub.Subscribe()
	defer sub.Cancel()

	select {
	case card := <-sub.C:
		t.Fatalf("late subscriber received replayed event %q", card.InvoiceID)
	case <-time.After(50 * time.Millisecond):
	}

	hub.Publish(GiftCard{InvoiceID: "late", Status: StatusSuccess})
	assert.Equal(t, "late", receiveCard(t, sub).InvoiceID)
}

func TestUpdateHub_CancelStopsDelivery(t *testing.T) {
	hub := NewUpdateHub()
	sub := hub.Subscribe()
	require.Equal(t, 1, hub.SubscriberCount())

	sub.Cancel()
	assert.Equal(t, 0, hub.SubscriberCount())

	// The channel closes on cancel so range-based consumers exit.
	_, open := <-sub.C
	assert.False(t, open)

	// Cancel is safe to call twice.
	sub.Cancel()
}

func TestUpdateHub_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewUpdateHub()
	sub := hub.Subscribe()
	defer sub.Cancel()

	// Never read from sub; publishing past the buffer must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Publish(GiftCard{InvoiceID: "inv", Status: StatusSuccess})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

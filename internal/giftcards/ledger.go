package giftcards

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/richxcame/gift-wallet/pkg/logger"
)

var (
	ErrCardNotFound      = errors.New("gift card not found")
	ErrBrandNotSupported = errors.New("brand not supported")
)

// Ledger owns all persisted gift-card state: the brand-scoped card maps and
// the cross-brand active-card index. Every mutation goes through SaveCard,
// which serializes read-modify-write cycles per (brand, network) partition
// so concurrent saves never lose each other's entries.
type Ledger struct {
	store   Store
	hub     Broadcaster
	network string

	mu         sync.Mutex
	partitions map[string]*sync.Mutex
	indexMu    sync.Mutex
}

// NewLedger creates a ledger for the given network. Material card changes
// are published to hub after they persist.
func NewLedger(store Store, hub Broadcaster, network string) *Ledger {
	return &Ledger{
		store:      store,
		hub:        hub,
		network:    network,
		partitions: make(map[string]*sync.Mutex),
	}
}

// lockPartition acquires the per-brand mutation lock, creating it on first
// use, and returns the unlock func.
func (l *Ledger) lockPartition(brand string) func() {
	l.mu.Lock()
	partition, ok := l.partitions[brand]
	if !ok {
		partition = &sync.Mutex{}
		l.partitions[brand] = partition
	}
	l.mu.Unlock()

	partition.Lock()
	return partition.Unlock
}

// GetCardMap loads the brand-scoped card map; absent maps read as empty.
func (l *Ledger) GetCardMap(ctx context.Context, brand string) (map[string]GiftCard, error) {
	cards, err := l.store.GetCardMap(ctx, brand, l.network)
	if err != nil {
		return nil, err
	}
	if cards == nil {
		cards = make(map[string]GiftCard)
	}
	return cards, nil
}

// GetPurchasedCards returns the brand's cards joined with its config, with
// legacy records back-filled, sorted by descending purchase date.
func (l *Ledger) GetPurchasedCards(ctx context.Context, brand string) ([]GiftCard, error) {
	cardMap, err := l.GetCardMap(ctx, brand)
	if err != nil {
		return nil, err
	}

	base := offeredCardConfig(brand)
	cached, err := l.store.GetConfigCache(ctx, l.network)
	if err != nil {
		logger.WithContext(ctx).Warn("config cache read failed during join", zap.Error(err))
	}
	var api *ApiCardConfig
	if cfg, ok := cached[brand]; ok {
		api = &cfg
	}

	cards := make([]GiftCard, 0, len(cardMap))
	for _, card := range cardMap {
		cards = append(cards, backfillLegacyCard(card, base, api))
	}
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].Date > cards[j].Date
	})
	return cards, nil
}

// SaveCard is the sole mutation primitive. It read-modify-writes the brand
// map under the partition lock, applies opts (status/error merge, or
// removal), persists, and mirrors the change into the active-card index.
// Persistence failures propagate; swallowing one would desynchronize the
// brand map and the index.
func (l *Ledger) SaveCard(ctx context.Context, card GiftCard, opts *SaveParams) error {
	unlock := l.lockPartition(card.Name)
	defer unlock()

	cards, err := l.GetCardMap(ctx, card.Name)
	if err != nil {
		return err
	}

	merged := applySaveParams(card, cards[card.InvoiceID], opts)
	remove := opts != nil && opts.Remove
	if remove {
		delete(cards, card.InvoiceID)
	} else {
		cards[card.InvoiceID] = merged
	}

	if err := l.store.SetCardMap(ctx, card.Name, l.network, cards); err != nil {
		return err
	}
	return l.mirrorToIndex(ctx, merged, remove)
}

// SaveGiftCard wraps SaveCard with change detection: after the save lands,
// it publishes the card iff its status or archived flag actually changed
// and the card is past UNREDEEMED. Reconciliation passes that confirm "no
// change" therefore stay silent.
func (l *Ledger) SaveGiftCard(ctx context.Context, card GiftCard, opts *SaveParams) error {
	previous, err := l.GetCardMap(ctx, card.Name)
	if err != nil {
		return err
	}
	before, existed := previous[card.InvoiceID]

	if err := l.SaveCard(ctx, card, opts); err != nil {
		return err
	}

	after := applySaveParams(card, before, opts)
	changed := !existed || before.Status != after.Status || before.Archived != after.Archived
	if changed && after.Status != StatusUnredeemed {
		l.hub.Publish(after)
	}
	return nil
}

// ArchiveCard marks the card archived and saves it.
func (l *Ledger) ArchiveCard(ctx context.Context, card GiftCard) error {
	card.Archived = true
	return l.SaveGiftCard(ctx, card, nil)
}

// UnarchiveCard clears the archived flag and saves it.
func (l *Ledger) UnarchiveCard(ctx context.Context, card GiftCard) error {
	card.Archived = false
	return l.SaveGiftCard(ctx, card, nil)
}

// ArchiveAllCards archives every card of the brand in one map rewrite,
// drops the previously-active subset from the index, and publishes one
// event per card that was actually active.
func (l *Ledger) ArchiveAllCards(ctx context.Context, brand string) error {
	unlock := l.lockPartition(brand)
	defer unlock()

	cards, err := l.GetCardMap(ctx, brand)
	if err != nil {
		return err
	}

	var archived []GiftCard
	for id, card := range cards {
		wasActive := !card.Archived
		card.Archived = true
		cards[id] = card
		if wasActive {
			archived = append(archived, card)
		}
	}

	if err := l.store.SetCardMap(ctx, brand, l.network, cards); err != nil {
		return err
	}

	l.indexMu.Lock()
	index, err := l.store.GetActiveIndex(ctx, l.network)
	if err == nil && index != nil {
		for _, card := range archived {
			delete(index, card.InvoiceID)
		}
		err = l.store.SetActiveIndex(ctx, l.network, index)
	}
	l.indexMu.Unlock()
	if err != nil {
		return err
	}

	for _, card := range archived {
		l.hub.Publish(card)
	}
	return nil
}

// GetActiveCards reads the cross-brand index. On first run after upgrade
// the index does not exist yet; it is derived once from every brand's
// non-archived cards and persisted before returning.
func (l *Ledger) GetActiveCards(ctx context.Context) ([]GiftCard, error) {
	l.indexMu.Lock()
	defer l.indexMu.Unlock()

	index, err := l.store.GetActiveIndex(ctx, l.network)
	if err != nil {
		return nil, err
	}
	if index == nil {
		index, err = l.deriveActiveIndex(ctx)
		if err != nil {
			return nil, err
		}
	}

	cards := make([]GiftCard, 0, len(index))
	for _, card := range index {
		cards = append(cards, card)
	}
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].Date > cards[j].Date
	})
	return cards, nil
}

// deriveActiveIndex builds the index from the union of all brands'
// purchased, non-archived cards and persists it. One-time migration path;
// caller holds indexMu.
func (l *Ledger) deriveActiveIndex(ctx context.Context) (map[string]GiftCard, error) {
	index := make(map[string]GiftCard)
	for _, base := range offeredGiftCards {
		cards, err := l.GetCardMap(ctx, base.Name)
		if err != nil {
			return nil, err
		}
		for id, card := range cards {
			if !card.Archived {
				index[id] = card
			}
		}
	}
	if err := l.store.SetActiveIndex(ctx, l.network, index); err != nil {
		return nil, err
	}
	logger.WithContext(ctx).Info("derived active card index",
		zap.Int("cards", len(index)),
		zap.String("network", l.network))
	return index, nil
}

// mirrorToIndex applies the same merge to the active-card index. Archived
// and removed cards leave the index; everything else is upserted. Caller
// holds the partition lock for the card's brand.
func (l *Ledger) mirrorToIndex(ctx context.Context, card GiftCard, remove bool) error {
	l.indexMu.Lock()
	defer l.indexMu.Unlock()

	index, err := l.store.GetActiveIndex(ctx, l.network)
	if err != nil {
		return err
	}
	if index == nil {
		index = make(map[string]GiftCard)
	}

	if remove || card.Archived {
		delete(index, card.InvoiceID)
	} else {
		index[card.InvoiceID] = card
	}
	return l.store.SetActiveIndex(ctx, l.network, index)
}

// applySaveParams merges the save options into the incoming card and
// enforces status monotonicity: a terminal status is never downgraded back
// to PENDING or UNREDEEMED by a later save.
func applySaveParams(card, previous GiftCard, opts *SaveParams) GiftCard {
	if opts != nil {
		if opts.Status != "" {
			card.Status = opts.Status
		}
		if opts.Error != "" {
			card.Error = opts.Error
		}
	}
	if previous.Status.Terminal() &&
		(card.Status == StatusPending || card.Status == StatusUnredeemed) {
		card.Status = previous.Status
	}
	return card
}

// backfillLegacyCard fills fields that records persisted by older releases
// lack: the display brand and the currency from the brand config.
func backfillLegacyCard(card GiftCard, base *BaseCardConfig, api *ApiCardConfig) GiftCard {
	if card.Brand == "" && base != nil {
		card.Brand = base.DisplayName
	}
	if card.Currency == "" && api != nil {
		card.Currency = api.Currency
	}
	return card
}

// offeredCardConfig returns the static config for a brand, or nil when the
// brand is not offered.
func offeredCardConfig(brand string) *BaseCardConfig {
	for i := range offeredGiftCards {
		if offeredGiftCards[i].Name == brand {
			return &offeredGiftCards[i]
		}
	}
	return nil
}

package giftcards

import (
	"context"
	"sync"
)

// memoryStore is a thread-safe in-memory Store for tests.
type memoryStore struct {
	mu      sync.Mutex
	maps    map[string]map[string]GiftCard
	indexes map[string]map[string]GiftCard
	configs map[string]map[string]ApiCardConfig

	setMapCalls   int
	setIndexCalls int
	setCfgCalls   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		maps:    make(map[string]map[string]GiftCard),
		indexes: make(map[string]map[string]GiftCard),
		configs: make(map[string]map[string]ApiCardConfig),
	}
}

func mapKey(brand, network string) string {
	return network + ":" + brand
}

func cloneCards(cards map[string]GiftCard) map[string]GiftCard {
	if cards == nil {
		return nil
	}
	out := make(map[string]GiftCard, len(cards))
	for k, v := range cards {
		out[k] = v
	}
	return out
}

func (s *memoryStore) GetCardMap(ctx context.Context, brand, network string) (map[string]GiftCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCards(s.maps[mapKey(brand, network)]), nil
}

func (s *memoryStore) SetCardMap(ctx context.Context, brand, network string, cards map[string]GiftCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setMapCalls++
	s.maps[mapKey(brand, network)] = cloneCards(cards)
	return nil
}

func (s *memoryStore) GetActiveIndex(ctx context.Context, network string) (map[string]GiftCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCards(s.indexes[network]), nil
}

func (s *memoryStore) SetActiveIndex(ctx context.Context, network string, cards map[string]GiftCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setIndexCalls++
	s.indexes[network] = cloneCards(cards)
	return nil
}

func (s *memoryStore) GetConfigCache(ctx context.Context, network string) (map[string]ApiCardConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	configs := s.configs[network]
	if configs == nil {
		return nil, nil
	}
	out := make(map[string]ApiCardConfig, len(configs))
	for k, v := range configs {
		out[k] = v
	}
	return out, nil
}

func (s *memoryStore) SetConfigCache(ctx context.Context, network string, configs map[string]ApiCardConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCfgCalls++
	out := make(map[string]ApiCardConfig, len(configs))
	for k, v := range configs {
		out[k] = v
	}
	s.configs[network] = out
	return nil
}

// recordingHub collects published cards for assertions.
type recordingHub struct {
	mu        sync.Mutex
	published []GiftCard
}

func (h *recordingHub) Publish(card GiftCard) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.published = append(h.published, card)
}

func (h *recordingHub) events() []GiftCard {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]GiftCard, len(h.published))
	copy(out, h.published)
	return out
}

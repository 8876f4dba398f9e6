package giftcards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redisClient "github.com/richxcame/gift-wallet/pkg/redis"
)

const (
	cardMapKeyPrefix     = "giftcards:cards:"  // giftcards:cards:<network>:<brand>
	activeIndexKeyPrefix = "giftcards:active:" // giftcards:active:<network>
	configCacheKeyPrefix = "giftcards:config:" // giftcards:config:<network>

	// cardMapVersion is bumped whenever the persisted card shape changes in
	// a way decodeCardMap must migrate.
	cardMapVersion = 2
)

// storedCardMap is the versioned persistence envelope for card maps.
// Version 1 records were bare invoiceId-to-card JSON objects with no
// envelope; decodeCardMap still reads those.
type storedCardMap struct {
	Version int                 `json:"version"`
	Cards   map[string]GiftCard `json:"cards"`
}

// RedisStore implements Store on top of Redis. Values persist without TTL;
// gift cards outlive any session.
type RedisStore struct {
	redis *redisClient.Client
}

// NewRedisStore creates a gift-card store backed by the given client.
func NewRedisStore(redis *redisClient.Client) *RedisStore {
	return &RedisStore{redis: redis}
}

func cardMapKey(brand, network string) string {
	return cardMapKeyPrefix + network + ":" + brand
}

// GetCardMap loads the brand-scoped card map, or nil when none exists.
func (s *RedisStore) GetCardMap(ctx context.Context, brand, network string) (map[string]GiftCard, error) {
	return s.getMap(ctx, cardMapKey(brand, network))
}

// SetCardMap persists the brand-scoped card map.
func (s *RedisStore) SetCardMap(ctx context.Context, brand, network string, cards map[string]GiftCard) error {
	return s.setMap(ctx, cardMapKey(brand, network), cards)
}

// GetActiveIndex loads the cross-brand active-card index, or nil when it
// has never been populated.
func (s *RedisStore) GetActiveIndex(ctx context.Context, network string) (map[string]GiftCard, error) {
	return s.getMap(ctx, activeIndexKeyPrefix+network)
}

// SetActiveIndex persists the cross-brand active-card index.
func (s *RedisStore) SetActiveIndex(ctx context.Context, network string, cards map[string]GiftCard) error {
	return s.setMap(ctx, activeIndexKeyPrefix+network, cards)
}

// GetConfigCache loads the cached remote brand config, or nil when absent.
func (s *RedisStore) GetConfigCache(ctx context.Context, network string) (map[string]ApiCardConfig, error) {
	data, err := s.redis.GetBytes(ctx, configCacheKeyPrefix+network)
	if err != nil {
		if errors.Is(err, redisClient.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config cache: %w", err)
	}

	var configs map[string]ApiCardConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("decode config cache: %w", err)
	}
	return configs, nil
}

// SetConfigCache persists the remote brand config cache.
func (s *RedisStore) SetConfigCache(ctx context.Context, network string, configs map[string]ApiCardConfig) error {
	data, err := json.Marshal(configs)
	if err != nil {
		return fmt.Errorf("encode config cache: %w", err)
	}
	if err := s.redis.SetWithExpiration(ctx, configCacheKeyPrefix+network, data, 0); err != nil {
		return fmt.Errorf("write config cache: %w", err)
	}
	return nil
}

func (s *RedisStore) getMap(ctx context.Context, key string) (map[string]GiftCard, error) {
	data, err := s.redis.GetBytes(ctx, key)
	if err != nil {
		if errors.Is(err, redisClient.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	cards, err := decodeCardMap(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return cards, nil
}

func (s *RedisStore) setMap(ctx context.Context, key string, cards map[string]GiftCard) error {
	data, err := json.Marshal(storedCardMap{Version: cardMapVersion, Cards: cards})
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.redis.SetWithExpiration(ctx, key, data, 0); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// decodeCardMap reads a persisted card map, accepting both the current
// envelope and the legacy bare-map format.
func decodeCardMap(data []byte) (map[string]GiftCard, error) {
	var envelope storedCardMap
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Version > 0 {
		return envelope.Cards, nil
	}

	var legacy map[string]GiftCard
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}
	return legacy, nil
}

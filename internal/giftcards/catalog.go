package giftcards

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"

	"go.uber.org/zap"

	"github.com/richxcame/gift-wallet/pkg/logger"
)

// Catalog merges the static offered-brand list with remotely-fetched
// pricing and terms. It never depends on the ledger.
type Catalog struct {
	store   Store
	client  CatalogClient
	network string
}

// NewCatalog creates a brand-config catalog for the given network.
func NewCatalog(store Store, client CatalogClient, network string) *Catalog {
	return &Catalog{
		store:   store,
		client:  client,
		network: network,
	}
}

// GetOfferedCards returns the static list of brand configs the client
// ships with, sorted by display name.
func (c *Catalog) GetOfferedCards() []BaseCardConfig {
	offered := make([]BaseCardConfig, len(offeredGiftCards))
	copy(offered, offeredGiftCards)
	sort.Slice(offered, func(i, j int) bool {
		return offered[i].DisplayName < offered[j].DisplayName
	})
	return offered
}

// GetAvailableCards fetches the remote availability map, intersects it with
// the offered list by brand key, and merges in remote pricing and terms.
// A fetch failure returns the error with no cards; it is never fatal and
// callers decide whether to fall back to the cached config.
func (c *Catalog) GetAvailableCards(ctx context.Context) ([]CardConfig, error) {
	available, err := c.client.GetAvailableCardConfig(ctx)
	if err != nil {
		return nil, err
	}

	configs := make(map[string]ApiCardConfig, len(available))
	var merged []CardConfig
	for _, base := range c.GetOfferedCards() {
		cards, ok := available[base.Name]
		if !ok || len(cards) == 0 {
			continue
		}
		apiConfig := reduceApiCards(cards)
		configs[base.Name] = apiConfig
		merged = append(merged, CardConfig{BaseCardConfig: base, ApiCardConfig: apiConfig})
	}

	c.updateConfigCache(ctx, configs)
	return merged, nil
}

// GetSupportedCards returns the offered list enriched with live remote
// config when the fetch succeeds, or the cached config when it does not,
// so offline sessions still render brands.
func (c *Catalog) GetSupportedCards(ctx context.Context) []CardConfig {
	if available, err := c.GetAvailableCards(ctx); err == nil {
		return available
	} else {
		logger.WithContext(ctx).Warn("available cards fetch failed, falling back to cached config",
			zap.Error(err))
	}

	cached, err := c.store.GetConfigCache(ctx, c.network)
	if err != nil {
		logger.WithContext(ctx).Error("config cache read failed", zap.Error(err))
	}

	var supported []CardConfig
	for _, base := range c.GetOfferedCards() {
		apiConfig, ok := cached[base.Name]
		if !ok {
			continue
		}
		supported = append(supported, CardConfig{BaseCardConfig: base, ApiCardConfig: apiConfig})
	}
	return supported
}

// GetCardConfig returns the merged config for one brand, or nil when the
// brand is not currently supported.
func (c *Catalog) GetCardConfig(ctx context.Context, brand string) *CardConfig {
	for _, config := range c.GetSupportedCards(ctx) {
		if config.Name == brand {
			cfg := config
			return &cfg
		}
	}
	return nil
}

// updateConfigCache merges fresh remote config into the cached partition,
// writing only when the merged result actually differs.
func (c *Catalog) updateConfigCache(ctx context.Context, configs map[string]ApiCardConfig) {
	cached, err := c.store.GetConfigCache(ctx, c.network)
	if err != nil {
		logger.WithContext(ctx).Error("config cache read failed", zap.Error(err))
		return
	}

	merged := make(map[string]ApiCardConfig, len(cached)+len(configs))
	for brand, config := range cached {
		merged[brand] = config
	}
	for brand, config := range configs {
		merged[brand] = config
	}

	before, _ := json.Marshal(cached)
	after, _ := json.Marshal(merged)
	if bytes.Equal(before, after) {
		return
	}

	if err := c.store.SetConfigCache(ctx, c.network, merged); err != nil {
		logger.WithContext(ctx).Error("config cache write failed", zap.Error(err))
	}
}

// reduceApiCards collapses a brand's purchasable denominations into one
// ApiCardConfig: range cards contribute min/max bounds, fixed cards the
// discrete supported amounts.
func reduceApiCards(cards []ApiCard) ApiCardConfig {
	var config ApiCardConfig
	for _, card := range cards {
		if config.Currency == "" {
			config.Currency = card.Currency
		}
		if config.Description == "" {
			config.Description = card.Description
		}
		if config.Terms == "" {
			config.Terms = card.Terms
		}
		switch card.Type {
		case "range":
			config.MinAmount = card.MinAmount
			config.MaxAmount = card.MaxAmount
		default:
			config.SupportedAmounts = append(config.SupportedAmounts, card.Amount)
		}
	}
	sort.Float64s(config.SupportedAmounts)
	return config
}

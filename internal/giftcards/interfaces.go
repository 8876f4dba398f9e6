package giftcards

import (
	"context"
)

// Store defines the contract for durable gift-card persistence. Card maps
// are keyed by (brand, network), the active index and config cache by
// network alone. Readers return nil (not an error) when a key is absent.
type Store interface {
	// Brand-scoped card maps
	GetCardMap(ctx context.Context, brand, network string) (map[string]GiftCard, error)
	SetCardMap(ctx context.Context, brand, network string, cards map[string]GiftCard) error

	// Cross-brand active-card index
	GetActiveIndex(ctx context.Context, network string) (map[string]GiftCard, error)
	SetActiveIndex(ctx context.Context, network string, cards map[string]GiftCard) error

	// Remote brand config cache
	GetConfigCache(ctx context.Context, network string) (map[string]ApiCardConfig, error)
	SetConfigCache(ctx context.Context, network string, configs map[string]ApiCardConfig) error
}

// RedemptionClient exchanges an accessKey+invoiceId for a claim artifact.
type RedemptionClient interface {
	Redeem(ctx context.Context, card GiftCard) (*Redemption, error)
	Cancel(ctx context.Context, card GiftCard) error
}

// InvoiceClient creates and inspects purchase invoices.
type InvoiceClient interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*InvoiceResult, error)
	GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error)
}

// CatalogClient fetches the merchant's brand-availability map.
type CatalogClient interface {
	GetAvailableCardConfig(ctx context.Context) (AvailableCardMap, error)
}

// Broadcaster fans out material card changes to UI listeners.
type Broadcaster interface {
	Publish(card GiftCard)
}

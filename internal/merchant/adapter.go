package merchant

import (
	"github.com/richxcame/gift-wallet/internal/giftcards"
)

// Adapter describes one brand family's slice of the merchant API. Brands
// resolve to an adapter once at startup, never per call.
type Adapter interface {
	// APIPath is the URL segment the family's purchase, redeem and cancel
	// endpoints live under.
	APIPath() string
}

type amazonAdapter struct{}

func (amazonAdapter) APIPath() string { return "amazon-gift" }

type mercadoLibreAdapter struct{}

func (mercadoLibreAdapter) APIPath() string { return "mercado-libre-gift" }

type genericAdapter struct{}

func (genericAdapter) APIPath() string { return "gift-cards" }

// Registry maps brand keys to their adapters, with a generic fallback for
// every brand not explicitly bound.
type Registry struct {
	adapters map[string]Adapter
	fallback Adapter
}

// NewRegistry builds the brand bindings.
func NewRegistry() *Registry {
	amazon := amazonAdapter{}
	return &Registry{
		adapters: map[string]Adapter{
			giftcards.BrandAmazon:       amazon,
			giftcards.BrandAmazonJapan:  amazon,
			giftcards.BrandMercadoLibre: mercadoLibreAdapter{},
		},
		fallback: genericAdapter{},
	}
}

// ForBrand returns the adapter serving the brand.
func (r *Registry) ForBrand(brand string) Adapter {
	if adapter, ok := r.adapters[brand]; ok {
		return adapter
	}
	return r.fallback
}

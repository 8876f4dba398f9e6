package giftcards

import (
	"time"
)

// Status is the redemption lifecycle state of a gift card. The string values
// are wire and persistence values and must not change.
type Status string

const (
	StatusUnredeemed Status = "UNREDEEMED"
	StatusPending    Status = "PENDING"
	StatusSuccess    Status = "SUCCESS"
	StatusFailure    Status = "FAILURE"
	StatusExpired    Status = "expired"
	StatusInvalid    Status = "invalid"
)

// Terminal reports whether the status can never be upgraded again.
// Expired cards are removed rather than kept, FAILURE only retries within
// the 24-hour window, SUCCESS is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusExpired:
		return true
	}
	return false
}

// ClaimCodeType describes how a brand presents its redemption artifact.
type ClaimCodeType string

const (
	ClaimCodeTypeBarcode ClaimCodeType = "barcode"
	ClaimCodeTypeCode    ClaimCodeType = "code"
	ClaimCodeTypeLink    ClaimCodeType = "link"
)

// GiftCard is the central entity: one purchased card tracked from invoice
// creation to redemption.
type GiftCard struct {
	InvoiceID   string  `json:"invoiceId"`
	UUID        string  `json:"uuid"`
	Name        string  `json:"name"` // brand key, partitions persisted state
	Brand       string  `json:"brand,omitempty"`
	Currency    string  `json:"currency"`
	Amount      float64 `json:"amount"`
	Status      Status  `json:"status"`
	ClaimCode   string  `json:"claimCode,omitempty"`
	ClaimLink   string  `json:"claimLink,omitempty"`
	PIN         string  `json:"pin,omitempty"`
	Archived    bool    `json:"archived"`
	Date        int64   `json:"date"` // epoch millis
	InvoiceTime int64   `json:"invoiceTime,omitempty"`
	AccessKey   string  `json:"accessKey"`
	InvoiceURL  string  `json:"invoiceUrl"`
	Error       string  `json:"error,omitempty"`
}

// HasClaimArtifact reports whether the merchant has returned something the
// user can redeem.
func (g *GiftCard) HasClaimArtifact() bool {
	return g.ClaimCode != "" || g.ClaimLink != ""
}

// SaveParams adjusts a card entry during a save.
type SaveParams struct {
	Error  string
	Status Status
	Remove bool
}

// BaseCardConfig is the static, client-bundled part of a brand's config.
type BaseCardConfig struct {
	Brand                string        `json:"brand,omitempty"` // deprecated, display only
	DisplayName          string        `json:"displayName"`
	Name                 string        `json:"name"`
	DefaultClaimCodeType ClaimCodeType `json:"defaultClaimCodeType"`
	EmailRequired        bool          `json:"emailRequired"`
	HidePin              bool          `json:"hidePin,omitempty"`
	RedeemURL            string        `json:"redeemUrl,omitempty"`
	Website              string        `json:"website"`
}

// ApiCardConfig is the remotely-fetched part of a brand's config: pricing
// and terms.
type ApiCardConfig struct {
	Currency           string    `json:"currency"`
	Description        string    `json:"description,omitempty"`
	MinAmount          float64   `json:"minAmount,omitempty"`
	MaxAmount          float64   `json:"maxAmount,omitempty"`
	RedeemInstructions string    `json:"redeemInstructions,omitempty"`
	SupportedAmounts   []float64 `json:"supportedAmounts,omitempty"`
	Terms              string    `json:"terms,omitempty"`
}

// CardConfig is the merged brand configuration.
type CardConfig struct {
	BaseCardConfig
	ApiCardConfig
}

// SupportsAmount reports whether the brand sells a card of the given value.
func (c *CardConfig) SupportsAmount(amount float64) bool {
	if len(c.SupportedAmounts) > 0 {
		for _, a := range c.SupportedAmounts {
			if a == amount {
				return true
			}
		}
		return false
	}
	if c.MinAmount > 0 && amount < c.MinAmount {
		return false
	}
	if c.MaxAmount > 0 && amount > c.MaxAmount {
		return false
	}
	return amount > 0
}

// ApiCard is one purchasable denomination as the merchant API reports it.
type ApiCard struct {
	Amount      float64 `json:"amount,omitempty"`
	Currency    string  `json:"currency"`
	Description string  `json:"description,omitempty"`
	MinAmount   float64 `json:"minAmount,omitempty"`
	MaxAmount   float64 `json:"maxAmount,omitempty"`
	Terms       string  `json:"terms,omitempty"`
	Type        string  `json:"type"` // "fixed" or "range"
}

// AvailableCardMap is the merchant's brand-availability response.
type AvailableCardMap map[string][]ApiCard

// Invoice is the payment invoice backing a card purchase. Only the fields
// the lifecycle needs are modeled.
type Invoice struct {
	ID              string                 `json:"id"`
	Status          string                 `json:"status"`
	URL             string                 `json:"url"`
	Price           float64                `json:"price,omitempty"`
	Currency        string                 `json:"currency,omitempty"`
	InvoiceTime     int64                  `json:"invoiceTime,omitempty"`
	ExpirationTime  int64                  `json:"expirationTime,omitempty"`
	MinerFees       map[string]interface{} `json:"minerFees,omitempty"`
	ExceptionStatus interface{}            `json:"exceptionStatus,omitempty"`
}

// Invoice statuses as the merchant API reports them.
const (
	InvoiceStatusNew       = "new"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusConfirmed = "confirmed"
	InvoiceStatusComplete  = "complete"
	InvoiceStatusExpired   = "expired"
	InvoiceStatusInvalid   = "invalid"
)

// InvoiceRequest is the payload for creating a purchase invoice.
type InvoiceRequest struct {
	Brand                            string  `json:"brand"`
	Currency                         string  `json:"currency"`
	Amount                           float64 `json:"amount"`
	ClientID                         string  `json:"clientId"`
	Email                            string  `json:"email,omitempty"`
	BuyerSelectedTransactionCurrency string  `json:"buyerSelectedTransactionCurrency,omitempty"`
}

// InvoiceResult is the merchant's response to invoice creation.
type InvoiceResult struct {
	AccessKey     string  `json:"accessKey"`
	InvoiceID     string  `json:"invoiceId"`
	Invoice       Invoice `json:"invoice"`
	TotalDiscount float64 `json:"totalDiscount,omitempty"`
}

// Redemption is the merchant's response to a redeem call: either claim
// artifacts on success or a normalized still-pending status.
type Redemption struct {
	Status      Status `json:"status"`
	ClaimCode   string `json:"claimCode,omitempty"`
	ClaimLink   string `json:"claimLink,omitempty"`
	PIN         string `json:"pin,omitempty"`
	InvoiceTime int64  `json:"invoiceTime,omitempty"`
}

// NowMillis returns the current wall clock in epoch milliseconds, the unit
// GiftCard.Date uses.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// WithinPastDay reports whether an epoch-millisecond timestamp falls inside
// the 24-hour FAILURE retry window.
func WithinPastDay(millis int64) bool {
	return time.Since(time.UnixMilli(millis)) < 24*time.Hour
}

package merchant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/richxcame/gift-wallet/internal/giftcards"
	"github.com/richxcame/gift-wallet/pkg/config"
	"github.com/richxcame/gift-wallet/pkg/httpclient"
	"github.com/richxcame/gift-wallet/pkg/resilience"
)

// pendingMessages are merchant error payloads that actually mean "not done
// yet". This string matching is a wire contract with the merchant API, not
// a heuristic of ours.
var pendingMessages = []string{
	"Card creation delayed, try again in a few minutes",
	"Invoice is unpaid or payment has not confirmed",
}

const settleMessageFragment = "Please wait for this invoice to settle"

// Client talks to the BitPay gift-card API. It implements the redemption,
// invoice and catalog contracts the gift-card core depends on.
type Client struct {
	http     *httpclient.Client
	registry *Registry
	breaker  *resilience.CircuitBreaker
}

// NewClient builds a merchant client for the configured network.
func NewClient(cfg config.BitPayConfig, registry *Registry) *Client {
	retry := resilience.DefaultRetryConfig()
	if cfg.RetryAttempts > 0 {
		retry.MaxAttempts = cfg.RetryAttempts
	}

	httpClient := httpclient.NewClient(
		cfg.APIURL(),
		time.Duration(cfg.RequestTimeout)*time.Second,
	)
	httpclient.WithRetry(retry)(httpClient)

	breaker := resilience.NewCircuitBreaker(
		resilience.BuildSettings("bitpay", 60, 30, 5, 1),
		resilience.GracefulDegradation("bitpay"),
	)

	return &Client{
		http:     httpClient,
		registry: registry,
		breaker:  breaker,
	}
}

type redeemRequest struct {
	ClientID  string `json:"clientId"`
	InvoiceID string `json:"invoiceId"`
	AccessKey string `json:"accessKey"`
}

type redeemResponse struct {
	Status      string `json:"status,omitempty"`
	ClaimCode   string `json:"claimCode,omitempty"`
	ClaimLink   string `json:"claimLink,omitempty"`
	PIN         string `json:"pin,omitempty"`
	InvoiceTime int64  `json:"invoiceTime,omitempty"`
}

// Redeem exchanges the card's access key for its claim artifact. Error
// payloads that mean "still pending" come back as a PENDING redemption
// rather than an error.
func (c *Client) Redeem(ctx context.Context, card giftcards.GiftCard) (*giftcards.Redemption, error) {
	path := fmt.Sprintf("/%s/redeem", c.registry.ForBrand(card.Name).APIPath())
	req := redeemRequest{
		ClientID:  card.UUID,
		InvoiceID: card.InvoiceID,
		AccessKey: card.AccessKey,
	}

	body, err := c.post(ctx, path, req)
	if err != nil {
		if isPendingError(err) {
			return &giftcards.Redemption{Status: giftcards.StatusPending}, nil
		}
		return nil, err
	}

	var resp redeemResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode redeem response: %w", err)
	}
	return normalizeRedemption(resp), nil
}

// Cancel voids an unredeemed card's invoice.
func (c *Client) Cancel(ctx context.Context, card giftcards.GiftCard) error {
	path := fmt.Sprintf("/%s/cancel", c.registry.ForBrand(card.Name).APIPath())
	_, err := c.post(ctx, path, redeemRequest{
		ClientID:  card.UUID,
		InvoiceID: card.InvoiceID,
		AccessKey: card.AccessKey,
	})
	return err
}

// CreateInvoice starts a card purchase and returns the invoice plus the
// access key that later authorizes redemption.
func (c *Client) CreateInvoice(ctx context.Context, req giftcards.InvoiceRequest) (*giftcards.InvoiceResult, error) {
	path := fmt.Sprintf("/%s/pay", c.registry.ForBrand(req.Brand).APIPath())

	body, err := c.post(ctx, path, req)
	if err != nil {
		return nil, err
	}

	var result giftcards.InvoiceResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode invoice result: %w", err)
	}
	return &result, nil
}

// GetInvoice fetches one invoice by id.
func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (*giftcards.Invoice, error) {
	body, err := c.get(ctx, "/invoices/"+invoiceID)
	if err != nil {
		return nil, err
	}

	// The invoice endpoint wraps its payload in {"data": ...}.
	var wrapper struct {
		Data *giftcards.Invoice `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Data != nil {
		return wrapper.Data, nil
	}

	var invoice giftcards.Invoice
	if err := json.Unmarshal(body, &invoice); err != nil {
		return nil, fmt.Errorf("decode invoice: %w", err)
	}
	return &invoice, nil
}

// GetAvailableCardConfig fetches the brand-availability map.
func (c *Client) GetAvailableCardConfig(ctx context.Context) (giftcards.AvailableCardMap, error) {
	body, err := c.get(ctx, "/gift-cards/cards")
	if err != nil {
		return nil, err
	}

	var available giftcards.AvailableCardMap
	if err := json.Unmarshal(body, &available); err != nil {
		return nil, fmt.Errorf("decode available cards: %w", err)
	}
	return available, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	result, err := c.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return c.http.Get(ctx, path, nil)
	})
	if err != nil {
		return nil, err
	}
	body, _ := result.([]byte)
	return body, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	result, err := c.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return c.http.Post(ctx, path, payload, nil)
	})
	if err != nil {
		return nil, err
	}
	body, _ := result.([]byte)
	return body, nil
}

// normalizeRedemption maps the merchant's mixed response vocabulary onto
// card statuses. A claim artifact always wins.
func normalizeRedemption(resp redeemResponse) *giftcards.Redemption {
	redemption := &giftcards.Redemption{
		ClaimCode:   resp.ClaimCode,
		ClaimLink:   resp.ClaimLink,
		PIN:         resp.PIN,
		InvoiceTime: resp.InvoiceTime,
	}

	switch {
	case resp.ClaimCode != "" || resp.ClaimLink != "":
		redemption.Status = giftcards.StatusSuccess
	case resp.Status == "new" || resp.Status == "paid" || resp.Status == string(giftcards.StatusPending):
		redemption.Status = giftcards.StatusPending
	case resp.Status == string(giftcards.StatusExpired):
		redemption.Status = giftcards.StatusExpired
	case resp.Status == string(giftcards.StatusInvalid):
		redemption.Status = giftcards.StatusInvalid
	default:
		redemption.Status = giftcards.StatusFailure
	}
	return redemption
}

// isPendingError reports whether an HTTP error payload is one of the known
// "still pending" messages.
func isPendingError(err error) bool {
	var httpErr *httpclient.HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}

	message := extractMessage(httpErr.Body)
	if strings.Contains(message, settleMessageFragment) {
		return true
	}
	for _, pending := range pendingMessages {
		if message == pending {
			return true
		}
	}
	return false
}

// extractMessage pulls the message field out of a JSON error body, falling
// back to the raw body for plain-text responses.
func extractMessage(body string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(body)
}

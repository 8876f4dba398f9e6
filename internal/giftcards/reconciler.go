package giftcards

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/richxcame/gift-wallet/pkg/logger"
)

// defaultRedeemTimeout bounds each merchant call so a hung request never
// stalls the whole reconciliation pass.
const defaultRedeemTimeout = 5 * time.Second

// Reconciler drives stale cards toward a terminal status: filter, redeem
// concurrently, disambiguate ambiguous responses against the invoice, then
// merge-persist through the ledger. It never discovers cards itself; the
// caller supplies the set to reconcile.
type Reconciler struct {
	ledger   *Ledger
	redeemer RedemptionClient
	invoices InvoiceClient
	timeout  time.Duration
}

// NewReconciler creates a reconciler with the default per-call timeout.
func NewReconciler(ledger *Ledger, redeemer RedemptionClient, invoices InvoiceClient) *Reconciler {
	return &Reconciler{
		ledger:   ledger,
		redeemer: redeemer,
		invoices: invoices,
		timeout:  defaultRedeemTimeout,
	}
}

// NeedsUpdate reports whether a reconciliation pass should touch the card.
// PENDING, UNREDEEMED and invalid cards always qualify; FAILURE retries
// only within 24 hours of purchase; SUCCESS qualifies only if the claim
// artifact somehow never landed; expired cards are done.
func NeedsUpdate(card GiftCard) bool {
	switch card.Status {
	case StatusPending, StatusUnredeemed, StatusInvalid:
		return true
	case StatusFailure:
		return WithinPastDay(card.Date)
	case StatusSuccess:
		return !card.HasClaimArtifact()
	default:
		return false
	}
}

// UpdatePendingCards reconciles every stale card in the given set and
// streams the resulting cards on the returned channel, which closes when
// the pass completes. Redemptions run concurrently; one failing card never
// blocks the others.
func (r *Reconciler) UpdatePendingCards(ctx context.Context, cards []GiftCard) <-chan GiftCard {
	var pending []GiftCard
	for _, card := range cards {
		if NeedsUpdate(card) {
			pending = append(pending, card)
		}
	}

	results := make(chan GiftCard, len(pending))
	var wg sync.WaitGroup
	for _, card := range pending {
		wg.Add(1)
		go func(card GiftCard) {
			defer wg.Done()
			results <- r.reconcileCard(ctx, card)
		}(card)
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

// reconcileCard runs one card through redeem, disambiguation and persist.
func (r *Reconciler) reconcileCard(ctx context.Context, card GiftCard) GiftCard {
	updated := r.redeemCard(ctx, card)

	// A response without a claim artifact is ambiguous between "still
	// pending" and "invoice expired before payment"; the invoice itself
	// settles it.
	if updated.Status == StatusUnredeemed || updated.Status == StatusPending {
		updated = r.disambiguate(ctx, updated)
	}

	if err := r.persist(ctx, card, updated); err != nil {
		logger.WithContext(ctx).Error("reconciled card persist failed",
			zap.String("invoice_id", card.InvoiceID),
			zap.String("brand", card.Name),
			zap.Error(err))
	}
	return updated
}

// redeemCard calls the merchant and folds the response into the card. A
// transport or API failure downgrades just this card to FAILURE.
func (r *Reconciler) redeemCard(ctx context.Context, card GiftCard) GiftCard {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	redemption, err := r.redeemer.Redeem(callCtx, card)
	if err != nil {
		logger.WithContext(ctx).Warn("redemption failed",
			zap.String("invoice_id", card.InvoiceID),
			zap.String("brand", card.Name),
			zap.Error(err))
		card.Status = StatusFailure
		return card
	}

	card.Status = redemption.Status
	if redemption.ClaimCode != "" {
		card.ClaimCode = redemption.ClaimCode
	}
	if redemption.ClaimLink != "" {
		card.ClaimLink = redemption.ClaimLink
	}
	if redemption.PIN != "" {
		card.PIN = redemption.PIN
	}
	if redemption.InvoiceTime != 0 {
		card.InvoiceTime = redemption.InvoiceTime
	}
	return card
}

// disambiguate classifies a still-ambiguous card by its invoice: an
// expired invoice means the card will never redeem, anything else is
// still pending. An invoice-fetch failure counts as a redemption failure.
func (r *Reconciler) disambiguate(ctx context.Context, card GiftCard) GiftCard {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	invoice, err := r.invoices.GetInvoice(callCtx, card.InvoiceID)
	if err != nil {
		logger.WithContext(ctx).Warn("invoice fetch failed during disambiguation",
			zap.String("invoice_id", card.InvoiceID),
			zap.Error(err))
		card.Status = StatusFailure
		return card
	}

	if invoice.Status == InvoiceStatusExpired {
		card.Status = StatusExpired
	} else {
		card.Status = StatusPending
	}
	return card
}

// persist writes the reconciled card back through the ledger. Expired
// cards are removed outright; a card that came back byte-for-byte the
// same is not rewritten.
func (r *Reconciler) persist(ctx context.Context, before, after GiftCard) error {
	if after.Status == StatusExpired {
		return r.ledger.SaveGiftCard(ctx, after, &SaveParams{Status: StatusExpired, Remove: true})
	}
	if after == before {
		return nil
	}
	return r.ledger.SaveGiftCard(ctx, after, nil)
}

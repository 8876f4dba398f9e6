package giftcards

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richxcame/gift-wallet/pkg/common"
	"github.com/richxcame/gift-wallet/pkg/logger"
	"github.com/richxcame/gift-wallet/pkg/middleware"
)

// Handler handles HTTP requests for gift cards
type Handler struct {
	ledger     *Ledger
	catalog    *Catalog
	reconciler *Reconciler
	invoices   InvoiceClient
	redeemer   RedemptionClient
	hub        *UpdateHub
}

// NewHandler creates a new gift-card handler
func NewHandler(ledger *Ledger, catalog *Catalog, reconciler *Reconciler, invoices InvoiceClient, redeemer RedemptionClient, hub *UpdateHub) *Handler {
	return &Handler{
		ledger:     ledger,
		catalog:    catalog,
		reconciler: reconciler,
		invoices:   invoices,
		redeemer:   redeemer,
		hub:        hub,
	}
}

// RegisterRoutes mounts the gift-card API under the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/brands", h.ListBrands)

	cards := rg.Group("/cards")
	cards.GET("", h.ListPurchasedCards)
	cards.GET("/active", h.ListActiveCards)
	cards.GET("/updates", h.StreamUpdates)
	cards.POST("", h.PurchaseCard)
	cards.POST("/reconcile", h.ReconcileCards)
	cards.POST("/archive-all", h.ArchiveAllCards)
	cards.POST("/:invoiceId/archive", h.ArchiveCard)
	cards.POST("/:invoiceId/unarchive", h.UnarchiveCard)
	cards.POST("/:invoiceId/cancel", h.CancelCard)
}

// ListBrands returns the currently supported brand configs.
func (h *Handler) ListBrands(c *gin.Context) {
	common.SuccessResponse(c, h.catalog.GetSupportedCards(c.Request.Context()))
}

// ListPurchasedCards returns one brand's purchased cards, newest first.
func (h *Handler) ListPurchasedCards(c *gin.Context) {
	brand := c.Query("brand")
	if brand == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "brand is required")
		return
	}

	cards, err := h.ledger.GetPurchasedCards(c.Request.Context(), brand)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load purchased cards")
		return
	}
	common.SuccessResponse(c, cards)
}

// ListActiveCards returns every non-archived card across brands.
func (h *Handler) ListActiveCards(c *gin.Context) {
	cards, err := h.ledger.GetActiveCards(c.Request.Context())
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load active cards")
		return
	}
	common.SuccessResponse(c, cards)
}

// PurchaseRequest is the payload for buying a new card.
type PurchaseRequest struct {
	Brand    string  `json:"brand" validate:"required"`
	Currency string  `json:"currency" validate:"required,iso4217"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Email    string  `json:"email" validate:"omitempty,email"`
}

// PurchaseCard creates a purchase invoice and records the card as
// UNREDEEMED. The caller pays the returned invoice; a later reconciliation
// pass picks the card up from there.
func (h *Handler) PurchaseCard(c *gin.Context) {
	var req PurchaseRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	config := h.catalog.GetCardConfig(ctx, req.Brand)
	if config == nil {
		common.ErrorResponse(c, http.StatusBadRequest, ErrBrandNotSupported.Error())
		return
	}
	if config.EmailRequired && req.Email == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "email is required for this brand")
		return
	}
	if !config.SupportsAmount(req.Amount) {
		common.ErrorResponse(c, http.StatusBadRequest, "amount not supported for this brand")
		return
	}

	clientID := uuid.New().String()
	result, err := h.invoices.CreateInvoice(ctx, InvoiceRequest{
		Brand:    req.Brand,
		Currency: req.Currency,
		Amount:   req.Amount,
		ClientID: clientID,
		Email:    req.Email,
	})
	if err != nil {
		logger.WithContext(ctx).Error("invoice creation failed",
			zap.String("brand", req.Brand),
			zap.Error(err))
		common.ErrorResponse(c, http.StatusBadGateway, "failed to create invoice")
		return
	}

	card := GiftCard{
		InvoiceID:   result.InvoiceID,
		UUID:        clientID,
		Name:        req.Brand,
		Brand:       config.DisplayName,
		Currency:    req.Currency,
		Amount:      req.Amount,
		Status:      StatusUnredeemed,
		Date:        NowMillis(),
		InvoiceTime: result.Invoice.InvoiceTime,
		AccessKey:   result.AccessKey,
		InvoiceURL:  result.Invoice.URL,
	}
	if err := h.ledger.SaveGiftCard(ctx, card, nil); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to save card")
		return
	}
	common.CreatedResponse(c, card)
}

// ReconcileCards runs a reconciliation pass over every active card and
// returns the cards the pass touched.
func (h *Handler) ReconcileCards(c *gin.Context) {
	ctx := c.Request.Context()
	active, err := h.ledger.GetActiveCards(ctx)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load active cards")
		return
	}

	updated := make([]GiftCard, 0)
	for card := range h.reconciler.UpdatePendingCards(ctx, active) {
		updated = append(updated, card)
	}
	common.SuccessResponse(c, updated)
}

// ArchiveRequest names the brand for a whole-brand archive.
type ArchiveRequest struct {
	Brand string `json:"brand" validate:"required"`
}

// ArchiveAllCards archives every card of one brand.
func (h *Handler) ArchiveAllCards(c *gin.Context) {
	var req ArchiveRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	if err := h.ledger.ArchiveAllCards(c.Request.Context(), req.Brand); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to archive cards")
		return
	}
	common.SuccessResponse(c, gin.H{"brand": req.Brand})
}

// ArchiveCard archives one card.
func (h *Handler) ArchiveCard(c *gin.Context) {
	card, ok := h.findCard(c)
	if !ok {
		return
	}
	if err := h.ledger.ArchiveCard(c.Request.Context(), card); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to archive card")
		return
	}
	card.Archived = true
	common.SuccessResponse(c, card)
}

// UnarchiveCard restores one archived card.
func (h *Handler) UnarchiveCard(c *gin.Context) {
	card, ok := h.findCard(c)
	if !ok {
		return
	}
	if err := h.ledger.UnarchiveCard(c.Request.Context(), card); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to unarchive card")
		return
	}
	card.Archived = false
	common.SuccessResponse(c, card)
}

// CancelCard voids a card's invoice before redemption and archives the
// entry. Cards that already redeemed cannot be canceled.
func (h *Handler) CancelCard(c *gin.Context) {
	card, ok := h.findCard(c)
	if !ok {
		return
	}
	if card.Status != StatusUnredeemed && card.Status != StatusPending {
		common.ErrorResponse(c, http.StatusConflict, "card can no longer be canceled")
		return
	}

	ctx := c.Request.Context()
	if err := h.redeemer.Cancel(ctx, card); err != nil {
		logger.WithContext(ctx).Error("cancel failed",
			zap.String("invoice_id", card.InvoiceID),
			zap.Error(err))
		common.ErrorResponse(c, http.StatusBadGateway, "failed to cancel invoice")
		return
	}
	if err := h.ledger.ArchiveCard(ctx, card); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to archive canceled card")
		return
	}
	common.SuccessResponse(c, gin.H{"invoiceId": card.InvoiceID})
}

// StreamUpdates streams material card changes as server-sent events until
// the client disconnects. Late subscribers miss earlier events.
func (h *Handler) StreamUpdates(c *gin.Context) {
	sub := h.hub.Subscribe()
	defer sub.Cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case card, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("card", card)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// findCard resolves the card named by the invoiceId path param and brand
// query param, responding with the appropriate error when it cannot.
func (h *Handler) findCard(c *gin.Context) (GiftCard, bool) {
	brand := c.Query("brand")
	if brand == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "brand is required")
		return GiftCard{}, false
	}

	cards, err := h.ledger.GetCardMap(c.Request.Context(), brand)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load cards")
		return GiftCard{}, false
	}

	card, ok := cards[c.Param("invoiceId")]
	if !ok {
		common.ErrorResponse(c, http.StatusNotFound, ErrCardNotFound.Error())
		return GiftCard{}, false
	}
	return card, true
}

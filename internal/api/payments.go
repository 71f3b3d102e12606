package api

import (
	"errors"
	"net/http"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/service"
	"photolab_miniapp/pkg/auth"
	"photolab_miniapp/pkg/logger"
	"photolab_miniapp/pkg/tbank"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type paymentRoutes struct {
	ps service.PaymentServiceI
}

// NewPaymentRoutes registers user payment endpoints under the auth
// middleware plus the provider webhook, which stays outside of it: T-Bank
// authenticates by notification token, not initData.
func NewPaymentRoutes(handler *gin.RouterGroup, ps service.PaymentServiceI, a *auth.TelegramAuth, limit gin.HandlerFunc) {
	r := &paymentRoutes{ps: ps}

	h := handler.Group("/payment")
	h.POST("/webhook", r.Webhook)

	authed := h.Group("")
	authed.Use(a.TelegramAuthMiddleware())
	if limit != nil {
		authed.Use(limit)
	}
	{
		authed.GET("/tiers", r.GetTiers)
		authed.POST("/create", r.CreatePayment)
		authed.GET("/:order_id/status", r.GetPaymentStatus)
	}
}

func (r *paymentRoutes) GetTiers(c *gin.Context) {
	tiers := r.ps.Tiers()

	out := make([]gin.H, len(tiers))
	for i, t := range tiers {
		out[i] = gin.H{
			"name":        t.Name,
			"photos":      t.Photos,
			"price_rub":   t.PriceRUB,
			"price_stars": t.PriceStars,
			"price_nano":  t.PriceNano,
			"description": t.Description,
		}
	}

	c.JSON(http.StatusOK, out)
}

type CreatePaymentRequest struct {
	Tier   string `json:"tier" binding:"required"`
	Method string `json:"method" binding:"required"`
	PackID string `json:"pack_id" binding:"required"`
}

func (r *paymentRoutes) CreatePayment(c *gin.Context) {
	log := logger.Logger()

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	link, err := r.ps.CreatePayment(c.Request.Context(), user.ID, req.Tier,
		model.PaymentMethod(req.Method), req.PackID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownTier),
			errors.Is(err, service.ErrUnknownMethod),
			errors.Is(err, service.ErrPackInactive):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrPackNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrMethodNotConfigured):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			log.Error("failed to create payment", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create payment"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id":    link.OrderID,
		"method":      link.Method,
		"payment_url": link.PaymentURL,
		"qr_payload":  link.QRPayload,
		"ton_address": link.TONAddress,
		"ton_comment": link.TONComment,
		"amount":      link.Amount,
		"currency":    link.Currency,
	})
}

func (r *paymentRoutes) GetPaymentStatus(c *gin.Context) {
	log := logger.Logger()

	orderID := c.Param("order_id")

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	p, err := r.ps.GetPayment(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}

	if p.UserTelegramID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id": p.OrderID,
		"tier":     p.Tier,
		"method":   p.Method,
		"amount":   p.Amount,
		"currency": p.Currency,
		"status":   p.Status,
		"paid_at":  p.PaidAt,
	})
}

// Webhook handles T-Bank payment notifications. The provider keeps
// retrying until it receives the literal body "OK", so handled replays
// answer OK as well.
func (r *paymentRoutes) Webhook(c *gin.Context) {
	log := logger.Logger()

	var n tbank.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		log.Error("failed to bind webhook notification", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification"})
		return
	}

	err := r.ps.HandleTBankNotification(c.Request.Context(), &n)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSignature):
			log.Warn("webhook with invalid signature", zap.String("order_id", n.OrderID))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
		case errors.Is(err, service.ErrAmountMismatch):
			log.Warn("webhook with mismatched amount",
				zap.String("order_id", n.OrderID),
				zap.Int64("amount", n.Amount))
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount mismatch"})
		case errors.Is(err, service.ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		default:
			log.Error("failed to process webhook", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.String(http.StatusOK, "OK")
}

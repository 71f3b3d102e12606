package api

import (
	"errors"
	"net/http"

	"photolab_miniapp/internal/service"
	"photolab_miniapp/pkg/auth"
	"photolab_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type referralRoutes struct {
	rs service.ReferralServiceI
}

func NewReferralRoutes(handler *gin.RouterGroup, rs service.ReferralServiceI, a *auth.TelegramAuth, limit gin.HandlerFunc) {
	r := &referralRoutes{rs: rs}
	h := handler.Group("/referral")
	h.Use(a.TelegramAuthMiddleware())
	if limit != nil {
		h.Use(limit)
	}
	{
		h.GET("/stats", r.GetStats)
		h.GET("/earnings", r.GetEarnings)
		h.POST("/withdraw", r.Withdraw)
		h.GET("/withdrawals", r.GetWithdrawals)
	}
}

func (r *referralRoutes) GetStats(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	stats, err := r.rs.GetStats(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not registered"})
			return
		}
		log.Error("failed to get referral stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referral stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referrals":      stats.Referrals,
		"paid_referrals": stats.PaidReferrals,
		"total_earned":   stats.TotalEarned,
		"available":      stats.Available,
		"pending":        stats.Pending,
		"withdrawn":      stats.Withdrawn,
	})
}

func (r *referralRoutes) GetEarnings(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	earnings, err := r.rs.ListEarnings(c.Request.Context(), user.ID)
	if err != nil {
		log.Error("failed to list earnings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list earnings"})
		return
	}

	out := make([]gin.H, len(earnings))
	for i, e := range earnings {
		out[i] = gin.H{
			"referred_handle": e.ReferredHandle,
			"payment_amount":  e.PaymentAmount,
			"percent":         e.Percent,
			"amount":          e.Amount,
			"created_at":      e.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

type WithdrawRequest struct {
	Amount      int64  `json:"amount" binding:"required"`
	Destination string `json:"destination" binding:"required"`
}

func (r *referralRoutes) Withdraw(c *gin.Context) {
	log := logger.Logger()

	var req WithdrawRequest
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

	w, err := r.rs.Withdraw(c.Request.Context(), user.ID, req.Amount, req.Destination)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBelowMinimumAmount),
			errors.Is(err, service.ErrInsufficientEarnings):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not registered"})
		default:
			log.Error("failed to create withdrawal", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create withdrawal"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":     w.ID,
		"amount": w.Amount,
		"tax":    w.Tax,
		"net":    w.Net,
		"status": w.Status,
	})
}

func (r *referralRoutes) GetWithdrawals(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	withdrawals, err := r.rs.ListMyWithdrawals(c.Request.Context(), user.ID)
	if err != nil {
		log.Error("failed to list withdrawals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list withdrawals"})
		return
	}

	out := make([]gin.H, len(withdrawals))
	for i, w := range withdrawals {
		out[i] = gin.H{
			"id":          w.ID,
			"amount":      w.Amount,
			"tax":         w.Tax,
			"net":         w.Net,
			"destination": w.Destination,
			"status":      w.Status,
			"created_at":  w.CreatedAt,
			"resolved_at": w.ResolvedAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

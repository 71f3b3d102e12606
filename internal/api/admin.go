package api

import (
	"errors"
	"net/http"
	"strconv"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/service"
	"photolab_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type adminRoutes struct {
	us service.UserServiceI
	rs service.ReferralServiceI
}

// NewAdminRoutes registers dashboard endpoints under an already-guarded
// admin group.
func NewAdminRoutes(handler *gin.RouterGroup, us service.UserServiceI, rs service.ReferralServiceI) {
	r := &adminRoutes{us: us, rs: rs}
	{
		handler.GET("/stats", r.GetStats)
		handler.GET("/users", r.ListUsers)
		handler.GET("/withdrawals", r.ListWithdrawals)
		handler.POST("/withdrawals/:id/approve", r.ApproveWithdrawal)
		handler.POST("/withdrawals/:id/reject", r.RejectWithdrawal)
	}
}

func (r *adminRoutes) GetStats(c *gin.Context) {
	log := logger.Logger()

	stats, err := r.us.GetAdminStats(c.Request.Context())
	if err != nil {
		log.Error("failed to get admin stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users_total":         stats.UsersTotal,
		"users_today":         stats.UsersToday,
		"revenue_by_method":   stats.RevenueByMethod,
		"pending_withdrawals": stats.PendingWithdrawals,
		"open_tickets":        stats.OpenTickets,
		"jobs_in_flight":      stats.JobsInFlight,
	})
}

func (r *adminRoutes) ListUsers(c *gin.Context) {
	log := logger.Logger()

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	users, err := r.us.ListUsers(c.Request.Context(), c.Query("search"), limit, offset)
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}

	out := make([]gin.H, len(users))
	for i, u := range users {
		out[i] = gin.H{
			"telegram_id":       u.TelegramID,
			"handle":            u.Handle,
			"username":          u.Username,
			"generations":       u.Generations,
			"referrals":         u.Referrals,
			"registration_date": u.RegistrationDate,
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *adminRoutes) ListWithdrawals(c *gin.Context) {
	log := logger.Logger()

	status := model.WithdrawalStatus(c.DefaultQuery("status", string(model.WithdrawalStatusPending)))

	withdrawals, err := r.rs.ListWithdrawals(c.Request.Context(), status)
	if err != nil {
		log.Error("failed to list withdrawals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list withdrawals"})
		return
	}

	out := make([]gin.H, len(withdrawals))
	for i, w := range withdrawals {
		out[i] = gin.H{
			"id":               w.ID,
			"user_telegram_id": w.UserTelegramID,
			"amount":           w.Amount,
			"tax":              w.Tax,
			"net":              w.Net,
			"destination":      w.Destination,
			"status":           w.Status,
			"created_at":       w.CreatedAt,
			"resolved_at":      w.ResolvedAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *adminRoutes) ApproveWithdrawal(c *gin.Context) {
	r.resolveWithdrawal(c, true)
}

func (r *adminRoutes) RejectWithdrawal(c *gin.Context) {
	r.resolveWithdrawal(c, false)
}

func (r *adminRoutes) resolveWithdrawal(c *gin.Context, approve bool) {
	log := logger.Logger()

	err := r.rs.ResolveWithdrawal(c.Request.Context(), c.Param("id"), approve)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWithdrawalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
		case errors.Is(err, service.ErrWithdrawalResolved):
			c.JSON(http.StatusConflict, gin.H{"error": "withdrawal already resolved"})
		default:
			log.Error("failed to resolve withdrawal", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve withdrawal"})
		}
		return
	}

	status := model.WithdrawalStatusRejected
	if approve {
		status = model.WithdrawalStatusApproved
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

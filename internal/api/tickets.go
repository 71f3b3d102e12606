package api

import (
	"errors"
	"net/http"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/service"
	"photolab_miniapp/pkg/auth"
	"photolab_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type ticketRoutes struct {
	ts service.TicketServiceI
}

func NewTicketRoutes(handler *gin.RouterGroup, ts service.TicketServiceI, a *auth.TelegramAuth, limit gin.HandlerFunc) {
	r := &ticketRoutes{ts: ts}
	h := handler.Group("/tickets")
	h.Use(a.TelegramAuthMiddleware())
	if limit != nil {
		h.Use(limit)
	}
	{
		h.POST("", r.CreateTicket)
		h.GET("", r.ListMyTickets)
		h.GET("/:id", r.GetTicket)
		h.POST("/:id/messages", r.AddMessage)
	}
}

// NewTicketAdminRoutes registers support management under an
// already-guarded admin group.
func NewTicketAdminRoutes(handler *gin.RouterGroup, ts service.TicketServiceI) {
	r := &ticketRoutes{ts: ts}
	h := handler.Group("/tickets")
	{
		h.GET("", r.ListTickets)
		h.GET("/:id", r.GetTicket)
		h.POST("/:id/reply", r.Reply)
		h.POST("/:id/close", r.CloseTicket)
	}
}

type CreateTicketRequest struct {
	Subject string `json:"subject" binding:"required,max=200"`
	Message string `json:"message" binding:"required"`
}

func (r *ticketRoutes) CreateTicket(c *gin.Context) {
	log := logger.Logger()

	var req CreateTicketRequest
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

	ticket, err := r.ts.CreateTicket(c.Request.Context(), user.ID, req.Subject, req.Message)
	if err != nil {
		log.Error("failed to create ticket", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create ticket"})
		return
	}

	c.JSON(http.StatusCreated, ticketResponse(ticket))
}

func (r *ticketRoutes) ListMyTickets(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	tickets, err := r.ts.ListMyTickets(c.Request.Context(), user.ID)
	if err != nil {
		log.Error("failed to list tickets", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tickets"})
		return
	}

	out := make([]gin.H, len(tickets))
	for i, t := range tickets {
		out[i] = ticketResponse(t)
	}

	c.JSON(http.StatusOK, out)
}

func (r *ticketRoutes) GetTicket(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ticket, err := r.ts.GetTicket(c.Request.Context(), user.ID, c.GetBool("is_admin"), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		case errors.Is(err, service.ErrAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		default:
			log.Error("failed to get ticket", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get ticket"})
		}
		return
	}

	resp := ticketResponse(ticket)
	messages := make([]gin.H, len(ticket.Messages))
	for i, m := range ticket.Messages {
		messages[i] = gin.H{
			"from_admin": m.FromAdmin,
			"body":       m.Body,
			"created_at": m.CreatedAt,
		}
	}
	resp["messages"] = messages

	c.JSON(http.StatusOK, resp)
}

type TicketMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

func (r *ticketRoutes) AddMessage(c *gin.Context) {
	log := logger.Logger()

	var req TicketMessageRequest
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

	err := r.ts.AddMessage(c.Request.Context(), user.ID, c.Param("id"), req.Body)
	if err != nil {
		r.writeTicketError(c, err, "failed to add message")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "ok"})
}

func (r *ticketRoutes) ListTickets(c *gin.Context) {
	log := logger.Logger()

	status := model.TicketStatus(c.Query("status"))

	tickets, err := r.ts.ListTickets(c.Request.Context(), status)
	if err != nil {
		log.Error("failed to list tickets", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tickets"})
		return
	}

	out := make([]gin.H, len(tickets))
	for i, t := range tickets {
		resp := ticketResponse(t)
		resp["user_telegram_id"] = t.UserTelegramID
		out[i] = resp
	}

	c.JSON(http.StatusOK, out)
}

func (r *ticketRoutes) Reply(c *gin.Context) {
	var req TicketMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Logger().Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := r.ts.Reply(c.Request.Context(), c.Param("id"), req.Body)
	if err != nil {
		r.writeTicketError(c, err, "failed to reply")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "ok"})
}

func (r *ticketRoutes) CloseTicket(c *gin.Context) {
	err := r.ts.CloseTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.writeTicketError(c, err, "failed to close ticket")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

func (r *ticketRoutes) writeTicketError(c *gin.Context, err error, msg string) {
	log := logger.Logger()

	switch {
	case errors.Is(err, service.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
	case errors.Is(err, service.ErrTicketClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "ticket is closed"})
	case errors.Is(err, service.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	default:
		log.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func ticketResponse(t *model.Ticket) gin.H {
	return gin.H{
		"id":         t.ID,
		"subject":    t.Subject,
		"status":     t.Status,
		"created_at": t.CreatedAt,
		"updated_at": t.UpdatedAt,
	}
}

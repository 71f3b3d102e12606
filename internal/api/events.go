package api

import (
	"net/http"

	"photolab_miniapp/internal/service"
	"photolab_miniapp/pkg/auth"
	"photolab_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type eventRoutes struct {
	hub *service.EventHub
}

func NewEventRoutes(handler *gin.RouterGroup, hub *service.EventHub, a *auth.TelegramAuth) {
	r := &eventRoutes{hub: hub}
	h := handler.Group("/events")
	h.Use(a.TelegramAuthMiddleware())

	h.GET("/ws", r.handleWebSocket)
}

func (r *eventRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	ch := r.hub.Subscribe(user.ID)

	go r.notificationsLoop(conn, ch)
	go r.readLoop(conn, user.ID, ch)
}

func (r *eventRoutes) notificationsLoop(conn *websocket.Conn, ch chan service.Message) {
	defer conn.Close()

	log := logger.Logger()

	for message := range ch {
		out, err := json.Marshal(message)
		if err != nil {
			log.Error("failed to marshal event", zap.Error(err))
			continue
		}

		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			log.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

// readLoop drains client frames so the connection close is noticed and the
// subscription torn down.
func (r *eventRoutes) readLoop(conn *websocket.Conn, userID int64, ch chan service.Message) {
	defer r.hub.Unsubscribe(userID, ch)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

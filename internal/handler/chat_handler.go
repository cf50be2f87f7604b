package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tradehub/internal/middleware"
	"github.com/tradehub/internal/models"
	"github.com/tradehub/internal/service"
	"github.com/tradehub/pkg/response"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ChatEvent is one frame pushed on a chat stream
type ChatEvent struct {
	Type    string             `json:"type"`
	Message models.ChatMessage `json:"message"`
}

// ChatHandler handles the conversations attached to trade posts
type ChatHandler struct {
	chatService *service.ChatService
	metrics     *middleware.Metrics
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatService *service.ChatService, metrics *middleware.Metrics) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		metrics:     metrics,
	}
}

// ListMessages returns a trade's conversation, oldest first
// GET /api/trades/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	messages, err := h.chatService.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "list chat messages", err)
		return
	}
	response.Success(c, gin.H{"messages": messages})
}

// PostMessage appends a message from the signed-in user
// POST /api/trades/:id/messages
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	msg, err := h.chatService.Post(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), req.Content)
	if err != nil {
		respondError(c, "post chat message", err)
		return
	}
	h.metrics.ChatMessagePosted()

	response.Created(c, "", gin.H{"chatMessage": msg})
}

// Stream pushes new messages of a trade's conversation over a websocket
// GET /api/trades/:id/messages/ws?token=...
func (h *ChatHandler) Stream(c *gin.Context) {
	tradeID := c.Param("id")
	messages, unsubscribe, err := h.chatService.Subscribe(c.Request.Context(), tradeID)
	if err != nil {
		respondError(c, "subscribe chat", err)
		return
	}
	defer unsubscribe()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		middleware.LogError("chat stream upgrade for trade %s: %v", tradeID, err)
		return
	}
	defer conn.Close()

	closed := h.metrics.ChatStreamOpened()
	defer closed()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	go readPump(conn, cancel)

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ChatEvent{Type: "message", Message: msg}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close frames are processed.
// The stream is read-only; message content from the client is ignored.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				middleware.LogDebug("chat stream read: %v", err)
			}
			return
		}
	}
}

// RegisterRoutes registers chat routes
func (h *ChatHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	chat := rg.Group("/trades/:id/messages")
	chat.Use(authMiddleware)
	{
		chat.GET("", h.ListMessages)
		chat.POST("", h.PostMessage)
		chat.GET("/ws", h.Stream)
	}
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/tradehub/internal/middleware"
	"github.com/tradehub/internal/service"
	"github.com/tradehub/pkg/response"
)

// TradeHandler handles trade post API requests
type TradeHandler struct {
	tradeService *service.TradeService
	metrics      *middleware.Metrics
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(tradeService *service.TradeService, metrics *middleware.Metrics) *TradeHandler {
	return &TradeHandler{
		tradeService: tradeService,
		metrics:      metrics,
	}
}

// ListTrades returns every trade post, newest first
// GET /api/trades
func (h *TradeHandler) ListTrades(c *gin.Context) {
	trades, err := h.tradeService.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, "list trades", err)
		return
	}
	response.Success(c, gin.H{"trades": trades})
}

// ListUserTrades returns the trade posts of one author
// GET /api/trades/user/:id
func (h *TradeHandler) ListUserTrades(c *gin.Context) {
	trades, err := h.tradeService.ListByAuthor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "list user trades", err)
		return
	}
	response.Success(c, gin.H{"trades": trades})
}

// GetTrade returns one trade post
// GET /api/trades/:id
func (h *TradeHandler) GetTrade(c *gin.Context) {
	trade, err := h.tradeService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "get trade", err)
		return
	}
	response.Success(c, gin.H{"trade": trade})
}

// CreateTrade posts a trade offer for the signed-in user
// POST /api/trades
func (h *TradeHandler) CreateTrade(c *gin.Context) {
	var req service.CreateTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	trade, err := h.tradeService.Create(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, "create trade", err)
		return
	}
	h.metrics.TradeCreated()

	response.Created(c, "Trade created successfully", gin.H{"trade": trade})
}

// RegisterRoutes registers trade routes
func (h *TradeHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	trades := rg.Group("/trades")
	{
		trades.GET("", h.ListTrades)
		trades.GET("/user/:id", h.ListUserTrades)
		trades.GET("/:id", h.GetTrade)
		trades.POST("", authMiddleware, h.CreateTrade)
	}
}

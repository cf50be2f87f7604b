// Package client is a typed HTTP client for the TradeHub API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tradehub/internal/models"
)

// APIError is a response with success=false or an error status
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tradehub: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("tradehub: %s (HTTP %d)", e.Message, e.StatusCode)
}

// Client talks to one TradeHub server. It is not safe to change the token
// while requests are in flight.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken starts the client with a saved bearer token
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the server at baseURL, e.g. http://localhost:3001
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current bearer token
func (c *Client) Token() string { return c.token }

// SetToken replaces the bearer token; an empty token signs the client out
func (c *Client) SetToken(token string) { c.token = token }

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Session is the result of registering or signing in
type Session struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Username        string `json:"username"`
	DisplayName     string `json:"displayName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Register creates an account and keeps its token
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &s); err != nil {
		return nil, err
	}
	c.token = s.Token
	return &s, nil
}

// Login signs in and keeps the token
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	body := map[string]string{"username": username, "password": password}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &s); err != nil {
		return nil, err
	}
	c.token = s.Token
	return &s, nil
}

// Me returns the signed-in user
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout marks the user offline and forgets the token
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// ListUsers returns every public profile
func (c *Client) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	var out struct {
		Users []models.PublicUser `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// GetUser returns one public profile
func (c *Client) GetUser(ctx context.Context, id string) (*models.PublicUser, error) {
	var out struct {
		User models.PublicUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateStats applies a partial stats update to a user
func (c *Client) UpdateStats(ctx context.Context, id string, patch models.StatsPatch) (*models.PublicUser, error) {
	var out struct {
		User models.PublicUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodPatch, "/api/users/"+url.PathEscape(id)+"/stats", patch, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

type tradeList struct {
	Trades []models.TradePost `json:"trades"`
}

// ListTrades returns the whole feed, newest first
func (c *Client) ListTrades(ctx context.Context) ([]models.TradePost, error) {
	var out tradeList
	if err := c.do(ctx, http.MethodGet, "/api/trades", nil, &out); err != nil {
		return nil, err
	}
	return out.Trades, nil
}

// ListUserTrades returns the trades posted by one user
func (c *Client) ListUserTrades(ctx context.Context, userID string) ([]models.TradePost, error) {
	var out tradeList
	if err := c.do(ctx, http.MethodGet, "/api/trades/user/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return out.Trades, nil
}

// GetTrade returns one trade post
func (c *Client) GetTrade(ctx context.Context, id string) (*models.TradePost, error) {
	var out struct {
		Trade models.TradePost `json:"trade"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/trades/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Trade, nil
}

// CreateTradeRequest is the body of POST /api/trades.
// ExpiryDays may be a number, a numeric string, "never" or nil.
type CreateTradeRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Giving      []models.Item `json:"giving"`
	Wanting     []models.Item `json:"wanting"`
	IsUrgent    bool          `json:"isUrgent,omitempty"`
	ExpiryDays  interface{}   `json:"expiryDays,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
}

// CreateTrade posts a trade offer as the signed-in user
func (c *Client) CreateTrade(ctx context.Context, req CreateTradeRequest) (*models.TradePost, error) {
	var out struct {
		Trade models.TradePost `json:"trade"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/trades", req, &out); err != nil {
		return nil, err
	}
	return &out.Trade, nil
}

// ListNotifications returns the signed-in user's notifications, newest first
func (c *Client) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var out struct {
		Notifications []models.Notification `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications", nil, &out); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

// UnreadCount returns how many notifications are unread
func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// MarkRead marks one notification as read
func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/api/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllRead marks every notification of the signed-in user as read
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPatch, "/api/notifications/read-all", nil, nil)
}

// CreateNotificationRequest is the body of POST /api/notifications
type CreateNotificationRequest struct {
	UserID    string                  `json:"userId"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Type      models.NotificationType `json:"type"`
	ActionURL string                  `json:"actionUrl,omitempty"`
}

// CreateNotification sends a notification to another user
func (c *Client) CreateNotification(ctx context.Context, req CreateNotificationRequest) (*models.Notification, error) {
	var out struct {
		Notification models.Notification `json:"notification"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/notifications", req, &out); err != nil {
		return nil, err
	}
	return &out.Notification, nil
}

// ListMessages returns the conversation of a trade, oldest first
func (c *Client) ListMessages(ctx context.Context, tradeID string) ([]models.ChatMessage, error) {
	var out struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/trades/"+url.PathEscape(tradeID)+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// PostMessage sends a chat message about a trade
func (c *Client) PostMessage(ctx context.Context, tradeID, content string) (*models.ChatMessage, error) {
	body := map[string]string{"content": content}
	var out struct {
		Message models.ChatMessage `json:"chatMessage"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/trades/"+url.PathEscape(tradeID)+"/messages", body, &out); err != nil {
		return nil, err
	}
	return &out.Message, nil
}

// Health checks that the server is up
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tradehub/internal/models"
)

// Responder may answer a chat message on behalf of the trade's author
type Responder interface {
	Respond(ctx context.Context, trade *models.TradePost, msg *models.ChatMessage) (string, bool)
}

// NewResponder returns the responder named in configuration
func NewResponder(name string) (Responder, error) {
	switch name {
	case "", "none":
		return NoopResponder{}, nil
	case "canned":
		return NewCannedResponder(nil), nil
	}
	return nil, fmt.Errorf("unknown chat responder: %s", name)
}

// NoopResponder never answers
type NoopResponder struct{}

func (NoopResponder) Respond(context.Context, *models.TradePost, *models.ChatMessage) (string, bool) {
	return "", false
}

// DefaultCannedLines are the demo replies used by CannedResponder
var DefaultCannedLines = []string{
	"Hi! I'm interested in your trade offer.",
	"That sounds like a fair deal to me.",
	"Would you be willing to add anything else?",
	"Perfect! When would you like to complete this trade?",
	"I have those items you're looking for.",
	"Let me check my inventory and get back to you.",
}

// CannedResponder answers every message from someone other than the author
// with the next line of a fixed list, cycling in order
type CannedResponder struct {
	lines []string
	next  atomic.Uint64
}

// NewCannedResponder creates a CannedResponder. Nil lines use DefaultCannedLines.
func NewCannedResponder(lines []string) *CannedResponder {
	if len(lines) == 0 {
		lines = DefaultCannedLines
	}
	return &CannedResponder{lines: lines}
}

func (r *CannedResponder) Respond(_ context.Context, trade *models.TradePost, msg *models.ChatMessage) (string, bool) {
	if msg.SenderID == trade.Author.ID {
		return "", false
	}
	i := r.next.Add(1) - 1
	return r.lines[i%uint64(len(r.lines))], true
}

package service

import (
	"sync"

	"github.com/tradehub/internal/models"
)

// chatSubscriberBuffer is how many messages a slow subscriber may lag
// behind before further messages are dropped for it
const chatSubscriberBuffer = 32

// ChatHub fans new chat messages out to live subscribers of a trade
type ChatHub struct {
	mu   sync.RWMutex
	subs map[string]map[chan models.ChatMessage]struct{} // trade id -> subscribers
}

// NewChatHub creates an empty ChatHub
func NewChatHub() *ChatHub {
	return &ChatHub{subs: make(map[string]map[chan models.ChatMessage]struct{})}
}

// Subscribe registers a subscriber for a trade. The returned function
// unsubscribes and closes the channel.
func (h *ChatHub) Subscribe(tradeID string) (<-chan models.ChatMessage, func()) {
	ch := make(chan models.ChatMessage, chatSubscriberBuffer)

	h.mu.Lock()
	if h.subs[tradeID] == nil {
		h.subs[tradeID] = make(map[chan models.ChatMessage]struct{})
	}
	h.subs[tradeID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.subs[tradeID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.subs, tradeID)
				}
			}
			close(ch)
		})
	}
}

// Publish delivers msg to every subscriber of its trade without blocking
func (h *ChatHub) Publish(msg models.ChatMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[msg.TradeID] {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribers returns the number of live subscribers of a trade
func (h *ChatHub) Subscribers(tradeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[tradeID])
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tradehub/internal/models"
)

const (
	// ExpiringSoonWindow is how long before expiry a trade counts as expiring soon
	ExpiringSoonWindow = 24 * time.Hour

	expiringSoonTitle = "Trade Expiring Soon"
)

// TradeActionURL is the client route of a trade post
func TradeActionURL(tradeID string) string {
	return "/trade/" + tradeID
}

// RemindExpiring notifies the author of every active trade that expires
// within ExpiringSoonWindow. Each trade is reminded at most once; the trade
// itself is left untouched. It returns the number of reminders sent.
func (s *TradeService) RemindExpiring(ctx context.Context) (int, error) {
	now := timestamp(s.now)
	trades, err := s.tradeRepo.ListExpiringBetween(ctx, now, now.Add(ExpiringSoonWindow))
	if err != nil {
		return 0, fmt.Errorf("list expiring trades: %w", err)
	}

	sent := 0
	for i := range trades {
		trade := &trades[i]
		ok, err := s.remind(ctx, trade)
		if err != nil {
			return sent, err
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

func (s *TradeService) remind(ctx context.Context, trade *models.TradePost) (bool, error) {
	actionURL := TradeActionURL(trade.ID)
	exists, err := s.notifications.notificationRepo.ExistsForAction(ctx, trade.AuthorID, expiringSoonTitle, actionURL)
	if err != nil {
		return false, fmt.Errorf("check reminder for trade %s: %w", trade.ID, err)
	}
	if exists {
		return false, nil
	}

	_, err = s.notifications.notify(ctx, trade.AuthorID,
		expiringSoonTitle,
		fmt.Sprintf("Your trade \"%s\" expires in less than 24 hours.", trade.Title),
		models.NotificationTrade, actionURL)
	if err != nil {
		return false, err
	}
	return true, nil
}

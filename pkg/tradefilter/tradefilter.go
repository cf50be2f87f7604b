// Package tradefilter computes the trade list a client displays from the
// full feed: search, rarity and urgency filters plus a sort order. It also
// derives the summary numbers shown next to the list.
package tradefilter

import (
	"sort"
	"strings"

	"github.com/tradehub/internal/models"
)

// SortOrder selects how filtered trades are ordered
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
	SortRating SortOrder = "rating"
)

// Params are the filter controls. The zero value keeps every trade in
// feed order.
type Params struct {
	Search     string
	Rarities   []models.ItemRarity
	UrgentOnly bool
	Sort       SortOrder
}

// Apply returns the trades matching p in the requested order. The input
// slice is never modified; ties keep their input order.
func Apply(trades []models.TradePost, p Params) []models.TradePost {
	search := strings.ToLower(p.Search)

	out := make([]models.TradePost, 0, len(trades))
	for i := range trades {
		if matches(&trades[i], search, p) {
			out = append(out, trades[i])
		}
	}

	switch p.Sort {
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Author.Stats.Rating > out[j].Author.Stats.Rating
		})
	}
	return out
}

func matches(t *models.TradePost, search string, p Params) bool {
	if search != "" &&
		!strings.Contains(strings.ToLower(t.Title), search) &&
		!strings.Contains(strings.ToLower(t.Description), search) &&
		!strings.Contains(strings.ToLower(t.Author.DisplayName), search) {
		return false
	}
	if len(p.Rarities) > 0 && !t.HasRarity(p.Rarities) {
		return false
	}
	return !p.UrgentOnly || t.IsUrgent
}

// TotalGivingValue sums the value of every offered item. Items without a
// value count as zero.
func TotalGivingValue(trades []models.TradePost) float64 {
	var total float64
	for _, t := range trades {
		for _, item := range t.Giving {
			if item.Value != nil {
				total += *item.Value
			}
		}
	}
	return total
}

// Summary is the headline numbers of a trade feed
type Summary struct {
	Active int `json:"activeTrades"`
	Urgent int `json:"urgentTrades"`
	Total  int `json:"totalTrades"`
}

// Stats counts active and urgent trades
func Stats(trades []models.TradePost) Summary {
	s := Summary{Total: len(trades)}
	for _, t := range trades {
		if t.Status == models.TradeStatusActive {
			s.Active++
		}
		if t.IsUrgent {
			s.Urgent++
		}
	}
	return s
}

// ParseSort maps a user-supplied sort name to a SortOrder. Unknown names
// keep feed order.
func ParseSort(name string) (SortOrder, bool) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(name))); order {
	case SortNewest, SortOldest, SortRating:
		return order, true
	case "":
		return "", true
	}
	return "", false
}

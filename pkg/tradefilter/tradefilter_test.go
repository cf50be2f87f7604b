package tradefilter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradehub/internal/models"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func trade(id, title, author string, rating float64, minutes int, urgent bool, rarities ...models.ItemRarity) models.TradePost {
	t := models.TradePost{
		ID:          id,
		Title:       title,
		Description: "swap " + id,
		Author: models.PublicUser{
			ID:          "u-" + author,
			DisplayName: author,
			Stats:       models.UserStats{Rating: rating},
		},
		Status:    models.TradeStatusActive,
		CreatedAt: base.Add(time.Duration(minutes) * time.Minute),
		IsUrgent:  urgent,
	}
	for i, r := range rarities {
		item := models.Item{ID: id + "-item", Name: "item", Rarity: r}
		if i%2 == 0 {
			t.Giving = append(t.Giving, item)
		} else {
			t.Wanting = append(t.Wanting, item)
		}
	}
	return t
}

func sample() []models.TradePost {
	return []models.TradePost{
		trade("a", "Dragon Sword", "Alice", 4.0, 10, false, models.RarityLegendary),
		trade("b", "Healing Potions", "Bob", 4.5, 30, true, models.RarityCommon, models.RarityRare),
		trade("c", "Shield swap", "Carol", 4.0, 20, true, models.RarityEpic),
		trade("d", "Bow", "Dragonslayer", 3.0, 0, false, models.RarityCommon),
	}
}

func ids(trades []models.TradePost) []string {
	out := make([]string, len(trades))
	for i, t := range trades {
		out[i] = t.ID
	}
	return out
}

func TestApplyFilters(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   []string
	}{
		{"zero params keep feed order", Params{}, []string{"a", "b", "c", "d"}},
		{"search matches title case-insensitively", Params{Search: "dRaGoN"}, []string{"a", "d"}},
		{"search matches description", Params{Search: "swap c"}, []string{"c"}},
		{"search matches author display name", Params{Search: "carol"}, []string{"c"}},
		{"search without match", Params{Search: "zzz"}, []string{}},
		{"rarity in giving", Params{Rarities: []models.ItemRarity{models.RarityLegendary}}, []string{"a"}},
		{"rarity in wanting", Params{Rarities: []models.ItemRarity{models.RarityRare}}, []string{"b"}},
		{"any of several rarities", Params{Rarities: []models.ItemRarity{models.RarityEpic, models.RarityCommon}}, []string{"b", "c", "d"}},
		{"urgent only", Params{UrgentOnly: true}, []string{"b", "c"}},
		{"all filters combine", Params{Search: "s", Rarities: []models.ItemRarity{models.RarityEpic}, UrgentOnly: true}, []string{"c"}},
		{"newest first", Params{Sort: SortNewest}, []string{"b", "c", "a", "d"}},
		{"oldest first", Params{Sort: SortOldest}, []string{"d", "a", "c", "b"}},
		{"rating ties keep input order", Params{Sort: SortRating}, []string{"b", "a", "c", "d"}},
		{"unknown sort keeps feed order", Params{Sort: "price"}, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(sample(), tt.params)))
		})
	}
}

func TestApplyIsIdempotentAndDoesNotMutate(t *testing.T) {
	input := sample()
	before := ids(input)
	params := Params{Search: "a", Sort: SortRating}

	first := Apply(input, params)
	second := Apply(input, params)

	assert.Equal(t, first, second)
	assert.Equal(t, first, Apply(first, params))
	assert.Equal(t, before, ids(input))

	// the result does not alias the input
	require.NotEmpty(t, first)
	first[0].Title = "changed"
	assert.NotEqual(t, "changed", input[0].Title)
	assert.NotEqual(t, "changed", input[1].Title)
}

func TestTotalGivingValue(t *testing.T) {
	ten, half := 10.0, 2.5
	trades := []models.TradePost{
		{Giving: []models.Item{{Value: &ten}, {Value: nil}}, Wanting: []models.Item{{Value: &ten}}},
		{Giving: []models.Item{{Value: &half}}},
		{},
	}
	assert.Equal(t, 12.5, TotalGivingValue(trades))
	assert.Zero(t, TotalGivingValue(nil))
}

func TestStats(t *testing.T) {
	trades := sample()
	trades[3].Status = models.TradeStatusCompleted

	assert.Equal(t, Summary{Active: 3, Urgent: 2, Total: 4}, Stats(trades))
	assert.Equal(t, Summary{}, Stats(nil))
}

func TestParseSort(t *testing.T) {
	order, ok := ParseSort(" Rating ")
	assert.True(t, ok)
	assert.Equal(t, SortRating, order)

	order, ok = ParseSort("")
	assert.True(t, ok)
	assert.Equal(t, SortOrder(""), order)

	_, ok = ParseSort("price")
	assert.False(t, ok)
}

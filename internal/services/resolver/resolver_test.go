package resolver

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FolioPull/internal/domain/models"
	"FolioPull/internal/services/matcher"
)

var universe = []models.AssetPair{
	{Name: "XXBTZUSD", Altname: "XBTUSD", Base: "XXBT", Quote: "ZUSD"},
	{Name: "XETHZUSD", Altname: "ETHUSD", Base: "XETH", Quote: "ZUSD"},
	{Name: "ADAUSD", Altname: "ADAUSD", Base: "ADA", Quote: "ZUSD"},
	{Name: "ZGBPZUSD", Altname: "GBPUSD", Base: "ZGBP", Quote: "ZUSD"},
}

func bal(asset, amount string) models.Balance {
	return models.Balance{Asset: asset, Amount: decimal.RequireFromString(amount)}
}

func TestResolve(t *testing.T) {
	r := New(matcher.NewRatio(0.6))

	tests := []struct {
		asset string
		want  string
	}{
		{"XXBT", "XXBTZUSD"},
		{"XETH", "XETHZUSD"},
		{"ADA", "ADAUSD"},
	}
	for _, tt := range tests {
		t.Run(tt.asset, func(t *testing.T) {
			pair, err := r.Resolve(tt.asset, universe)
			require.NoError(t, err)
			require.NotNil(t, pair)
			assert.Equal(t, tt.want, pair.Name)
		})
	}
}

func TestResolve_FiatPassesThrough(t *testing.T) {
	pair, err := New(matcher.NewRatio(0.6)).Resolve("ZGBP", universe)
	assert.NoError(t, err)
	assert.Nil(t, pair)
}

func TestResolve_NoMatch(t *testing.T) {
	_, err := New(matcher.NewRatio(0.6)).Resolve("QQQQQQQ", universe)

	var re *models.ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "QQQQQQQUSD", re.Probe)
	assert.True(t, errors.Is(err, models.ErrNoPair))
}

func TestResolve_UsesConfiguredQuote(t *testing.T) {
	eur := []models.AssetPair{{Name: "XXBTZEUR", Altname: "XBTEUR"}}
	r := New(matcher.NewRatio(0.6), WithQuote("EUR"))
	assert.Equal(t, "EUR", r.Quote())

	pair, err := r.Resolve("XXBT", eur)
	require.NoError(t, err)
	assert.Equal(t, "XBTEUR", pair.Altname)

	// an empty quote keeps the default
	assert.Equal(t, DefaultQuote, New(nil, WithQuote("")).Quote())
}

func TestResolveAll(t *testing.T) {
	r := New(matcher.NewRatio(0.6))
	got := r.ResolveAll([]models.Balance{
		bal("XXBT", "0.1"),
		bal("QQQQQQQ", "5"),
		bal("DOT", "0"),
		bal("ZGBP", "1000"),
		bal("XETH", "2"),
	}, universe)

	require.Len(t, got.Resolved, 3)
	assert.Equal(t, "XXBT", got.Resolved[0].Asset)
	assert.Equal(t, "ZGBP", got.Resolved[1].Asset)
	assert.Nil(t, got.Resolved[1].Pair)
	assert.Equal(t, "XETH", got.Resolved[2].Asset)
	assert.Equal(t, []string{"XBTUSD", "ETHUSD"}, got.Pairs())

	require.Len(t, got.Unresolved, 1)
	assert.Equal(t, "QQQQQQQ", got.Unresolved[0].Asset)
	require.Len(t, got.Skipped, 1)
	assert.Equal(t, "QQQQQQQ", got.Skipped[0].ID)
	assert.Contains(t, got.Skipped[0].Reason, "QQQQQQQUSD")
}

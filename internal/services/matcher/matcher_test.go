package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio_Match(t *testing.T) {
	universe := []string{"XBTUSD", "XBTEUR", "ETHUSD", "XBTUSDT"}

	tests := []struct {
		name      string
		probe     string
		cutoff    float64
		want      string
		wantScore float64
		wantOK    bool
	}{
		{"exact", "ETHUSD", 0.6, "ETHUSD", 1, true},
		{"prefixed code", "XXBTUSD", 0.6, "XBTUSD", 0.9231, true},
		{"prefixed eth", "XETHUSD", 0.6, "ETHUSD", 0.9231, true},
		{"below cutoff", "XXBTUSD", 0.95, "", 0, false},
		{"no similarity", "QQQQQQQ", 0.6, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, score, ok := NewRatio(tt.cutoff).Match(tt.probe, universe)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.InDelta(t, tt.wantScore, score, 1e-4)
		})
	}
}

func TestRatio_TiesKeepFirstCandidate(t *testing.T) {
	m := NewRatio(0.6)

	got, score, ok := m.Match("ABUSD", []string{"ACUSD", "ADUSD"})
	assert.True(t, ok)
	assert.Equal(t, "ACUSD", got)
	assert.InDelta(t, 0.8, score, 1e-9)

	got, _, _ = m.Match("ABUSD", []string{"ADUSD", "ACUSD"})
	assert.Equal(t, "ADUSD", got)
}

func TestRatio_EmptyCandidates(t *testing.T) {
	_, _, ok := NewRatio(0.6).Match("XBTUSD", nil)
	assert.False(t, ok)
}

func TestNewRatio_InvalidCutoffFallsBack(t *testing.T) {
	assert.Equal(t, DefaultCutoff, NewRatio(0).Cutoff())
	assert.Equal(t, DefaultCutoff, NewRatio(1.5).Cutoff())
	assert.Equal(t, 0.8, NewRatio(0.8).Cutoff())
}

func TestAlias(t *testing.T) {
	universe := []string{"XDGUSD", "XBTUSD"}
	m := NewAlias(map[string]string{"DOGEUSD": "XDGUSD", "GONEUSD": "GONEUSD"}, NewRatio(0.9))

	got, score, ok := m.Match("DOGEUSD", universe)
	assert.True(t, ok)
	assert.Equal(t, "XDGUSD", got)
	assert.Equal(t, 1.0, score)

	// alias target missing from the universe falls through to the ratio matcher
	_, _, ok = m.Match("GONEUSD", universe)
	assert.False(t, ok)

	got, _, ok = m.Match("XXBTUSD", universe)
	assert.True(t, ok)
	assert.Equal(t, "XBTUSD", got)
}

func TestAlias_WithoutFallback(t *testing.T) {
	m := NewAlias(map[string]string{"DOGEUSD": "XDGUSD"}, nil)
	_, _, ok := m.Match("XXBTUSD", []string{"XBTUSD"})
	assert.False(t, ok)
}

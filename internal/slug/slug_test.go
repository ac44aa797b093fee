package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple lowercase", "tvp1", "tvp1"},
		{"mixed case", "Channel One", "channel-one"},
		{"diacritics stripped", "Canal Météo", "canal-meteo"},
		{"polish diacritics", "Polsat Café", "polsat-cafe"},
		{"punctuation collapsed", "TVN 24 -- HD!", "tvn-24-hd"},
		{"leading and trailing junk", "  ++Kino__ ", "kino"},
		{"digits preserved", "4fun.tv", "4fun-tv"},
		{"empty", "", ""},
		{"only punctuation", "***", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Make(tt.input))
		})
	}
}

func TestMake_Deterministic(t *testing.T) {
	first := Make("Régional Süd 9")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Make("Régional Süd 9"))
	}
}

func TestMakeN(t *testing.T) {
	assert.Equal(t, "channel", MakeN("Channel One", 7))
	// Separator at the cut point is trimmed, not kept.
	assert.Equal(t, "channel", MakeN("Channel One", 8))
	assert.Equal(t, "channel-one", MakeN("Channel One", 120))
	assert.Equal(t, "channel-one", MakeN("Channel One", 0))
}

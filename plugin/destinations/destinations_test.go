package destinations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"campaign naming convention", "fbads_es_destino_verano_25.09.25_ibiza_interac", "Ibiza"},
		{"compound coast name", "fbads_es_destino_costablanca_27.08.25_lookalike", "Costa Blanca"},
		{"spaced variant", "Campaña Costa del Sol otoño", "Costa del Sol"},
		{"mountain", "fbads_es_destino_baqueira_27.08.25", "Baqueira"},
		{"no destination", "fbads_es_destinos_general_2025", General},
		{"empty", "", General},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Extract(tt.input))
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		found    bool
	}{
		{"Baqueira", "Baqueira", true},
		{"baqueira beret", "Baqueira", true},
		{"costa blanca", "Costa Blanca", true},
		{"blanca", "Costa Blanca", true},
		{"Marte", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Resolve(tt.input)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestKnown(t *testing.T) {
	known := Known()
	assert.Contains(t, known, "Ibiza")
	assert.Contains(t, known, "Costa del Sol")
	// "costasol" and "costa del sol" map to the same destination.
	seen := map[string]int{}
	for _, d := range known {
		seen[d]++
	}
	assert.Equal(t, 1, seen["Costa del Sol"])
}

// Package destinations classifies campaigns, adsets and ads into travel
// destinations based on the account's naming conventions
// (e.g. "fbads_es_destino_verano_25.09.25_ibiza_interac" -> "Ibiza").
package destinations

import "strings"

// General is the bucket for entities whose name matches no known destination.
const General = "General"

// destinationMap maps lowercase name fragments to display names.
// Order-independent: first fragment found in the text wins.
var destinationMap = map[string]string{
	// Mountain
	"baqueira": "Baqueira",
	"andorra":  "Andorra",
	"pirineos": "Pirineos",

	// Islands
	"ibiza":    "Ibiza",
	"mallorca": "Mallorca",
	"menorca":  "Menorca",
	"canarias": "Canarias",

	// Coasts
	"cantabria":     "Cantabria",
	"costaluz":      "Costa de la Luz",
	"costablanca":   "Costa Blanca",
	"costasol":      "Costa del Sol",
	"costa del sol": "Costa del Sol",
}

// Extract returns the destination inferred from an entity name, or
// General when nothing matches.
func Extract(name string) string {
	if name == "" {
		return General
	}
	lower := strings.ToLower(name)
	for fragment, destination := range destinationMap {
		if strings.Contains(lower, fragment) {
			return destination
		}
	}
	return General
}

// Known returns all known destination display names.
func Known() []string {
	seen := make(map[string]bool, len(destinationMap))
	var out []string
	for _, d := range destinationMap {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// Resolve matches free text against the destination table using
// case-insensitive substring matching in both directions, so "baqueira",
// "Baqueira Beret" and "costa blanca" all resolve. Returns the display
// name and true, or "" and false when nothing matches.
func Resolve(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(strings.TrimSpace(text))

	// Direct fragment hit inside the query text.
	for fragment, destination := range destinationMap {
		if strings.Contains(lower, fragment) {
			return destination, true
		}
	}

	// Query text contained in a display name ("blanca" -> "Costa Blanca").
	for _, destination := range destinationMap {
		if strings.Contains(strings.ToLower(destination), lower) {
			return destination, true
		}
	}

	return "", false
}

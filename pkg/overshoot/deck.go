package overshoot

import "slices"

// StandardCards is the default draw-value set; the first card is the
// baseline slot
var StandardCards = []int{1, 2, 4, 8, 16, 32, 64}

// Deck returns a copy of cards with the baseline slot (index 0) replaced by
// baseline. The baseline is not checked here; New rejects non-positive values.
func Deck(cards []int, baseline int) []int {
	deck := slices.Clone(cards)
	if len(deck) > 0 {
		deck[0] = baseline
	}
	return deck
}

// StandardDeck returns StandardCards with the given baseline card
func StandardDeck(baseline int) []int {
	return Deck(StandardCards, baseline)
}

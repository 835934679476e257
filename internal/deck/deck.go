// internal/deck/deck.go
package deck

// Size is the number of cards in a full deck.
const Size = 52

// HandSize is the number of cards shown per round.
const HandSize = 4

// Deck is an ordered set of cards.
type Deck []Card

// New builds the 52-card deck in canonical order: suits outer, ranks inner.
func New() Deck {
	d := make(Deck, 0, Size)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			d = append(d, Card{Rank: rank, Suit: suit})
		}
	}
	return d
}

// Shuffle permutes the deck in place with a Fisher-Yates pass driven by src.
func (d Deck) Shuffle(src Source) {
	for i := len(d) - 1; i > 0; i-- {
		j := int(src.Next() * float64(i+1))
		// guard against a misbehaving source returning 1.0
		if j > i {
			j = i
		}
		d[i], d[j] = d[j], d[i]
	}
}

// BuildShuffled builds a fresh deck, shuffles it and returns its first HandSize cards.
// The rest of the deck is discarded.
func BuildShuffled(src Source) []Card {
	d := New()
	d.Shuffle(src)
	hand := make([]Card, HandSize)
	copy(hand, d[:HandSize])
	return hand
}

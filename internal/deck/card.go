// internal/deck/card.go
package deck

import (
	"errors"
	"fmt"
	"strings"
)

// AssetExt is the image extension appended to every card code.
const AssetExt = ".png"

// ErrInvalidCode is returned when a card code does not name one of the 52 cards.
var ErrInvalidCode = errors.New("invalid card code")

// Ranks lists the 13 rank symbols in canonical order.
var Ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// Suits lists the 4 suit codes in canonical order.
var Suits = []string{"H", "D", "C", "S"}

// Card is a single playing card. The zero value is not a valid card.
type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// Code returns the rank followed by the suit code, e.g. "AH" or "10S".
func (c Card) Code() string {
	return c.Rank + c.Suit
}

// AssetName returns the image file name for the card, e.g. "AH.png".
func (c Card) AssetName() string {
	return DeriveAssetName(c.Rank, c.Suit)
}

// Value returns the card's point value: A is 1, number cards their number, J 11, Q 12, K 13.
func (c Card) Value() int {
	return RankValue(c.Rank)
}

func (c Card) String() string {
	return c.Code()
}

// DeriveAssetName concatenates rank, suit and the image extension.
func DeriveAssetName(rank, suit string) string {
	return rank + suit + AssetExt
}

// RankValue maps a rank symbol to its point value, or 0 for an unknown rank.
func RankValue(rank string) int {
	for i, r := range Ranks {
		if r == rank {
			return i + 1
		}
	}
	return 0
}

// ParseCode parses a card code such as "QD" or "10C". A trailing ".png" is accepted.
func ParseCode(code string) (Card, error) {
	s := strings.TrimSuffix(strings.TrimSpace(code), AssetExt)
	if len(s) < 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	rank, suit := s[:len(s)-1], s[len(s)-1:]
	if !contains(Ranks, rank) || !contains(Suits, suit) {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	return Card{Rank: rank, Suit: suit}, nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

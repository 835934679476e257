// internal/models/round.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/fourcard/internal/deck"
)

// Image pairs a card code with the URL the display slot should load.
type Image struct {
	Code string `json:"code"`
	URL  string `json:"url"`
}

// Round is one dealt selection of cards and the paths assigned to the display slots.
type Round struct {
	ID      uuid.UUID   `json:"id"`
	TableID uuid.UUID   `json:"table_id"`
	Seq     int         `json:"seq"`
	Theme   string      `json:"theme"`
	Cards   []deck.Card `json:"cards"`
	Images  []Image     `json:"images"`
	DealtAt time.Time   `json:"dealt_at"`

	// FailedSlots lists slot indexes the display sink refused.
	FailedSlots []int `json:"failed_slots,omitempty"`
}

// Question renders the round as the "[A, 2, 2, 8]" prompt shown under the cards.
func (r Round) Question() string {
	s := "["
	for i, c := range r.Cards {
		if i > 0 {
			s += ", "
		}
		s += c.Rank
	}
	return s + "]"
}

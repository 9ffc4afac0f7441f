package domain

import (
	"time"

	"github.com/google/uuid"
)

// Deck is a named collection of flashcards owned by a single user.
type Deck struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnedBy reports whether the deck belongs to userID.
func (d *Deck) OwnedBy(userID uuid.UUID) bool {
	return d.UserID == userID
}

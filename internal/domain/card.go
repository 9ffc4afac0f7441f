package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardUserIDEmpty is returned when a card's user ID is empty or nil.
	ErrCardUserIDEmpty = errors.New("card user ID cannot be empty")

	// ErrCardDeckIDEmpty is returned when a card's deck ID is empty or nil.
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")

	// ErrCardContentEmpty is returned when the front or back text of a card is empty.
	ErrCardContentEmpty = errors.New("card content cannot be empty")
)

// Difficulty is the difficulty level a model assigns to a flashcard.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
	DifficultyNotSet Difficulty = "NOT_SET"
)

// ParseDifficulty maps a loosely formatted difficulty string to a Difficulty.
// Absent or unrecognized values map to DifficultyNotSet.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToUpper(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyMedium:
		return DifficultyMedium
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyNotSet
	}
}

// ContentType describes what a card side holds.
type ContentType string

const (
	ContentTextOnly ContentType = "TEXT_ONLY"
	ContentCodeOnly ContentType = "CODE_ONLY"
	ContentMixed    ContentType = "MIXED"
)

// ParseContentType maps a loosely formatted content type string to a ContentType.
// Absent or unrecognized values map to ContentTextOnly.
func ParseContentType(s string) ContentType {
	switch ContentType(strings.ToUpper(strings.TrimSpace(s))) {
	case ContentCodeOnly:
		return ContentCodeOnly
	case ContentMixed:
		return ContentMixed
	default:
		return ContentTextOnly
	}
}

// CodeBlock is a snippet of source code attached to a card side.
type CodeBlock struct {
	Language    string `json:"language"`
	Code        string `json:"code"`
	FileName    string `json:"fileName,omitempty"`
	Highlighted bool   `json:"highlighted"`
}

// CardSide is the content of the front or the back of a card.
type CardSide struct {
	Text       string      `json:"text"`
	CodeBlocks []CodeBlock `json:"codeBlocks"`
	Type       ContentType `json:"type"`
}

// DraftFlashcard is a flashcard decoded from model output that has not been
// persisted yet. DeckID and UserID carry the caller's identifiers through the
// pipeline so the batch can be saved without further lookups.
type DraftFlashcard struct {
	DeckID     uuid.UUID  `json:"deckId"`
	UserID     uuid.UUID  `json:"userId"`
	Front      CardSide   `json:"front"`
	Back       CardSide   `json:"back"`
	Hint       string     `json:"hint,omitempty"`
	Tags       []string   `json:"tags"`
	Difficulty Difficulty `json:"difficulty"`
}

// Flashcard is a card stored in a deck.
type Flashcard struct {
	ID         uuid.UUID  `json:"id"`
	DeckID     uuid.UUID  `json:"deck_id"`
	UserID     uuid.UUID  `json:"user_id"`
	Front      CardSide   `json:"front"`
	Back       CardSide   `json:"back"`
	Hint       string     `json:"hint,omitempty"`
	Tags       []string   `json:"tags"`
	Difficulty Difficulty `json:"difficulty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewFlashcard creates a Flashcard from a draft, assigning a new ID and
// timestamps. Returns an error if validation fails.
func NewFlashcard(draft DraftFlashcard) (*Flashcard, error) {
	now := time.Now().UTC()
	card := &Flashcard{
		ID:         uuid.New(),
		DeckID:     draft.DeckID,
		UserID:     draft.UserID,
		Front:      draft.Front,
		Back:       draft.Back,
		Hint:       draft.Hint,
		Tags:       draft.Tags,
		Difficulty: draft.Difficulty,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Flashcard has valid data.
func (c *Flashcard) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.UserID == uuid.Nil {
		return ErrCardUserIDEmpty
	}

	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}

	if strings.TrimSpace(c.Front.Text) == "" && len(c.Front.CodeBlocks) == 0 {
		return ErrCardContentEmpty
	}

	if strings.TrimSpace(c.Back.Text) == "" && len(c.Back.CodeBlocks) == 0 {
		return ErrCardContentEmpty
	}

	if c.Difficulty == "" {
		c.Difficulty = DifficultyNotSet
	}

	return nil
}

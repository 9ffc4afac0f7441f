// Package domain contains the flashcard entities shared by the generation
// pipeline, the store and the HTTP layer: decks, persisted flashcards and the
// draft flashcards produced from model output.
package domain

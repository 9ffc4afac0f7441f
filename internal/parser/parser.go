// Package parser turns loosely structured model output into typed results.
//
// Flashcard output is expected to be a JSON array of card objects, but models
// wrap it in markdown fences, surround it with prose, cut it off mid-array or
// emit a few malformed records. The parser recovers every well-formed record
// and reports a classified error only when nothing usable remains.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/platform/logger"
)

var (
	// ErrParse is the parent of every output decoding failure.
	ErrParse = errors.New("failed to parse model output")

	// ErrTruncated is returned when the output array never closes.
	ErrTruncated = fmt.Errorf("%w: response truncated", ErrParse)

	// ErrMalformed is returned when the outer array cannot be decoded.
	ErrMalformed = fmt.Errorf("%w: malformed response", ErrParse)

	// ErrNoValidResults is returned when the array decoded but no record was usable.
	ErrNoValidResults = errors.New("no valid results in model output")
)

// Batch is the outcome of parsing one flashcard response.
type Batch struct {
	Cards []domain.DraftFlashcard
	// Dropped counts records that were skipped as malformed.
	Dropped int
	// Repaired is true when the array needed a syntax repair pass.
	Repaired bool
}

// Parser decodes model output. It is safe for concurrent use.
type Parser struct {
	logger *slog.Logger
}

// New creates a Parser. If logger is nil, slog.Default() is used.
func New(l *slog.Logger) *Parser {
	if l == nil {
		l = slog.Default()
	}
	return &Parser{logger: l.With(slog.String("component", "response_parser"))}
}

// ParseFlashcards extracts draft flashcards from raw model output.
//
// The steps are applied in order: trim, strip one markdown fence, slice from
// the first '[' to the last ']', reject output whose slice does not end with
// ']' or whose brackets never close as truncated, decode the array (with one
// syntax repair pass), then decode each record on its own.
// Malformed records are dropped. Returns ErrTruncated, ErrMalformed or
// ErrNoValidResults when nothing usable remains.
func (p *Parser) ParseFlashcards(ctx context.Context, raw string, requested int) (Batch, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	array, err := extractArray(raw)
	if err != nil {
		log.Warn("flashcard response rejected",
			slog.String("error", err.Error()),
			slog.Int("response_length", len(raw)))
		return Batch{}, err
	}

	var batch Batch
	var records []json.RawMessage
	if err := json.Unmarshal([]byte(array), &records); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(array)
		if repairErr != nil {
			return Batch{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if err := json.Unmarshal([]byte(repaired), &records); err != nil {
			return Batch{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		batch.Repaired = true
		log.Debug("flashcard array needed syntax repair")
	}

	for i, rec := range records {
		card, err := decodeCard(rec)
		if err != nil {
			batch.Dropped++
			log.Warn("dropping malformed flashcard record",
				slog.Int("index", i),
				slog.String("reason", err.Error()))
			continue
		}
		batch.Cards = append(batch.Cards, card)
	}

	if len(batch.Cards) == 0 {
		return batch, fmt.Errorf("%w: %d records, all unusable", ErrNoValidResults, len(records))
	}

	if requested > 0 && len(batch.Cards) < requested {
		log.Warn("model returned fewer flashcards than requested",
			slog.Int("requested", requested),
			slog.Int("parsed", len(batch.Cards)),
			slog.Int("dropped", batch.Dropped))
	}

	return batch, nil
}

// extractArray applies the trim, fence and slice steps and classifies
// truncated or array-less output.
func extractArray(raw string) (string, error) {
	text := StripFence(raw)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrMalformed)
	}

	start := strings.IndexByte(text, '[')
	if start < 0 {
		return "", fmt.Errorf("%w: no JSON array found", ErrMalformed)
	}

	end := strings.LastIndexByte(text, ']')
	sliced := text[start:]
	if end > start {
		sliced = text[start : end+1]
	}

	sliced = strings.TrimSpace(sliced)
	if !strings.HasSuffix(sliced, "]") {
		return "", ErrTruncated
	}

	// The last ']' may belong to a nested value of a cut-off array, or the
	// array may be followed by prose containing brackets. A closer that does
	// not match its opener is a syntax error, left to the decode and repair
	// passes.
	closing, matched := outerArrayEnd(sliced)
	switch {
	case !matched:
		return sliced, nil
	case closing < 0:
		return "", ErrTruncated
	}
	return sliced[:closing+1], nil
}

// outerArrayEnd returns the index of the bracket that closes the value
// opening at s[0], or -1 if it never closes. matched is false when a
// closing bracket does not pair with the innermost open one. Brackets
// inside JSON strings are ignored.
func outerArrayEnd(s string) (end int, matched bool) {
	var open []byte
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			open = append(open, c)
		case ']', '}':
			if len(open) == 0 || open[len(open)-1] != openerOf[c] {
				return -1, false
			}
			open = open[:len(open)-1]
			if len(open) == 0 {
				return i, true
			}
		}
	}
	return -1, true
}

var openerOf = map[byte]byte{']': '[', '}': '{'}

// StripFence trims text and removes one leading markdown code fence (with
// an optional language tag) and one trailing fence.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimLeftFunc(text, func(r rune) bool {
			return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
		})
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// CleanSummary prepares plain-text summary output: trims it and removes a
// surrounding code fence line if the model added one.
func CleanSummary(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// cardRecord is the decoding schema of one card. Pointer fields distinguish
// absent values from empty ones.
type cardRecord struct {
	Front      *sideRecord `json:"front"`
	Back       *sideRecord `json:"back"`
	Question   *string     `json:"question"`
	Answer     *string     `json:"answer"`
	Hint       *string     `json:"hint"`
	Tags       []string    `json:"tags"`
	Difficulty *string     `json:"difficulty"`
}

type sideRecord struct {
	Text       *string           `json:"text"`
	CodeBlocks []codeBlockRecord `json:"codeBlocks"`
	Type       *string           `json:"type"`
}

// UnmarshalJSON accepts either a side object or a bare string.
func (s *sideRecord) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*s = sideRecord{Text: &text}
		return nil
	}
	type plain sideRecord
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = sideRecord(p)
	return nil
}

type codeBlockRecord struct {
	Language    *string `json:"language"`
	Code        *string `json:"code"`
	FileName    *string `json:"fileName"`
	Highlighted *bool   `json:"highlighted"`
}

func decodeCard(raw json.RawMessage) (domain.DraftFlashcard, error) {
	var rec cardRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.DraftFlashcard{}, fmt.Errorf("invalid record shape: %w", err)
	}

	if rec.Front == nil && rec.Question != nil {
		rec.Front = &sideRecord{Text: rec.Question}
	}
	if rec.Back == nil && rec.Answer != nil {
		rec.Back = &sideRecord{Text: rec.Answer}
	}

	front, ok := decodeSide(rec.Front)
	if !ok {
		return domain.DraftFlashcard{}, errors.New("missing front content")
	}
	back, ok := decodeSide(rec.Back)
	if !ok {
		return domain.DraftFlashcard{}, errors.New("missing back content")
	}

	card := domain.DraftFlashcard{
		Front:      front,
		Back:       back,
		Hint:       deref(rec.Hint),
		Tags:       cleanTags(rec.Tags),
		Difficulty: domain.ParseDifficulty(deref(rec.Difficulty)),
	}
	return card, nil
}

// decodeSide returns false when the side carries neither text nor code.
func decodeSide(s *sideRecord) (domain.CardSide, bool) {
	if s == nil {
		return domain.CardSide{}, false
	}

	side := domain.CardSide{
		Text:       strings.TrimSpace(deref(s.Text)),
		CodeBlocks: []domain.CodeBlock{},
		Type:       domain.ParseContentType(deref(s.Type)),
	}
	for _, cb := range s.CodeBlocks {
		code := deref(cb.Code)
		if strings.TrimSpace(code) == "" {
			continue
		}
		side.CodeBlocks = append(side.CodeBlocks, domain.CodeBlock{
			Language:    deref(cb.Language),
			Code:        code,
			FileName:    deref(cb.FileName),
			Highlighted: cb.Highlighted != nil && *cb.Highlighted,
		})
	}

	if side.Text == "" && len(side.CodeBlocks) == 0 {
		return domain.CardSide{}, false
	}
	return side, true
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

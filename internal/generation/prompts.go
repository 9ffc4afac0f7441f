package generation

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/invopop/jsonschema"
	"github.com/phrazzld/cardforge/internal/domain"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// promptCard is the card shape models are asked to produce. It mirrors what
// the parser accepts and exists only to generate the schema.
type promptCard struct {
	Front      promptSide `json:"front" jsonschema:"description=Question or prompt side"`
	Back       promptSide `json:"back" jsonschema:"description=Answer side"`
	Hint       string     `json:"hint,omitempty" jsonschema:"description=Optional helpful hint"`
	Tags       []string   `json:"tags" jsonschema:"description=Categorization tags"`
	Difficulty string     `json:"difficulty" jsonschema:"enum=EASY,enum=MEDIUM,enum=HARD,enum=NOT_SET"`
}

type promptSide struct {
	Text       string            `json:"text"`
	CodeBlocks []promptCodeBlock `json:"codeBlocks"`
	Type       string            `json:"type" jsonschema:"enum=TEXT_ONLY,enum=CODE_ONLY,enum=MIXED"`
}

type promptCodeBlock struct {
	Language    string `json:"language"`
	Code        string `json:"code"`
	FileName    string `json:"fileName,omitempty"`
	Highlighted bool   `json:"highlighted"`
}

type flashcardPrompt struct {
	Count        int
	Source       string
	Topic        string
	Schema       string
	Difficulties []string
	ContentTypes []string
}

type summaryPrompt struct {
	Length       string
	Words        int
	Format       string
	Instructions string
	Source       string
}

// prompts renders the embedded instruction templates.
type prompts struct {
	tmpl   *template.Template
	schema string
}

func loadPrompts() (*prompts, error) {
	tmpl, err := template.New("prompts").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(promptFS, "prompts/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}

	schema, err := flashcardSchema()
	if err != nil {
		return nil, err
	}
	return &prompts{tmpl: tmpl, schema: schema}, nil
}

// flashcardSchema returns the indented JSON Schema of the expected output array.
func flashcardSchema() (string, error) {
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	card := r.Reflect(&promptCard{})
	card.Version = ""

	array := &jsonschema.Schema{Type: "array", Items: card}
	b, err := json.MarshalIndent(array, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode flashcard schema: %w", err)
	}
	return string(b), nil
}

func (p *prompts) flashcards(name string, count int, source, topic string) (string, error) {
	return p.render(name, flashcardPrompt{
		Count:  count,
		Source: source,
		Topic:  topic,
		Schema: p.schema,
		Difficulties: []string{
			string(domain.DifficultyEasy), string(domain.DifficultyMedium),
			string(domain.DifficultyHard), string(domain.DifficultyNotSet),
		},
		ContentTypes: []string{
			string(domain.ContentTextOnly), string(domain.ContentCodeOnly), string(domain.ContentMixed),
		},
	})
}

func (p *prompts) summary(format SummaryFormat, length SummaryLength, words int, instructions, source string) (string, error) {
	return p.render("summary", summaryPrompt{
		Length:       strings.ToLower(string(length)),
		Words:        words,
		Format:       strings.ToLower(strings.ReplaceAll(string(format), "_", " ")),
		Instructions: instructions,
		Source:       source,
	})
}

func (p *prompts) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute %s prompt template: %w", name, err)
	}
	return buf.String(), nil
}

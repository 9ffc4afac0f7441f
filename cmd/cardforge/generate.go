package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/generation"
)

func generateCmd(c *cli) *cobra.Command {
	var (
		file   string
		prompt string
		topic  string
		model  string
		count  int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate flashcards from a text file or a prompt",
		Example: `  cardforge generate --file notes.md --count 10
  cardforge generate --prompt "Explain Go channels" --topic concurrency
  cat notes.md | cardforge generate --file -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var op generation.Operation
			switch {
			case file != "" && prompt != "":
				return errors.New("--file and --prompt are mutually exclusive")
			case file != "":
				text, err := readInput(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				op = generation.TextToFlashcards{Text: text, Count: count}
			case prompt != "":
				op = generation.PromptToFlashcards{Prompt: prompt, Topic: topic, Count: count}
			default:
				return errors.New("one of --file or --prompt is required")
			}

			s, err := c.stack(cmd.Context())
			if err != nil {
				return err
			}
			res, err := s.Orchestrator.Run(cmd.Context(), op, model)
			if err != nil {
				return err
			}
			cards := res.(*generation.FlashcardsResult)

			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), cards)
			}
			return printFlashcards(cmd.OutOrStdout(), cards)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Source text file (- for stdin)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Instruction to generate flashcards from")
	cmd.Flags().StringVar(&topic, "topic", "", "Topic hint for --prompt")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model id or name (default: provider default)")
	cmd.Flags().IntVarP(&count, "count", "n", 5, "Number of flashcards")
	return cmd
}

func summarizeCmd(c *cli) *cobra.Command {
	var (
		file   string
		prompt string
		format string
		length string
		model  string
		words  int
	)

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a text file or a prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			op := generation.ContentToSummary{
				Format:     generation.SummaryFormat(strings.ToUpper(format)),
				Length:     generation.SummaryLength(strings.ToUpper(length)),
				WordTarget: words,
			}
			switch {
			case file != "" && prompt != "":
				return errors.New("--file and --prompt are mutually exclusive")
			case file != "":
				text, err := readInput(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				op.SourceType = generation.SourceText
				op.Text = text
			case prompt != "":
				op.SourceType = generation.SourcePrompt
				op.Prompt = prompt
			default:
				return errors.New("one of --file or --prompt is required")
			}

			s, err := c.stack(cmd.Context())
			if err != nil {
				return err
			}
			res, err := s.Orchestrator.Run(cmd.Context(), op, model)
			if err != nil {
				return err
			}
			summary := res.(*generation.SummaryResult)

			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, summary.Summary)
			fmt.Fprintln(w, color.HiBlackString("%d words, %s, %dms", summary.WordCount, summary.Model, summary.GenerationTimeMs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Source text file (- for stdin)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Prompt to summarize")
	cmd.Flags().StringVar(&format, "format", string(generation.FormatParagraph), "PARAGRAPH, BULLET_POINTS, NUMBERED_LIST, OUTLINE or MARKDOWN")
	cmd.Flags().StringVar(&length, "length", string(generation.LengthMedium), "SHORT, MEDIUM, LONG or DETAILED")
	cmd.Flags().IntVar(&words, "words", 0, "Target word count (overrides --length)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model id or name")
	return cmd
}

func readInput(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

func printFlashcards(w io.Writer, res *generation.FlashcardsResult) error {
	for i, card := range res.Cards {
		fmt.Fprintf(w, "%s %s\n", color.CyanString("Q%d:", i+1), sideText(card.Front))
		fmt.Fprintf(w, "%s %s\n\n", color.GreenString("A%d:", i+1), sideText(card.Back))
	}
	footer := fmt.Sprintf("%d cards from %s", len(res.Cards), res.Model)
	if res.Dropped > 0 {
		footer += color.YellowString(" (%d dropped)", res.Dropped)
	}
	_, err := fmt.Fprintln(w, color.HiBlackString("%s", footer))
	return err
}

func sideText(s domain.CardSide) string {
	var b strings.Builder
	b.WriteString(s.Text)
	for _, cb := range s.CodeBlocks {
		fmt.Fprintf(&b, "\n```%s\n%s\n```", cb.Language, cb.Code)
	}
	return b.String()
}

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/phrazzld/cardforge/internal/catalog"
	"github.com/phrazzld/cardforge/internal/selector"
)

type modelRow struct {
	ID          string           `json:"id"`
	DisplayName string           `json:"displayName"`
	Provider    catalog.Provider `json:"provider"`
	Vision      bool             `json:"vision"`
	Recommended bool             `json:"recommended"`
	Available   bool             `json:"available"`
}

func modelsCmd(c *cli) *cobra.Command {
	var (
		available bool
		provider  string
	)

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the model catalog and provider availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.stack(cmd.Context())
			if err != nil {
				return err
			}

			var filter catalog.Provider
			if provider != "" {
				if filter, err = catalog.ParseProvider(provider); err != nil {
					return err
				}
			}

			rows := modelRows(s.Selector, filter, available)
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			return printModels(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().BoolVarP(&available, "available", "a", false, "Only show models with a configured provider")
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Filter by provider (openai, anthropic, google)")
	return cmd
}

func modelRows(sel *selector.Selector, filter catalog.Provider, onlyAvailable bool) []modelRow {
	var rows []modelRow
	for _, m := range sel.Catalog().Models() {
		if filter != "" && m.Provider != filter {
			continue
		}
		ok := sel.IsAvailable(m)
		if onlyAvailable && !ok {
			continue
		}
		rows = append(rows, modelRow{
			ID:          m.ID,
			DisplayName: m.DisplayName,
			Provider:    m.Provider,
			Vision:      m.SupportsVision,
			Recommended: m.RecommendedForFlashcards,
			Available:   ok,
		})
	}
	return rows
}

func printModels(w io.Writer, rows []modelRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, color.YellowString("No models match."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, color.CyanString("MODEL")+"\tPROVIDER\tVISION\tSTATUS")
	for _, r := range rows {
		status := color.RedString("unavailable")
		if r.Available {
			status = color.GreenString("available")
		}
		name := r.ID
		if r.Recommended {
			name += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, r.Provider, yesNo(r.Vision), status)
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return color.HiBlackString("no")
}

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/davidbz/creditmeter/internal/domain"
)

const tableWidth = 120

func (s *state) modelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List catalog models and their token prices",
		Long: `List every catalog entry with its per-million token prices.

On a terminal the table is rendered; otherwise it is printed as markdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			billing, _, err := s.services()
			if err != nil {
				return err
			}

			models, err := billing.Models(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if s.format == formatJSON {
				return printJSON(out, models)
			}

			table := modelTable(models)
			if !isTerminal(out) {
				_, err = io.WriteString(out, table)
				return err
			}
			return renderMarkdown(out, table)
		},
	}
}

func modelTable(models []domain.ModelInfo) string {
	var b strings.Builder
	b.WriteString("| Model | Modality | Chargeable | Input | Output | Cache read | Cache write |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")

	for _, m := range models {
		chargeable := "no"
		if m.Chargeable {
			chargeable = "yes"
		}
		fmt.Fprintf(&b, "| %s/%s | %s | %s | %s | %s | %s | %s |\n",
			m.ProviderID, m.ModelID, m.Modality, chargeable,
			priceLabel(m.InputTokenPrice),
			priceLabel(m.OutputTokenPrice),
			priceLabel(m.CachedInputTokenPrice),
			priceLabel(m.CacheInputTokenPrice))
	}

	return b.String()
}

func renderMarkdown(w io.Writer, markdown string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.DarkStyleConfig),
		glamour.WithWordWrap(tableWidth),
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}

	rendered, err := r.Render(markdown)
	if err != nil {
		return fmt.Errorf("unable to render markdown: %w", err)
	}

	_, err = io.WriteString(w, rendered)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec
}

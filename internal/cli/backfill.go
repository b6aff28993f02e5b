package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/usage"
)

type backfillView struct {
	Records int        `json:"records"`
	Charged int        `json:"charged"`
	Total   string     `json:"total"`
	Costs   []costView `json:"costs"`
}

func (s *state) backfillCommand() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "backfill <records.jsonl>",
		Short: "Reprice a log of usage records",
		Long: `Reprice exported usage records against the current catalog.

The input holds one JSON usage record after another ("-" for stdin). Costs are
printed in input order. The first record that cannot be priced stops the run.

Examples:
  costctl backfill usage.jsonl
  costctl backfill --concurrency 16 --format json usage.jsonl > costs.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency > 0 {
				s.cfg.Billing.BackfillConcurrency = concurrency
			}
			return s.runBackfill(cmd, args[0])
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "records priced in parallel (default from BILLING_BACKFILL_CONCURRENCY)")

	return cmd
}

func (s *state) runBackfill(cmd *cobra.Command, path string) error {
	records, err := openRecords(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	billing, decoder, err := s.services()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	batch := make([]domain.UsageRecord, len(records))
	for i, record := range records {
		if err := s.resolve(ctx, &record.Model); err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
		batch[i], err = record.UsageRecord(ctx, decoder)
		if err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
	}

	costs, err := billing.Backfill(ctx, batch)
	if err != nil {
		return err
	}

	view := backfillView{Records: len(records), Costs: make([]costView, len(costs))}
	total := decimal.Zero
	for i, cost := range costs {
		view.Costs[i] = newCostView(batch[i].Ref, cost)
		if amount, ok := cost.Amount(); ok {
			total = total.Add(amount)
			view.Charged++
		}
	}
	view.Total = total.StringFixed(10)

	out := cmd.OutOrStdout()
	if s.format == formatJSON {
		return printJSON(out, view)
	}

	for i, c := range view.Costs {
		value := "no cost"
		if !c.NoCost {
			value = c.Cost.String()
		}
		fmt.Fprintf(out, "%d\t%s\t%s\n", i+1, c.Model, value)
	}
	_, err = fmt.Fprintf(out, "total %s over %d charged of %d records\n", view.Total, view.Charged, view.Records)
	return err
}

func openRecords(path string, stdin io.Reader) ([]usage.Record, error) {
	if path == "-" {
		return usage.ReadRecords(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage log: %w", err)
	}
	defer f.Close()

	return usage.ReadRecords(f)
}

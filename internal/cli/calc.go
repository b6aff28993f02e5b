package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davidbz/creditmeter/internal/provider/response"
	"github.com/davidbz/creditmeter/internal/usage"
)

type calcOptions struct {
	model    string
	modality string
	input    int64
	output   int64
	cached   int64
	metadata string
	file     string
	response string
}

func (s *state) calcCommand() *cobra.Command {
	var opts calcOptions

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute the exact cost of a completed call",
		Long: `Compute the cost of one completed call from its reported usage.

Usage comes either from flags or from a JSON usage record (--file, "-" for
stdin) in the same form the HTTP API accepts.

Examples:
  costctl calc --model anthropic/claude-sonnet-4 --input 1200 --output 300 \
    --metadata '{"anthropic":{"cacheCreationInputTokens":500}}'
  costctl calc --file record.json --format json
  costctl calc --response anthropic --file message.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.runCalc(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "model as provider/model, or a model id served by one provider")
	cmd.Flags().StringVar(&opts.modality, "modality", "", "model modality (default language)")
	cmd.Flags().Int64Var(&opts.input, "input", 0, "input tokens, cached tokens included")
	cmd.Flags().Int64Var(&opts.output, "output", 0, "output tokens")
	cmd.Flags().Int64Var(&opts.cached, "cached", 0, "input tokens read from the prompt cache")
	cmd.Flags().StringVar(&opts.metadata, "metadata", "", "provider metadata as a JSON object keyed by provider")
	cmd.Flags().StringVar(&opts.file, "file", "", "read a JSON usage record from this file")
	cmd.Flags().StringVar(&opts.response, "response", "", "treat --file as a raw response body of this provider")
	cmd.MarkFlagsMutuallyExclusive("file", "metadata")

	return cmd
}

func (s *state) runCalc(cmd *cobra.Command, opts calcOptions) error {
	if opts.response != "" {
		return s.runCalcResponse(cmd, opts)
	}

	record, err := opts.record(cmd.InOrStdin())
	if err != nil {
		return err
	}

	billing, decoder, err := s.services()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := s.resolve(ctx, &record.Model); err != nil {
		return err
	}

	details, err := record.Details(ctx, decoder)
	if err != nil {
		return err
	}

	cost, err := billing.Charge(ctx, record.Ref(), details)
	if err != nil {
		return err
	}

	return s.printCost(cmd, newCostView(record.Ref(), cost))
}

func (s *state) runCalcResponse(cmd *cobra.Command, opts calcOptions) error {
	if opts.file == "" {
		return errors.New("--response needs the body in --file")
	}

	raw, err := readInput(opts.file, cmd.InOrStdin())
	if err != nil {
		return err
	}

	// --model overrides the model id the response reports.
	override := opts.model
	if _, model, ok := strings.Cut(override, "/"); ok {
		override = model
	}

	priced, err := response.Parse(opts.response, raw, override)
	if err != nil {
		return err
	}

	billing, _, err := s.services()
	if err != nil {
		return err
	}

	cost, err := billing.Charge(cmd.Context(), priced.Ref, priced.Details)
	if err != nil {
		return err
	}

	return s.printCost(cmd, newCostView(priced.Ref, cost))
}

func (s *state) printCost(cmd *cobra.Command, view costView) error {
	if s.format == formatJSON {
		return printJSON(cmd.OutOrStdout(), view)
	}
	return printCost(cmd.OutOrStdout(), view)
}

func (o calcOptions) record(stdin io.Reader) (usage.Record, error) {
	if o.file != "" {
		return readRecord(o.file, stdin)
	}
	if o.model == "" {
		return usage.Record{}, errors.New("either --model or --file is required")
	}

	model, err := parseModel(o.model, o.modality)
	if err != nil {
		return usage.Record{}, err
	}

	record := usage.Record{
		Model:             model,
		InputTokens:       o.input,
		OutputTokens:      o.output,
		CachedInputTokens: o.cached,
	}

	if o.metadata != "" {
		if err := json.Unmarshal([]byte(o.metadata), &record.ProviderMetadata); err != nil {
			return usage.Record{}, fmt.Errorf("invalid --metadata: %w", err)
		}
	}

	return record, nil
}

func readRecord(path string, stdin io.Reader) (usage.Record, error) {
	raw, err := readInput(path, stdin)
	if err != nil {
		return usage.Record{}, err
	}

	var record usage.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return usage.Record{}, fmt.Errorf("invalid usage record: %w", err)
	}
	return record, nil
}

// readInput reads a whole file, or stdin for "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return raw, nil
}

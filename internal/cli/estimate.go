package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/usage"
)

type estimateOptions struct {
	model      string
	modality   string
	system     string
	prompt     string
	promptFile string
}

type estimateView struct {
	Model    string          `json:"model"`
	Estimate domain.Estimate `json:"estimate"`
}

func (s *state) estimateCommand() *cobra.Command {
	var opts estimateOptions

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the cost of a call before it runs",
		Long: `Estimate the input cost of a language model call from its prompt.

The prompt is a single user message (--prompt), a JSON array of
{"role","content"} messages (--prompt-file, "-" for stdin), or text piped on
stdin. Models of other modalities estimate as unknown.

Examples:
  costctl estimate --model openai/gpt-4o --prompt "Summarize this ticket"
  cat transcript.txt | costctl estimate --model google/gemini-2.5-flash`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.runEstimate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "model as provider/model, or a model id served by one provider")
	cmd.Flags().StringVar(&opts.modality, "modality", "", "model modality (default language)")
	cmd.Flags().StringVar(&opts.system, "system", "", "system message prepended to the prompt")
	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "user message")
	cmd.Flags().StringVar(&opts.promptFile, "prompt-file", "", "JSON array of prompt messages")
	cmd.MarkFlagsMutuallyExclusive("prompt", "prompt-file")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func (s *state) runEstimate(cmd *cobra.Command, opts estimateOptions) error {
	model, err := parseModel(opts.model, opts.modality)
	if err != nil {
		return err
	}

	prompt, err := opts.messages(cmd.InOrStdin())
	if err != nil {
		return err
	}

	billing, _, err := s.services()
	if err != nil {
		return err
	}

	if err := s.resolve(cmd.Context(), &model); err != nil {
		return err
	}

	req := usage.EstimateRequest{Model: model, Prompt: prompt}
	estimate, err := billing.Estimate(cmd.Context(), req.Ref(), req.Options())
	if err != nil {
		return err
	}

	view := estimateView{Model: req.Ref().String(), Estimate: estimate}
	if s.format == formatJSON {
		return printJSON(cmd.OutOrStdout(), view)
	}

	out := cmd.OutOrStdout()
	switch estimate.Kind {
	case domain.EstimateAmount:
		amount, _ := estimate.Amount()
		_, err = fmt.Fprintf(out, "%s: at most %s (%d input tokens)\n",
			view.Model, amount.StringFixed(10), estimate.EstimatedTokens)
	case domain.EstimateNoCost:
		_, err = fmt.Fprintf(out, "%s: no cost\n", view.Model)
	default:
		_, err = fmt.Fprintf(out, "%s: unknown\n", view.Model)
	}
	return err
}

func (o estimateOptions) messages(stdin io.Reader) ([]domain.PromptMessage, error) {
	var prompt []domain.PromptMessage
	if o.system != "" {
		prompt = append(prompt, domain.PromptMessage{Role: "system", Content: o.system})
	}

	switch {
	case o.prompt != "":
		return append(prompt, domain.PromptMessage{Role: "user", Content: o.prompt}), nil

	case o.promptFile != "":
		messages, err := readMessages(o.promptFile, stdin)
		if err != nil {
			return nil, err
		}
		return append(prompt, messages...), nil

	case isPiped(stdin):
		text, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt: %w", err)
		}
		return append(prompt, domain.PromptMessage{Role: "user", Content: strings.TrimSpace(string(text))}), nil
	}

	if len(prompt) == 0 {
		return nil, errors.New("a prompt is required: use --prompt, --prompt-file or pipe it on stdin")
	}
	return prompt, nil
}

func readMessages(path string, stdin io.Reader) ([]domain.PromptMessage, error) {
	var src io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open prompt: %w", err)
		}
		defer f.Close()
		src = f
	}

	var messages []domain.PromptMessage
	if err := json.NewDecoder(src).Decode(&messages); err != nil {
		return nil, fmt.Errorf("invalid prompt messages: %w", err)
	}
	return messages, nil
}

// isPiped reports whether r carries data that is not typed at a terminal.
// Readers that are not files, such as test buffers, count as piped.
func isPiped(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	return !term.IsTerminal(int(f.Fd())) //nolint:gosec
}

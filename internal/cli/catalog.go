package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/davidbz/creditmeter/internal/catalog"
	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/observability"
)

// ErrCatalogIssues is returned by lint when prices will not resolve.
var ErrCatalogIssues = errors.New("catalog has price issues")

// replacer is a directory whose whole catalog can be swapped atomically.
type replacer interface {
	Replace(ctx context.Context, models []domain.ModelInfo) error
}

func (s *state) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage model catalog files",
	}

	cmd.AddCommand(
		s.catalogLintCommand(),
		s.catalogExportCommand(),
		s.catalogImportCommand(),
		s.catalogSchemaCommand(),
	)

	return cmd
}

func (s *state) catalogLintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <file>",
		Short: "Report catalog prices that will not resolve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}

			issues := catalog.Audit(models)
			out := cmd.OutOrStdout()

			if s.format == formatJSON {
				if issues == nil {
					issues = []catalog.Issue{}
				}
				if err := printJSON(out, issues); err != nil {
					return err
				}
			} else if err := printIssues(out, len(models), issues); err != nil {
				return err
			}

			if len(issues) > 0 {
				return fmt.Errorf("%w: %d", ErrCatalogIssues, len(issues))
			}
			return nil
		},
	}
}

func printIssues(w io.Writer, models int, issues []catalog.Issue) error {
	if len(issues) == 0 {
		_, err := fmt.Fprintf(w, "%d models, no issues\n", models)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tAXIS\tKEY\tPROBLEM")
	for _, issue := range issues {
		key := issue.Key
		if key == "" {
			key = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", issue.Ref, issue.Axis, key, issue.Problem)
	}
	return tw.Flush()
}

func (s *state) catalogExportCommand() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the active catalog as JSON",
		Long: `Write every model of the active directory as a JSON catalog.

The active directory is the shared Redis catalog with --redis, otherwise the
built-in catalog overlaid with --catalog.`,
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

			if outFile == "" {
				return catalog.Write(cmd.OutOrStdout(), models)
			}

			f, err := os.Create(outFile)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outFile, err)
			}
			if err := catalog.Write(f, models); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write to this file instead of stdout")

	return cmd
}

func (s *state) catalogImportCommand() *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a catalog file into the shared Redis catalog",
		Long: `Load a JSON or HCL catalog file into the shared Redis catalog.

By default the file replaces the whole catalog in one transaction. With
--merge its entries are added to or overwrite the existing ones.

Examples:
  costctl --redis localhost:6379 catalog import catalog.hcl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !s.cfg.Redis.Enabled {
				return errors.New("catalog import needs a shared catalog: pass --redis or set REDIS_ENABLED")
			}

			models, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := observability.FromContext(ctx)
			for _, issue := range catalog.Audit(models) {
				logger.Warn("importing price that will not resolve",
					observability.String("model", issue.Ref.String()),
					observability.String("axis", issue.Axis),
					observability.String("problem", issue.Problem))
			}

			var directory domain.ModelDirectory
			if err := s.container.Invoke(func(d domain.ModelDirectory) { directory = d }); err != nil {
				return fmt.Errorf("failed to open shared catalog: %w", err)
			}

			if merge {
				registrar, ok := directory.(catalog.Registrar)
				if !ok {
					return errors.New("model directory does not accept new entries")
				}
				err = catalog.Seed(ctx, registrar, models)
			} else {
				target, ok := directory.(replacer)
				if !ok {
					return errors.New("model directory cannot be replaced")
				}
				err = target.Replace(ctx, models)
			}
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d models into %s\n", len(models), directory)
			return err
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "add to the existing catalog instead of replacing it")

	return cmd
}

func (s *state) catalogSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of catalog files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), catalog.Schema())
		},
	}
}

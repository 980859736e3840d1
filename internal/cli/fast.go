package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
)

func newFastCommand(opts *options) *cobra.Command {
	var file string
	var reflect, fallback bool

	cmd := &cobra.Command{
		Use:   "fast",
		Short: "Analyze policy text",
		Long: `Analyze raw policy text. The fast analysis returns findings per control;
--reflect runs the slower reflective analysis instead. When the reflective
analysis rejects the text as too large, --fallback retries with the fast one.

Use --file - to read the policy from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			svc, err := newServices(cfg)
			if err != nil {
				return err
			}
			policy, err := readPolicy(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			if reflect {
				res, err := svc.workflow.ReflectAnalyze(ctx, policy)
				switch {
				case err == nil:
					return printOutcome(out, opts.output, res, RenderReflect(res))
				case errors.Is(err, analysis.ErrPayloadTooLarge) && fallback:
					fmt.Fprintln(cmd.ErrOrStderr(), "Policy text is too large for reflective analysis, falling back to fast analysis.")
				case errors.Is(err, analysis.ErrPayloadTooLarge):
					return fmt.Errorf("%w (rerun with --fallback)", analysis.ErrPayloadTooLarge)
				default:
					return err
				}
			}

			res, err := svc.workflow.FastAnalyze(ctx, policy)
			if err != nil {
				return err
			}
			return printOutcome(out, opts.output, res, RenderFast(res))
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "policy text file, - for stdin (required)")
	cmd.Flags().BoolVar(&reflect, "reflect", false, "run the reflective analysis")
	cmd.Flags().BoolVar(&fallback, "fallback", false, "fall back to the fast analysis when the text is too large")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readPolicy(stdin io.Reader, file string) (string, error) {
	if file == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(file)
	return string(b), err
}

// printOutcome writes the parsed value as JSON, or the raw body when the
// service did not answer JSON.
func printOutcome[T any](out io.Writer, format string, o analysis.Outcome[T], text string) error {
	if format != "json" {
		_, err := fmt.Fprint(out, text)
		return err
	}
	if !o.Parsed() {
		_, err := fmt.Fprintln(out, o.Raw)
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(o.Value)
}

package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/compliance-dashboard/internal/demo"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/dashboard"
)

func newRenderCommand(opts *options) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the dashboard of a stored analysis result",
		Long: `Render the compliance dashboard from an analysis result saved as JSON.
Without --input the built-in sample result is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validOutput(opts.output); err != nil {
				return err
			}
			res, sample, err := loadResult(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			v := dashboard.Build(res, time.Now(), demo.RandomNoise{})
			v.UsingSample = sample
			return printView(cmd.OutOrStdout(), opts.output, v)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "analysis result JSON file, - for stdin")
	return cmd
}

func validOutput(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}

func loadResult(stdin io.Reader, input string) (*analysis.Result, bool, error) {
	if input == "" {
		p, err := demo.NewProvider("")
		if err != nil {
			return nil, false, err
		}
		return p.Sample(), true, nil
	}
	var data []byte
	var err error
	if input == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return nil, false, err
	}
	out := analysis.DecodeOutcome[analysis.Result](data)
	if !out.Parsed() {
		return nil, false, fmt.Errorf("%s is not an analysis result", input)
	}
	return out.Value, false, nil
}

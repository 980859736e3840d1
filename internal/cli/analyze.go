package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/compliance-dashboard/internal/application"
	"github.com/bryanwahyu/compliance-dashboard/internal/application/workflow"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/dashboard"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/progress"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/upload"
	"github.com/bryanwahyu/compliance-dashboard/internal/middleware"
)

var errInterrupted = errors.New("interrupted")

func newAnalyzeCommand(opts *options) *cobra.Command {
	var pssiPaths []string
	var normPath string
	var demoSchedule bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Upload documents, analyze them and print the dashboard",
		Long: `Upload a security policy (PSSI), and optionally a regulatory framework, to
the analysis service. The analysis runs while the progress view plays, then the
compliance dashboard is printed.

Without --norm the policy is checked against the ANSSI hygiene guide.

Examples:
  compliancectl analyze --pssi policy.pdf
  compliancectl analyze --pssi policy.pdf --norm iso27001.pdf --no-tui
  compliancectl analyze --pssi policy.pdf --pssi annex.pdf --norm iso27001.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if demoSchedule {
				cfg.Progress.Total = progress.DemoConfig().Total
				cfg.Progress.MessageInterval = progress.DemoConfig().MessageInterval
			}
			svc, err := newServices(cfg)
			if err != nil {
				return err
			}

			form, err := formFromFiles(pssiPaths, normPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			ids, err := svc.workflow.Upload(ctx, form)
			if err != nil {
				return fmt.Errorf("upload: %w", err)
			}

			sid := uuid.New().String()
			run := svc.workflow.StartRun(sid, workflow.AnalyzeRequestFor(form, ids))
			if opts.noTUI || opts.output == "json" {
				err = waitRun(ctx, run)
			} else {
				err = showProgress(cmd.OutOrStdout(), run, svc.workflow.Clock)
			}
			if err != nil {
				return err
			}

			view := svc.dashboard.View(ctx, sid)
			if err := printView(cmd.OutOrStdout(), opts.output, view); err != nil {
				return err
			}
			// the dashboard already fell back to the sample; still report it
			return run.Err()
		},
	}

	cmd.Flags().StringArrayVar(&pssiPaths, "pssi", nil, "security policy document, repeatable with --norm (required)")
	cmd.Flags().StringVar(&normPath, "norm", "", "regulatory framework document")
	cmd.Flags().BoolVar(&demoSchedule, "demo", false, "use the short demo progress schedule")
	_ = cmd.MarkFlagRequired("pssi")
	return cmd
}

// formFromFiles fills an upload form: single mode without a norm file,
// pair mode with one. Only pair mode keeps several policy documents.
func formFromFiles(pssiPaths []string, normPath string) (*upload.Form, error) {
	mode := upload.ModeSingle
	if normPath != "" {
		mode = upload.ModePair
	}
	form := upload.NewForm(mode)
	if mode == upload.ModeSingle && len(pssiPaths) > 1 {
		return nil, fmt.Errorf("several --pssi files need a --norm document")
	}
	sel := func(field, path string) error {
		f, err := readUpload(path)
		if err != nil {
			return err
		}
		return form.Select(field, f)
	}
	if normPath != "" {
		if err := sel(upload.FieldNorm, normPath); err != nil {
			return nil, err
		}
	}
	for _, p := range pssiPaths {
		if err := sel(upload.FieldPSSI, p); err != nil {
			return nil, err
		}
	}
	return form, nil
}

func readUpload(path string) (upload.File, error) {
	name := filepath.Base(path)
	if err := middleware.ValidateFileName(name); err != nil {
		return upload.File{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return upload.File{}, err
	}
	return upload.File{Name: name, Size: int64(len(data)), Data: data}, nil
}

func showProgress(out io.Writer, run *workflow.Run, clock application.Clock) error {
	final, err := tea.NewProgram(newProgressModel(run, clock), tea.WithOutput(out)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(progressModel); ok && m.quitting {
		return errInterrupted
	}
	return nil
}

// waitRun blocks until the backend call returns, logging progress.
func waitRun(ctx context.Context, run *workflow.Run) error {
	ticker := time.NewTicker(run.Presenter.Config().Tick)
	defer ticker.Stop()
	last := ""
	for !run.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			snap := run.Presenter.Snapshot(now)
			if snap.Message != last {
				last = snap.Message
				log.WithField("progress", snap.PercentLabel()).Info(snap.Message)
			}
		}
	}
	if err := run.Err(); err != nil {
		log.WithError(err).Warn("analysis failed, showing sample data")
	}
	return nil
}

func printView(out io.Writer, format string, v dashboard.View) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprint(out, RenderDashboard(v))
	return err
}

package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/compliance-dashboard/internal/application"
	appdashboard "github.com/bryanwahyu/compliance-dashboard/internal/application/dashboard"
	"github.com/bryanwahyu/compliance-dashboard/internal/application/relay"
	"github.com/bryanwahyu/compliance-dashboard/internal/application/workflow"
	"github.com/bryanwahyu/compliance-dashboard/internal/config"
	"github.com/bryanwahyu/compliance-dashboard/internal/demo"
	"github.com/bryanwahyu/compliance-dashboard/internal/infra/backend"
	memstore "github.com/bryanwahyu/compliance-dashboard/internal/infra/session"
	"github.com/bryanwahyu/compliance-dashboard/internal/server"
)

// options are the global flags shared by every command.
type options struct {
	configPath string
	backendURL string
	output     string
	noTUI      bool
	verbose    bool
}

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "compliancectl",
		Short: "Compliance analysis from the terminal",
		Long: `compliancectl uploads security policies to the compliance analysis service,
follows the analysis and prints the compliance dashboard.

It can also analyse raw policy text, render a stored result and run the web
dashboard.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			server.SetupLogging(level, "text")
		},
	}

	defaultConfig := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfig, "config file path")
	rootCmd.PersistentFlags().StringVar(&opts.backendURL, "backend", "", "analysis service URL (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "output format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&opts.noTUI, "no-tui", false, "disable the interactive progress view")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(newAnalyzeCommand(opts))
	rootCmd.AddCommand(newFastCommand(opts))
	rootCmd.AddCommand(newRenderCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func (o *options) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.backendURL != "" {
		cfg.Backend.URL = strings.TrimRight(o.backendURL, "/")
	}
	switch o.output {
	case "text", "json":
	default:
		return nil, fmt.Errorf("unknown output format %q", o.output)
	}
	return cfg, nil
}

// services are the use-cases the terminal commands drive. Results are kept
// in an in-memory relay for the lifetime of the command.
type services struct {
	workflow  *workflow.Service
	dashboard *appdashboard.Service
}

func newServices(cfg *config.Config) (*services, error) {
	samples, err := demo.NewProvider(cfg.Demo.SampleFile)
	if err != nil {
		return nil, err
	}
	clock := application.SystemClock{}
	rel := relay.New(memstore.NewMemoryStore(), clock, time.Hour)

	wf := workflow.NewService(backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout), rel, clock, cfg.Progress)
	wf.Timeout = cfg.Backend.Timeout
	wf.Fast = server.FastAnalyzer(cfg)

	return &services{
		workflow:  wf,
		dashboard: &appdashboard.Service{Relay: rel, Samples: samples, Noise: demo.RandomNoise{}, Clock: clock},
	}, nil
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			if version == "dev" || version == "" {
				version = "development"
			}
			if commit == "none" || commit == "" {
				commit = "local-build"
			}
			if date == "unknown" || date == "" {
				date = "local-build"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "compliancectl %s (%s) built on %s\n", version, commit, date)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

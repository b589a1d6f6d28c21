package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/config"
	"github.com/vango-dev/reactor/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬─┐┌─┐┌─┐┌─┐┌┬┐┌─┐┬─┐
  ├┬┘├┤ ├─┤│   │ │ │├┬┘
  ┴└─└─┘┴ ┴└─┘ ┴ └─┘┴└─
`

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

// app holds state shared by all commands once flags are parsed.
type app struct {
	configPath string
	noColor    bool

	cfg    *config.Config
	logger *slog.Logger
}

// load reads the configuration and builds the logger. Diagnostics go to
// stderr so that --json output stays clean.
func (a *app) load(cmd *cobra.Command) error {
	if a.noColor {
		errors.DisableColors()
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.Logger(cmd.ErrOrStderr())
	if path := cfg.Path(); path != "" {
		a.logger.Debug("configuration loaded", "path", path)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "reactor",
		Short: "Play and measure reactive state scenarios",
		Long: `Reactor drives the fine-grained reactive engine from the command line.

  • run YAML scenarios and print every effect run and watch callback
  • benchmark batched effects and expose Prometheus metrics
  • explain diagnostic codes`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default ./reactor.yaml)")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		runCmd(a),
		benchCmd(a),
		explainCmd(),
		versionCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// printBanner prints the reactor ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	_, _ = successColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	_, _ = warningColor.Fprintf(w, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// section prints a section header.
func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	_, _ = headerColor.Fprintf(w, "▸ %s\n", title)
	fmt.Fprintln(w)
}

// labelValue prints an aligned label/value pair.
func labelValue(w io.Writer, label string, value any) {
	_, _ = labelColor.Fprintf(w, "  %-12s", label+":")
	fmt.Fprintf(w, " %v\n", value)
}

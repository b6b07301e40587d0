// Package main provides the CLI entrypoint for wpmbar.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/wpmbar/internal/config"
	"github.com/verte-zerg/wpmbar/internal/counter"
	"github.com/verte-zerg/wpmbar/internal/logging"
	"github.com/verte-zerg/wpmbar/internal/model"
	"github.com/verte-zerg/wpmbar/internal/simulate"
	"github.com/verte-zerg/wpmbar/internal/stats"
	"github.com/verte-zerg/wpmbar/internal/tui"
)

const (
	defaultStopDelayMs = 3000
	defaultRefreshMs   = 1000
	defaultPolicy      = string(model.PolicySession)
	defaultLogLevel    = "info"
	defaultSimCPM      = 300
	defaultSimWords    = 20
	defaultSimCaps     = 0.1
	defaultSimPunct    = 0.1
)

type counterFlags struct {
	stopDelayMs int
	refreshMs   int
	policy      string
	logLevel    string
}

var (
	padFlags counterFlags
	padLog   string

	simFlags counterFlags
	simCPM   int
	simWords int
	simCaps  float64
	simPunct float64
	simSeed  int64
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "wpmbar",
		Short:         "Writing pad with a live typing-rate status bar",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPadCmd,
	}
	addCounterFlags(rootCmd, &padFlags)
	rootCmd.Flags().StringVar(&padLog, "log-file", "", "write logs to this file while the pad is open")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSimulateCmd())
	return rootCmd
}

func addCounterFlags(cmd *cobra.Command, f *counterFlags) {
	cmd.Flags().IntVar(&f.stopDelayMs, "stop-delay-ms", defaultStopDelayMs, "inactivity before the status turns idle (ms)")
	cmd.Flags().IntVar(&f.refreshMs, "refresh-ms", defaultRefreshMs, "status refresh interval (ms)")
	cmd.Flags().StringVar(&f.policy, "policy", defaultPolicy, "rate policy: session or window")
	cmd.Flags().StringVar(&f.logLevel, "log-level", defaultLogLevel, "log level")
}

// resolveCounterConfig merges the config file under explicitly set flags.
func resolveCounterConfig(cmd *cobra.Command, f *counterFlags) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "stop-delay-ms", &f.stopDelayMs, fileCfg.Counter.StopDelayMs)
	applyIntConfig(cmd, "refresh-ms", &f.refreshMs, fileCfg.Counter.RefreshMs)
	applyStringConfig(cmd, "policy", &f.policy, fileCfg.Counter.Policy)
	applyStringConfig(cmd, "log-level", &f.logLevel, fileCfg.Log.Level)

	cfg := model.Config{
		StopDelay:       time.Duration(f.stopDelayMs) * time.Millisecond,
		RefreshInterval: time.Duration(f.refreshMs) * time.Millisecond,
		Policy:          model.RatePolicy(strings.ToLower(strings.TrimSpace(f.policy))),
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func runPadCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveCounterConfig(cmd, &padFlags)
	if err != nil {
		return err
	}

	logOut := io.Discard
	if padLog != "" {
		f, err := tea.LogToFile(padLog, "wpmbar")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				logErrf("failed to close log file: %v\n", cerr)
			}
		}()
		logOut = f
	}
	log := logging.New(logOut, padFlags.logLevel)
	log.WithFields(logrus.Fields{
		"stopDelay": cfg.StopDelay,
		"refresh":   cfg.RefreshInterval,
		"policy":    cfg.Policy,
	}).Info("starting pad")

	reporter := tui.NewStatusReporter()
	c := counter.New(reporter, cfg, log)
	c.Start(cmd.Context())
	defer c.Stop()

	program := tea.NewProgram(tui.NewModel(c, reporter), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Type generated text at a fixed pace and print the readings",
		Args:  cobra.NoArgs,
		RunE:  runSimulateCmd,
	}
	addCounterFlags(cmd, &simFlags)
	cmd.Flags().IntVar(&simCPM, "cpm", defaultSimCPM, "typing pace in characters per minute")
	cmd.Flags().IntVar(&simWords, "words", defaultSimWords, "number of words to type")
	cmd.Flags().Float64Var(&simCaps, "caps", defaultSimCaps, "probability of capitalized first letter (0-1)")
	cmd.Flags().Float64Var(&simPunct, "punct", defaultSimPunct, "punctuation probability per word (0-1)")
	cmd.Flags().Int64Var(&simSeed, "seed", 1, "random seed for the generated text")
	return cmd
}

func runSimulateCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveCounterConfig(cmd, &simFlags)
	if err != nil {
		return err
	}
	simCfg := model.SimulateConfig{
		CPM:      simCPM,
		Words:    simWords,
		CapsPct:  simCaps,
		PunctPct: simPunct,
		Seed:     simSeed,
	}
	if err := validateSimulateConfig(simCfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	log := logging.New(os.Stderr, simFlags.logLevel)
	res, err := simulate.Run(ctx, simCfg, cfg, log)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Text: %s\n\n", strings.TrimSpace(res.Text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderReadings(out, res.StartedAt, res.Readings); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# wpmbar configuration
# Uncomment a value to enable it. CLI flags override config values.

[counter]
# stop-delay-ms = %d      # Inactivity before the status turns idle
# refresh-ms = %d         # Status refresh interval
# policy = %q       # "session" averages since typing resumed, "window" uses the last interval

[log]
# level = %q          # panic, fatal, error, warn, info, debug, trace
`,
		defaultStopDelayMs,
		defaultRefreshMs,
		defaultPolicy,
		defaultLogLevel,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.StopDelay <= 0 {
		return fmt.Errorf("--stop-delay-ms must be > 0")
	}
	if cfg.RefreshInterval <= 0 {
		return fmt.Errorf("--refresh-ms must be > 0")
	}
	if !cfg.Policy.Valid() {
		return fmt.Errorf("--policy must be %q or %q", model.PolicySession, model.PolicyWindow)
	}
	return nil
}

func validateSimulateConfig(cfg model.SimulateConfig) error {
	if cfg.CPM <= 0 {
		return fmt.Errorf("--cpm must be > 0")
	}
	if int64(cfg.CPM) > simulate.MaxCPM {
		return fmt.Errorf("--cpm must be <= %d", simulate.MaxCPM)
	}
	if cfg.Words <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if cfg.CapsPct < 0 || cfg.CapsPct > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if cfg.PunctPct < 0 || cfg.PunctPct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

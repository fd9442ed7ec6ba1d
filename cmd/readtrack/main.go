// Package main provides the CLI entrypoint for readtrack.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/readtrack/internal/config"
	"github.com/verte-zerg/readtrack/internal/datalayer"
	"github.com/verte-zerg/readtrack/internal/document"
	"github.com/verte-zerg/readtrack/internal/model"
	"github.com/verte-zerg/readtrack/internal/report"
	"github.com/verte-zerg/readtrack/internal/simulate"
	"github.com/verte-zerg/readtrack/internal/tui"
	"github.com/verte-zerg/readtrack/internal/viewtracker"
)

const (
	defaultSampleSections = 8
	defaultSampleWords    = 60
)

var (
	readCategory   string
	readThreshold  float64
	readTimeMs     int
	readDebug      bool
	readNoObserver bool
	readEvents     string
	readSections   int
	readWords      int

	simEvent      string
	simCategory   string
	simLabel      string
	simThreshold  float64
	simReadTimeMs int
	simSteps      []string
	simUnmountAt  int
	simUntil      int
	simNoObserver bool
	simDebug      bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "readtrack [document]",
		Short:         "Read a document in the terminal and report view/read analytics events",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runReadCmd,
	}

	rootCmd.Flags().StringVar(&readCategory, "category", "", "analytics category for every section")
	rootCmd.Flags().Float64Var(&readThreshold, "threshold", viewtracker.DefaultThreshold, "visible ratio that counts as a view (0-1)")
	rootCmd.Flags().IntVar(&readTimeMs, "read-time", int(viewtracker.DefaultReadTime/time.Millisecond), "milliseconds a section must stay visible to confirm a read")
	rootCmd.Flags().BoolVar(&readDebug, "debug", false, "write tracker diagnostics to the debug log")
	rootCmd.Flags().BoolVar(&readNoObserver, "no-observer", false, "disable visibility observation (events fire on mount)")
	rootCmd.Flags().StringVar(&readEvents, "events", "", "write pushed events as JSON lines to this path ('-' for stdout)")
	rootCmd.Flags().IntVar(&readSections, "sample-sections", defaultSampleSections, "sections in the sample document")
	rootCmd.Flags().IntVar(&readWords, "sample-words", defaultSampleWords, "words per paragraph in the sample document")

	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runReadCmd(cmd *cobra.Command, args []string) error {
	var doc document.Document
	if len(args) == 1 {
		loaded, err := document.Load(args[0])
		if err != nil {
			return fmt.Errorf("failed to load document: %w", err)
		}
		doc = loaded
	} else {
		if readSections <= 0 || readWords <= 0 {
			return fmt.Errorf("--sample-sections and --sample-words must be > 0")
		}
		doc = document.NewGenerator().Sample(readSections, readWords)
	}

	cfg, err := resolveTrackConfig(cmd, doc.Meta)
	if err != nil {
		return err
	}
	if err := validateTrackConfig(cfg); err != nil {
		return err
	}

	logger, closeLog, err := openDebugLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	layer := datalayer.Default
	m, err := tui.NewModel(doc, cfg, layer, logger)
	if err != nil {
		return fmt.Errorf("failed to build trackers: %w", err)
	}
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		m.Close()
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	m.Close()

	events := layer.Events()
	if cfg.EventsPath != "" {
		if err := writeEvents(cfg.EventsPath, events, cmd.OutOrStdout()); err != nil {
			return err
		}
		if cfg.EventsPath == "-" {
			return nil
		}
	}
	out := cmd.OutOrStdout()
	return report.Render(out, report.Summarize(events), report.IsTerminal(out))
}

// resolveTrackConfig layers defaults, document front matter, config file, env and flags.
func resolveTrackConfig(cmd *cobra.Command, meta document.Meta) (model.TrackConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.TrackConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	envCfg, err := config.LoadEnv()
	if err != nil {
		return model.TrackConfig{}, fmt.Errorf("failed to load environment: %w", err)
	}
	layered := config.Merge(fileCfg.Tracker, envCfg)

	category := meta.Category
	threshold := viewtracker.DefaultThreshold
	if meta.Threshold != nil {
		threshold = *meta.Threshold
	}
	readTime := int(viewtracker.DefaultReadTime / time.Millisecond)
	if meta.ReadTimeMs != nil {
		readTime = *meta.ReadTimeMs
	}
	debug := false
	noObserver := false
	events := ""

	applyString(&category, layered.Category)
	applyFloat(&threshold, layered.Threshold)
	applyInt(&readTime, layered.ReadTimeMs)
	applyBool(&debug, layered.Debug)
	applyBool(&noObserver, layered.NoObserver)
	applyString(&events, layered.Events)

	applyStringFlag(cmd, "category", &category, readCategory)
	applyFloatFlag(cmd, "threshold", &threshold, readThreshold)
	applyIntFlag(cmd, "read-time", &readTime, readTimeMs)
	applyBoolFlag(cmd, "debug", &debug, readDebug)
	applyBoolFlag(cmd, "no-observer", &noObserver, readNoObserver)
	applyStringFlag(cmd, "events", &events, readEvents)

	return model.TrackConfig{
		Category:   category,
		Threshold:  threshold,
		ReadTime:   time.Duration(readTime) * time.Millisecond,
		Debug:      debug,
		NoObserver: noObserver,
		EventsPath: events,
	}, nil
}

func validateTrackConfig(cfg model.TrackConfig) error {
	if !(cfg.Threshold >= 0 && cfg.Threshold <= 1) {
		return fmt.Errorf("--threshold must be between 0 and 1")
	}
	if cfg.ReadTime < 0 {
		return fmt.Errorf("--read-time must be >= 0")
	}
	return nil
}

func openDebugLogger(debug bool) (*slog.Logger, func(), error) {
	if !debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	path := config.DefaultDebugLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := tea.LogToFile(path, "readtrack")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open debug log: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logErrf("Debug log: %s\n", path)
	return logger, func() {
		if cerr := f.Close(); cerr != nil {
			logErrf("failed to close debug log: %v\n", cerr)
		}
	}, nil
}

func writeEvents(path string, events []model.Event, stdout io.Writer) error {
	if path == "-" {
		return datalayer.WriteJSONLines(stdout, events)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create events directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create events file: %w", err)
	}
	if err := datalayer.WriteJSONLines(f, events); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close events file: %w", err)
	}
	logErrf("Wrote %d events to %s\n", len(events), path)
	return nil
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a visibility timeline against one tracker on a virtual clock",
		Example: `  readtrack simulate --event hero --read-time 2000 --step 0=0.6
  readtrack simulate --event hero --read-time 2000 --step 0=0.6 --step 1000=0
  readtrack simulate --event hero --no-observer`,
		Args: cobra.NoArgs,
		RunE: runSimulateCmd,
	}
	cmd.Flags().StringVar(&simEvent, "event", "", "event name (required)")
	cmd.Flags().StringVar(&simCategory, "category", "", "event category")
	cmd.Flags().StringVar(&simLabel, "label", "", "event label")
	cmd.Flags().Float64Var(&simThreshold, "threshold", viewtracker.DefaultThreshold, "visible ratio that counts as a view (0-1)")
	cmd.Flags().IntVar(&simReadTimeMs, "read-time", int(viewtracker.DefaultReadTime/time.Millisecond), "read confirmation delay in milliseconds")
	cmd.Flags().StringArrayVar(&simSteps, "step", nil, "visibility change as at=ratio (at in ms or a Go duration)")
	cmd.Flags().IntVar(&simUnmountAt, "unmount-at", 0, "unmount the tracker at this time in milliseconds (0 unmounts right after mount)")
	cmd.Flags().IntVar(&simUntil, "until", 0, "end of the run in milliseconds (default: last step + read time)")
	cmd.Flags().BoolVar(&simNoObserver, "no-observer", false, "run without visibility observation")
	cmd.Flags().BoolVar(&simDebug, "debug", false, "log tracker diagnostics to stderr")
	return cmd
}

func runSimulateCmd(cmd *cobra.Command, _ []string) error {
	if strings.TrimSpace(simEvent) == "" {
		return fmt.Errorf("--event is required")
	}
	if simUnmountAt < 0 || simUntil < 0 {
		return fmt.Errorf("--unmount-at and --until must be >= 0")
	}
	steps := make([]simulate.Step, 0, len(simSteps))
	for _, raw := range simSteps {
		step, err := simulate.ParseStep(raw)
		if err != nil {
			return err
		}
		steps = append(steps, step)
	}

	cfg := model.SimulateConfig{
		EventName:  simEvent,
		Category:   simCategory,
		Label:      simLabel,
		Threshold:  simThreshold,
		ReadTime:   time.Duration(simReadTimeMs) * time.Millisecond,
		Debug:      simDebug,
		NoObserver: simNoObserver,
		Until:      time.Duration(simUntil) * time.Millisecond,
	}
	if cmd.Flags().Changed("unmount-at") {
		at := time.Duration(simUnmountAt) * time.Millisecond
		cfg.UnmountAt = &at
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	events, err := simulate.Run(cfg, steps, logger)
	if err != nil {
		return err
	}
	return printTimedEvents(cmd.OutOrStdout(), events)
}

func printTimedEvents(w io.Writer, events []model.TimedEvent) error {
	for _, e := range events {
		data, err := json.Marshal(e.Event)
		if err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		if _, err := fmt.Fprintf(w, "t=%dms %s\n", e.At.Milliseconds(), data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <events.jsonl>",
		Short: "Summarize events written with --events ('-' reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runReportCmd,
	}
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open events: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				// Best-effort close for read-only events file.
				_ = cerr
			}
		}()
		in = f
	}
	events, err := datalayer.ReadJSONLines(in)
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}
	out := cmd.OutOrStdout()
	return report.Render(out, report.Summarize(events), report.IsTerminal(out))
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

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# readtrack configuration
# Uncomment a value to enable it. Precedence: flags > READTRACK_* env > this file > document front matter.

[tracker]
# category = ""           # Analytics category for every section
# threshold = %.2f        # Visible ratio that counts as a view (0-1)
# read-time = %d        # Milliseconds a section must stay visible to confirm a read
# debug = false           # Write tracker diagnostics to the debug log
# no-observer = false     # Fire events on mount without observing visibility
# events = ""             # Write pushed events as JSON lines to this path
`,
		viewtracker.DefaultThreshold,
		int(viewtracker.DefaultReadTime/time.Millisecond),
	)
}

func applyString(target, value *string) {
	if value != nil {
		*target = *value
	}
}

func applyInt(target, value *int) {
	if value != nil {
		*target = *value
	}
}

func applyFloat(target, value *float64) {
	if value != nil {
		*target = *value
	}
}

func applyBool(target, value *bool) {
	if value != nil {
		*target = *value
	}
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func applyIntFlag(cmd *cobra.Command, name string, target *int, value int) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func applyFloatFlag(cmd *cobra.Command, name string, target *float64, value float64) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func applyBoolFlag(cmd *cobra.Command, name string, target *bool, value bool) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

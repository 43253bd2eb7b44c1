// Package main provides the CLI entrypoint for awardboard.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/awardboard/internal/assess"
	"github.com/verte-zerg/awardboard/internal/config"
	"github.com/verte-zerg/awardboard/internal/dashui"
	"github.com/verte-zerg/awardboard/internal/dataset"
	"github.com/verte-zerg/awardboard/internal/model"
	"github.com/verte-zerg/awardboard/internal/query"
)

const (
	defaultLogLevel = "info"
	defaultTop      = "all"
	defaultSort     = "total"
	defaultOrder    = "asc"
)

// settings holds every flag shared by the dashboard and the report commands.
type settings struct {
	configPath string
	logLevel   string
	logFile    string

	source    string
	delimiter string
	exportDir string

	dept    string
	award   string
	query   string
	top     string
	sort    string
	order   string
	flagged bool
	from    string
	to      string

	window   int
	minTotal int
	minAvg   float64
	minZeros int
	minPeak  int
}

// runConfig is the validated result of flags merged over the config file.
type runConfig struct {
	source     string
	delim      rune
	exportDir  string
	logLevel   string
	logFile    string
	params     model.ViewParams
	thresholds model.Thresholds
}

var opts settings

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts = settings{}
	rootCmd := &cobra.Command{
		Use:           "awardboard",
		Short:         "Program completions dashboard",
		Long:          "Browse program completions per academic year and flag low-enrolment programs for deactivation review.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDashboardCmd,
	}

	th := assess.DefaultThresholds()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/awardboard/config.toml)")
	flags.StringVar(&opts.logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFile, "log-file", "", "dashboard log file (default: $XDG_STATE_HOME/awardboard/awardboard.log)")
	flags.StringVar(&opts.source, "data", "", "data set path or http(s) URL")
	flags.StringVar(&opts.delimiter, "delimiter", "", "field delimiter: comma, semicolon, tab, pipe (default: sniffed)")
	flags.StringVar(&opts.exportDir, "export-dir", config.DefaultExportDir(), "directory for exported views")
	flags.StringVar(&opts.dept, "dept", model.All, "department filter")
	flags.StringVar(&opts.award, "award", model.All, "award type filter")
	flags.StringVar(&opts.query, "query", "", "keyword matched against title, award type and code")
	flags.StringVar(&opts.top, "top", defaultTop, "row limit: a number or all")
	flags.StringVar(&opts.sort, "sort", defaultSort, "sort key: total, avg, or a year like 2019-20")
	flags.StringVar(&opts.order, "order", defaultOrder, "sort order: asc or desc")
	flags.BoolVar(&opts.flagged, "flagged", false, "only programs recommended for deactivation")
	flags.StringVar(&opts.from, "from", "", "first visible year (default: earliest)")
	flags.StringVar(&opts.to, "to", "", "last visible year (default: latest)")
	flags.IntVar(&opts.window, "window", th.Window, "years assessed for deactivation")
	flags.IntVar(&opts.minTotal, "min-total", th.MinTotal, "flag when the window total is below this (with --min-avg)")
	flags.Float64Var(&opts.minAvg, "min-avg", th.MinAvg, "flag when the window average is below this (with --min-total)")
	flags.IntVar(&opts.minZeros, "min-zeros", th.MinZeros, "flag when at least this many window years are zero")
	flags.IntVar(&opts.minPeak, "min-peak", th.MinPeak, "flag when no window year reaches this count")

	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newYearsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	logPath := cfg.logFile
	if logPath == "" {
		logPath = config.DefaultLogPath()
	}
	logOut, closeLog, err := openLogFile(logPath)
	if err != nil {
		logErrf("failed to open log file, logging disabled: %v\n", err)
		logOut, closeLog = io.Discard, func() {}
	}
	defer closeLog()
	logger := newLogger(cfg.logLevel, logOut)

	loadOpts := dataset.LoadOptions{Delimiter: cfg.delim, Log: logger}
	source := cfg.source
	m := dashui.NewModel(dashui.Options{
		Source: source,
		Load: func(ctx context.Context) (dataset.Dataset, error) {
			return dataset.Load(ctx, source, loadOpts)
		},
		Assessor:  assess.New(cfg.thresholds),
		Params:    cfg.params,
		ExportDir: cfg.exportDir,
		Delimiter: cfg.delim,
		Log:       logger,
	})
	logger.WithField("source", source).Info("Starting dashboard")
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

// resolveConfig merges the config file under the flags and validates the
// result. Flags set on the command line always win.
func resolveConfig(cmd *cobra.Command) (runConfig, error) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return runConfig{}, fmt.Errorf("failed to load config: %w", err)
	}

	applyStringConfig(cmd, "data", &opts.source, fileCfg.Data.Source)
	applyStringConfig(cmd, "delimiter", &opts.delimiter, fileCfg.Data.Delimiter)
	applyStringConfig(cmd, "export-dir", &opts.exportDir, fileCfg.Data.ExportDir)
	applyStringConfig(cmd, "dept", &opts.dept, fileCfg.View.Dept)
	applyStringConfig(cmd, "award", &opts.award, fileCfg.View.Award)
	applyStringConfig(cmd, "query", &opts.query, fileCfg.View.Query)
	applyStringConfig(cmd, "top", &opts.top, fileCfg.View.Top)
	applyStringConfig(cmd, "sort", &opts.sort, fileCfg.View.Sort)
	applyStringConfig(cmd, "order", &opts.order, fileCfg.View.Order)
	applyBoolConfig(cmd, "flagged", &opts.flagged, fileCfg.View.Flagged)
	applyStringConfig(cmd, "from", &opts.from, fileCfg.View.From)
	applyStringConfig(cmd, "to", &opts.to, fileCfg.View.To)
	applyIntConfig(cmd, "window", &opts.window, fileCfg.Deactivation.Window)
	applyIntConfig(cmd, "min-total", &opts.minTotal, fileCfg.Deactivation.MinTotal)
	applyFloatConfig(cmd, "min-avg", &opts.minAvg, fileCfg.Deactivation.MinAvg)
	applyIntConfig(cmd, "min-zeros", &opts.minZeros, fileCfg.Deactivation.MinZeros)
	applyIntConfig(cmd, "min-peak", &opts.minPeak, fileCfg.Deactivation.MinPeak)
	applyStringConfig(cmd, "log-level", &opts.logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &opts.logFile, fileCfg.Log.File)

	return buildRunConfig(opts)
}

func buildRunConfig(s settings) (runConfig, error) {
	source := strings.TrimSpace(s.source)
	if source == "" {
		return runConfig{}, fmt.Errorf("no data source: pass --data or set [data] source in %s", config.DefaultConfigPath())
	}
	delim, err := config.ParseDelimiter(s.delimiter)
	if err != nil {
		return runConfig{}, fmt.Errorf("--delimiter: %w", err)
	}
	top, err := query.ParseTopN(s.top)
	if err != nil {
		return runConfig{}, fmt.Errorf("--top: %w", err)
	}
	sortKey, err := query.ParseSortKey(s.sort)
	if err != nil {
		return runConfig{}, fmt.Errorf("--sort: %w", err)
	}
	desc, err := parseOrder(s.order)
	if err != nil {
		return runConfig{}, err
	}
	th := model.Thresholds{
		Window:   s.window,
		MinTotal: s.minTotal,
		MinAvg:   s.minAvg,
		MinZeros: s.minZeros,
		MinPeak:  s.minPeak,
	}
	if err := validateThresholds(th); err != nil {
		return runConfig{}, err
	}
	exportDir := s.exportDir
	if exportDir == "" {
		exportDir = config.DefaultExportDir()
	}

	return runConfig{
		source:    source,
		delim:     delim,
		exportDir: exportDir,
		logLevel:  s.logLevel,
		logFile:   s.logFile,
		params: model.ViewParams{
			Dept:        choiceOrAll(s.dept),
			Award:       choiceOrAll(s.award),
			Query:       strings.TrimSpace(s.query),
			TopN:        top,
			SortKey:     sortKey,
			Desc:        desc,
			FlaggedOnly: s.flagged,
			From:        strings.TrimSpace(s.from),
			To:          strings.TrimSpace(s.to),
		},
		thresholds: th,
	}, nil
}

func parseOrder(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "asc", "ascending":
		return false, nil
	case "desc", "descending":
		return true, nil
	}
	return false, fmt.Errorf("--order must be asc or desc, got %q", value)
}

func choiceOrAll(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, model.All) {
		return model.All
	}
	return value
}

func validateThresholds(th model.Thresholds) error {
	if th.Window <= 0 {
		return fmt.Errorf("--window must be > 0")
	}
	if th.MinTotal < 0 {
		return fmt.Errorf("--min-total must be >= 0")
	}
	if th.MinAvg < 0 {
		return fmt.Errorf("--min-avg must be >= 0")
	}
	if th.MinZeros < 0 {
		return fmt.Errorf("--min-zeros must be >= 0")
	}
	if th.MinPeak < 0 {
		return fmt.Errorf("--min-peak must be >= 0")
	}
	return nil
}

func newLogger(level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if level == "" {
		level = defaultLogLevel
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, defaulting to info")
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}

func openLogFile(path string) (io.Writer, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, func() {
		if cerr := f.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}, nil
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

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

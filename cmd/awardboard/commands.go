package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/awardboard/internal/assess"
	"github.com/verte-zerg/awardboard/internal/config"
	"github.com/verte-zerg/awardboard/internal/dataset"
	"github.com/verte-zerg/awardboard/internal/export"
	"github.com/verte-zerg/awardboard/internal/model"
	"github.com/verte-zerg/awardboard/internal/query"
	"github.com/verte-zerg/awardboard/internal/report"
	"github.com/verte-zerg/awardboard/internal/years"
)

var (
	viewYears   bool
	viewReasons bool
	viewWidth   int

	exportOut string
)

// loadedView is a data set together with the rows computed for it.
type loadedView struct {
	ds      dataset.Dataset
	rows    []model.ViewRow
	visible []string
	log     logrus.FieldLogger
	cfg     runConfig
}

// loadView resolves settings, loads the data set and computes the view.
// Logs go to stderr so stdout stays clean for the report.
func loadView(cmd *cobra.Command) (loadedView, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return loadedView{}, err
	}
	logger := newLogger(cfg.logLevel, cmd.ErrOrStderr())
	ds, err := dataset.Load(cmd.Context(), cfg.source, dataset.LoadOptions{
		Delimiter: cfg.delim,
		Log:       logger,
	})
	if err != nil {
		return loadedView{}, err
	}
	for _, label := range []string{cfg.params.From, cfg.params.To} {
		if label != "" && !ds.Years.Contains(label) {
			logger.WithField("year", label).Warn("Year not in data set, showing every year")
		}
	}
	sel := years.Selection{From: cfg.params.From, To: cfg.params.To}
	sel.Sync(ds.Years)
	cfg.params.From, cfg.params.To = sel.From, sel.To
	a := assess.New(cfg.thresholds)
	return loadedView{
		ds:      ds,
		rows:    query.ComputeView(ds, cfg.params, a),
		visible: query.VisibleYears(ds, cfg.params),
		log:     logger,
		cfg:     cfg,
	}, nil
}

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Print the filtered view as a table",
		Args:  cobra.NoArgs,
		RunE:  runViewCmd,
	}
	cmd.Flags().BoolVar(&viewYears, "years", false, "add one column per visible year")
	cmd.Flags().BoolVar(&viewReasons, "reasons", false, "add the deactivation reason column")
	cmd.Flags().IntVar(&viewWidth, "width", 0, "maximum line width (default: terminal width)")
	return cmd
}

func runViewCmd(cmd *cobra.Command, _ []string) error {
	v, err := loadView(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := report.RenderSummary(out, v.rows, v.visible); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return report.RenderView(out, v.rows, v.visible, report.Options{
		Width:   viewWidth,
		Years:   viewYears,
		Reasons: viewReasons,
	})
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered view as a delimited table",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, - for stdout (default: <export-dir>/<source>-view.csv)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	v, err := loadView(cmd)
	if err != nil {
		return err
	}
	opts := export.Options{Delimiter: v.cfg.delim, Window: v.cfg.thresholds.Window}
	if exportOut == "-" {
		return export.Write(cmd.OutOrStdout(), v.rows, v.visible, opts)
	}
	path := exportOut
	if path == "" {
		path = filepath.Join(v.cfg.exportDir, export.FileName(v.cfg.source))
	}
	if err := export.WriteFile(path, v.rows, v.visible, opts); err != nil {
		return err
	}
	v.log.WithFields(logrus.Fields{"path": path, "rows": len(v.rows)}).Info("Exported view")
	return nil
}

func newYearsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List the academic years in the data set",
		Args:  cobra.NoArgs,
		RunE:  runYearsCmd,
	}
}

func runYearsCmd(cmd *cobra.Command, _ []string) error {
	v, err := loadView(cmd)
	if err != nil {
		return err
	}
	assessed := map[string]struct{}{}
	for _, label := range v.ds.Years.Last(v.cfg.thresholds.Window) {
		assessed[label] = struct{}{}
	}
	visible := map[string]struct{}{}
	for _, label := range v.visible {
		visible[label] = struct{}{}
	}
	out := cmd.OutOrStdout()
	for _, label := range v.ds.Years {
		var marks []string
		if _, ok := visible[label]; ok {
			marks = append(marks, "visible")
		}
		if _, ok := assessed[label]; ok {
			marks = append(marks, "assessed")
		}
		line := label
		if len(marks) > 0 {
			line += "\t" + strings.Join(marks, ",")
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
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
	path := opts.configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := writeConfigTemplate(path); err != nil {
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

// writeConfigTemplate creates path with the commented template unless a
// config already exists there.
func writeConfigTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	th := assess.DefaultThresholds()
	return fmt.Sprintf(`# awardboard configuration
# Uncomment a value to enable it. CLI flags override config values.

[data]
# source = "completions.csv"   # Path or http(s) URL of the data set
# delimiter = "comma"          # comma, semicolon, tab, or pipe (default: sniffed)
# export-dir = %q               # Directory for exported views

[view]
# dept = "All"                 # Department filter
# award = "All"                # Award type filter
# query = ""                   # Keyword matched against title, award type and code
# top = %q                  # Row limit: a number or all
# sort = %q               # total, avg, or a year like 2019-20
# order = %q                 # asc or desc
# flagged = false              # Only programs recommended for deactivation
# from = "2019-20"             # First visible year (default: earliest)
# to = "2023-24"               # Last visible year (default: latest)

[deactivation]
# window = %d                   # Years assessed, counted back from the latest
# min-total = %d               # Flag when total < min-total and avg < min-avg
# min-avg = %.1f
# min-zeros = %d                # Flag when at least this many years are zero
# min-peak = %d                 # Flag when no year reaches this count

[log]
# level = %q               # debug, info, warn, or error
# file = %q
`,
		config.DefaultExportDir(),
		defaultTop,
		defaultSort,
		defaultOrder,
		th.Window,
		th.MinTotal,
		th.MinAvg,
		th.MinZeros,
		th.MinPeak,
		defaultLogLevel,
		config.DefaultLogPath(),
	)
}

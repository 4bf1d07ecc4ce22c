package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/firscan/internal/api"
	"github.com/jackzampolin/firscan/internal/config"
	"github.com/jackzampolin/firscan/internal/extract"
	"github.com/jackzampolin/firscan/internal/fields"
	"github.com/jackzampolin/firscan/internal/home"
	"github.com/jackzampolin/firscan/internal/normalize"
	"github.com/jackzampolin/firscan/internal/rules"
	"github.com/jackzampolin/firscan/internal/server/endpoints"
	"github.com/jackzampolin/firscan/internal/store"
	"github.com/jackzampolin/firscan/internal/types"
)

// local is the store and rule set of the home directory, opened without a
// server.
type local struct {
	cfg        *config.Config
	db         *sql.DB
	repo       *rules.Repository
	active     *rules.RuleSet
	normalizer *normalize.Normalizer
}

func openLocal(ctx context.Context) (*local, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}
	cm, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, err
	}
	cfg := cm.Get()

	// Keep store chatter off stdout, which carries the command output.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	dbPath := cfg.Store.Path
	if dbPath == "" {
		dbPath = h.DatabasePath()
	}
	db, err := store.Open(ctx, dbPath, store.Options{Attempts: cfg.Store.OpenAttempts, Logger: logger})
	if err != nil {
		return nil, err
	}

	table := normalize.DefaultTable()
	if path := cfg.Normalizer.SubstitutionsFile; path != "" {
		if table, err = normalize.LoadTable(path); err != nil {
			db.Close()
			return nil, err
		}
	}
	seed := rules.Bootstrap()
	if path := cfg.Extraction.RulesFile; path != "" {
		if seed, err = rules.LoadFile(path); err != nil {
			db.Close()
			return nil, err
		}
	}
	repo := rules.NewRepository(db, logger)
	rs, err := repo.LoadActive(ctx, seed)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &local{cfg: cfg, db: db, repo: repo, active: rs, normalizer: normalize.New(table)}, nil
}

func (l *local) Close() error {
	return l.db.Close()
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the home directory and a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}
		if h.ConfigExists() {
			fmt.Printf("Config already exists at %s\n", h.ConfigPath())
			return nil
		}
		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", h.ConfigPath())
		return nil
	},
}

// FieldSummary is one extracted value as printed by the local extract command.
type FieldSummary struct {
	Field      fields.Kind `json:"field" yaml:"field"`
	Value      string      `json:"value" yaml:"value"`
	Raw        string      `json:"raw" yaml:"raw"`
	Confidence float64     `json:"confidence" yaml:"confidence"`
	Level      string      `json:"level" yaml:"level"`
	RuleID     string      `json:"rule_id" yaml:"rule_id"`
}

// DocumentSummary is the extraction summary of one spans file.
type DocumentSummary struct {
	File           string         `json:"file" yaml:"file"`
	RuleSetVersion int            `json:"rule_set_version" yaml:"rule_set_version"`
	Fields         []FieldSummary `json:"fields" yaml:"fields"`
}

func summarize(file string, res *extract.Result) DocumentSummary {
	out := DocumentSummary{File: file, RuleSetVersion: res.RuleSetVersion, Fields: []FieldSummary{}}
	for _, kind := range fields.All() {
		for _, c := range res.Fields[kind] {
			out.Fields = append(out.Fields, FieldSummary{
				Field:      kind,
				Value:      c.Value.Canonical(),
				Raw:        c.Raw,
				Confidence: c.Confidence,
				Level:      string(types.LevelFor(c.Confidence)),
				RuleID:     c.RuleID,
			})
		}
	}
	return out
}

var (
	localText      string
	localThreshold float64
)

var extractCmd = &cobra.Command{
	Use:   "extract [spans.json...]",
	Short: "Extract fields from OCR span files without a server",
	Long: `Extract fields from OCR span files using the active rule set of the
home directory. Each file holds a JSON array of spans or an object with a
"spans" array. With --text, each non-empty line is read as one span.

Examples:
  firscan extract page1.json page2.json
  firscan extract --text "FIR No. 0569/2025"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		l, err := openLocal(ctx)
		if err != nil {
			return err
		}
		defer l.Close()

		names := args
		if localText != "" {
			names = []string{"-"}
		}
		if len(names) == 0 {
			return fmt.Errorf("a spans file or --text is required")
		}

		docs := make([]normalize.Document, len(names))
		for i, name := range names {
			path := name
			if localText != "" {
				path = ""
			}
			spans, err := endpoints.ReadSpans(path, localText)
			if err != nil {
				return err
			}
			for j, s := range spans {
				if err := s.Validate(); err != nil {
					return fmt.Errorf("%s span %d: %w", name, j, err)
				}
			}
			docs[i] = l.normalizer.Normalize(spans)
		}

		threshold := l.cfg.Extraction.ConfidenceThreshold
		if cmd.Flags().Changed("threshold") {
			threshold = localThreshold
		}
		results, err := extract.ExtractAll(ctx, docs, l.active, threshold, l.cfg.Extraction.Parallelism)
		if err != nil {
			return err
		}

		summaries := make([]DocumentSummary, len(results))
		for i, res := range results {
			summaries[i] = summarize(names[i], res)
		}
		return api.Output(summaries)
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and check rule sets without a server",
}

var exportVersion int

var rulesExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write a rule set as YAML",
	Long: `Write the active rule set, or the version given with --version, as YAML.
The output can be edited and loaded again through extraction.rules_file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		l, err := openLocal(ctx)
		if err != nil {
			return err
		}
		defer l.Close()

		rs := l.active
		if exportVersion > 0 {
			if rs, err = l.repo.Get(ctx, exportVersion); err != nil {
				return err
			}
		}

		if len(args) == 0 {
			return rules.Export(os.Stdout, rs)
		}
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		if err := rules.Export(f, rs); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported rule set v%d (%d rules) to %s\n", rs.Version(), rs.Len(), args[0])
		return nil
	},
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a YAML rule set file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := rules.LoadFile(args[0])
		if err != nil {
			return err
		}
		counts := make(map[fields.Kind]int)
		for _, r := range rs.Rules() {
			counts[r.Field]++
		}
		kinds := make([]string, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		fmt.Printf("%s: %d rules, all patterns compile\n", args[0], rs.Len())
		for _, k := range kinds {
			fmt.Printf("  %-18s %d\n", k, counts[fields.Kind(k)])
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&localText, "text", "", "Plain text to extract from instead of span files")
	extractCmd.Flags().Float64Var(&localThreshold, "threshold", 0, "Override the configured confidence threshold")
	rulesExportCmd.Flags().IntVar(&exportVersion, "version", 0, "Rule set version to export (default: active)")

	rulesCmd.AddCommand(rulesExportCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(rulesCmd)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/person-enricher/internal/batch"
	"github.com/sells-group/person-enricher/internal/csvio"
	"github.com/sells-group/person-enricher/internal/model"
)

// enrichOptions holds the enrich command flags.
type enrichOptions struct {
	Input       string
	Output      string
	Format      string
	Limit       int
	BatchSize   int
	DryRun      bool
	Charset     string
	Delimiter   string
	PricingFile string
	MetricsFile string
}

var enrichOpts enrichOptions

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich contacts from a CSV or XLSX file",
	Long: `Reads contacts, fills their missing fields in batches and writes the result.

Examples:
  # Dry run: parse the file and print contacts as JSON
  person-enricher enrich --csv contacts.csv --dry-run

  # Enrich the first 10 contacts and save an XLSX workbook
  person-enricher enrich --csv contacts.csv --limit 10 --output out.xlsx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("enrich"); err != nil {
			return err
		}
		return runEnrich(ctx, enrichOpts, cmd)
	},
}

func init() {
	f := enrichCmd.Flags()
	f.StringVar(&enrichOpts.Input, "csv", "", "path to the contacts CSV or XLSX file (required)")
	f.StringVar(&enrichOpts.Output, "output", csvio.DefaultOutput, "export file path")
	f.StringVar(&enrichOpts.Format, "format", "", "export format: csv, xlsx or json (default from --output extension)")
	f.IntVar(&enrichOpts.Limit, "limit", 0, "max contacts to process (0 = all)")
	f.IntVar(&enrichOpts.BatchSize, "batch-size", 0, "contacts enriched concurrently per batch (default from config)")
	f.BoolVar(&enrichOpts.DryRun, "dry-run", false, "parse the input and print contacts, skip enrichment")
	f.StringVar(&enrichOpts.Charset, "charset", "", "input encoding, e.g. windows-1252 (default utf-8)")
	f.StringVar(&enrichOpts.Delimiter, "delimiter", ",", "CSV field delimiter")
	f.StringVar(&enrichOpts.PricingFile, "pricing-file", "", "YAML file overriding per-call prices")
	f.StringVar(&enrichOpts.MetricsFile, "metrics-file", "", "write a Prometheus text snapshot of run metrics to this path")
	_ = enrichCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(ctx context.Context, opts enrichOptions, cmd *cobra.Command) error {
	contacts, err := loadContacts(opts.Input, opts.Charset, opts.Delimiter, opts.Limit)
	if err != nil {
		return err
	}

	if opts.DryRun {
		return csvio.WriteJSON(cmd.OutOrStdout(), contacts)
	}

	format, err := resolveFormat(opts.Output, opts.Format)
	if err != nil {
		return err
	}

	validateAPIKeys(cfg)
	env, err := initEnricher(cfg, opts.PricingFile)
	if err != nil {
		return eris.Wrap(err, "enrich: init enricher")
	}

	size := opts.BatchSize
	if size <= 0 {
		size = cfg.Batch.Size
	}
	pool := batch.NewPool(size)

	fn := func(ctx context.Context, c model.Contact) (model.Contact, error) {
		out, err := env.Orchestrator.Enrich(ctx, c)
		if out == nil {
			return c, err
		}
		return out.Contact, err
	}

	var lastElapsed time.Duration
	onBatch := func(p batch.Progress) {
		env.Metrics.BatchDone((p.Elapsed - lastElapsed).Seconds())
		lastElapsed = p.Elapsed
		zap.L().Info(fmt.Sprintf("batch %d/%d complete", p.Batch, p.Batches),
			zap.Int("processed", p.Processed),
			zap.Int("total", p.Total),
			zap.Int("enriched", p.Enriched),
			zap.Int("failed", p.Failed),
			zap.Float64("cost", p.Cost),
			zap.String("progress", fmt.Sprintf("%.0f%%", p.Percent)),
		)
	}

	zap.L().Info("enrich: starting",
		zap.Int("contacts", len(contacts)),
		zap.Int("batch_size", pool.Size()),
		zap.Float64("max_cost", env.Calculator.Rates().MaxPerContact()*float64(len(contacts))),
	)

	results, sum, runErr := pool.Run(ctx, contacts, fn, onBatch)

	// Partial results are still written when the run is interrupted.
	if err := csvio.Export(opts.Output, format, results); err != nil {
		return err
	}
	if opts.MetricsFile != "" {
		if err := env.Metrics.WriteFile(opts.MetricsFile); err != nil {
			return err
		}
		zap.L().Info("wrote metrics snapshot", zap.String("path", opts.MetricsFile))
	}

	zap.L().Info("enrich: complete",
		zap.String("output", opts.Output),
		zap.Int("total", sum.Total),
		zap.Int("processed", sum.Processed),
		zap.Int("enriched", sum.Enriched),
		zap.Int("failed", sum.Failed),
		zap.Int("pending", sum.Pending),
		zap.Float64("total_cost", sum.Cost),
		zap.String("success_rate", fmt.Sprintf("%.1f%%", sum.SuccessRate())),
	)

	if runErr != nil {
		return eris.Wrap(runErr, "enrich: run interrupted")
	}
	return nil
}

// loadContacts reads contacts from a CSV or, by extension, an XLSX file.
func loadContacts(path, charset, delimiter string, limit int) ([]model.Contact, error) {
	opts := csvio.ReadOptions{Charset: charset}
	if d := []rune(delimiter); len(d) == 1 {
		opts.Delimiter = d[0]
	} else if delimiter != "" {
		return nil, eris.Errorf("enrich: delimiter must be a single character, got %q", delimiter)
	}

	var (
		contacts []model.Contact
		err      error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		contacts, err = csvio.ReadContactsXLSX(path, opts)
	} else {
		contacts, err = readCSVFile(path, opts)
	}
	if err != nil {
		return nil, eris.Wrap(err, "enrich: parse input")
	}
	zap.L().Info("parsed contacts", zap.String("path", path), zap.Int("contacts", len(contacts)))

	if limit > 0 && limit < len(contacts) {
		contacts = contacts[:limit]
	}
	return contacts, nil
}

// resolveFormat picks the export format from the flag or the output extension.
func resolveFormat(output, format string) (csvio.Format, error) {
	if format != "" {
		return csvio.ParseFormat(format)
	}
	switch strings.ToLower(filepath.Ext(output)) {
	case ".xlsx":
		return csvio.FormatXLSX, nil
	case ".json":
		return csvio.FormatJSON, nil
	default:
		return csvio.FormatCSV, nil
	}
}

func readCSVFile(path string, opts csvio.ReadOptions) ([]model.Contact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return csvio.ReadContacts(f, opts)
}

package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsawler/tabsift/aggregate"
	"github.com/tsawler/tabsift/export"
	"github.com/tsawler/tabsift/model"
	"github.com/tsawler/tabsift/pipeline"
	"github.com/tsawler/tabsift/source"
	"github.com/tsawler/tabsift/store"
)

var outputFormats = []string{"markdown", "csv", "json"}

var classifyCmd = &cobra.Command{
	Use:   "classify [flags] file...",
	Short: "Classify the tables in CSV, TSV, JSON, HTML or XLSX files",
	Long: `Load every table from the given files, drop the ones that do not
look like real tables, and print the rest with their numeric columns
cleaned.

Examples:
  tabsift classify sales.xlsx
  tabsift classify *.csv --format json -o tables.json
  tabsift classify report.html --summary --db tables.db`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringP("format", "f", "markdown", "output format (markdown, csv, json)")
	classifyCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	classifyCmd.Flags().Bool("summary", false, "add per-column totals that exclude summary rows")
	classifyCmd.Flags().String("db", "", "SQLite database to store accepted tables in")
	classifyCmd.Flags().IntP("jobs", "j", 0, "tables classified in parallel (0 = unlimited)")
}

func runClassify(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outputFile, _ := cmd.Flags().GetString("output")
	summary, _ := cmd.Flags().GetBool("summary")
	dbPath, _ := cmd.Flags().GetString("db")
	jobs, _ := cmd.Flags().GetInt("jobs")

	format = strings.ToLower(format)
	if !slices.Contains(outputFormats, format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", format, strings.Join(outputFormats, ", "))
	}
	if jobs < 0 {
		return fmt.Errorf("invalid jobs: %d (must not be negative)", jobs)
	}
	log := settings.logger

	var candidates []model.Candidate
	var warnings []model.Warning
	for _, path := range args {
		c, w, err := source.Load(path)
		if err != nil {
			return err
		}
		log.Debug("file loaded", "path", path, "candidates", len(c))
		candidates = append(candidates, c...)
		warnings = append(warnings, w...)
	}

	p := pipeline.New(settings.cfg, pipeline.WithLogger(log), pipeline.WithConcurrency(jobs))
	tables, more, stats, err := p.ProcessAllStats(cmd.Context(), candidates)
	if err != nil {
		return err
	}
	warnings = append(warnings, more...)
	log.Info("tables classified", "processed", stats.Processed, "accepted", stats.Accepted, "rejected", stats.Rejected)
	if len(warnings) > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), model.FormatWarnings(warnings))
	}

	if dbPath != "" {
		if err := saveTables(cmd, dbPath, tables); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch format {
	case "json":
		doc := export.NewDocument(tables)
		if summary {
			doc.Summarize(settings.cfg, tables)
		}
		doc.Warnings = warnings
		err = export.JSON(out, doc)
	case "csv":
		err = writeCSV(out, tables)
		if err == nil && summary {
			writeReports(cmd.ErrOrStderr(), tables)
		}
	default:
		err = writeMarkdown(out, tables, summary)
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if outputFile != "" {
		log.Info("results written", "path", outputFile)
	}
	return nil
}

func saveTables(cmd *cobra.Command, path string, tables []*model.ClassifiedTable) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	for _, ct := range tables {
		id, err := s.SaveTable(cmd.Context(), ct)
		if err != nil {
			return err
		}
		settings.logger.Debug("table stored", "id", id, "source", ct.Meta.SourceFile)
	}
	return nil
}

func writeCSV(w io.Writer, tables []*model.ClassifiedTable) error {
	for i, ct := range tables {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := export.CSV(w, ct); err != nil {
			return err
		}
	}
	return nil
}

func writeMarkdown(w io.Writer, tables []*model.ClassifiedTable, summary bool) error {
	for i, ct := range tables {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		md, err := export.Markdown(ct)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, md); err != nil {
			return err
		}
		if summary {
			rep := aggregate.Summarize(settings.cfg, ct)
			if _, err := io.WriteString(w, "\n"+export.ReportText(rep)); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeReports(w io.Writer, tables []*model.ClassifiedTable) {
	for _, ct := range tables {
		fmt.Fprint(w, export.ReportText(aggregate.Summarize(settings.cfg, ct)))
	}
}

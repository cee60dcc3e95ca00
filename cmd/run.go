package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/columns"
	"github.com/sells-group/leadflow/internal/engine"
	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/internal/tabular"
)

var (
	runCSV       string
	runOutput    string
	runFormat    string
	runSkipPhone bool
	runLimit     int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enrich a company CSV in one shot",
	Long: `Reads a company table, discovers and enriches employees for every
row, and writes the result table when the run completes.

Examples:
  # Enrich a CSV, write results next to it
  leadflow run --csv companies.csv --output enriched.csv

  # First three rows only, skip phone lookups, Excel output
  leadflow run --csv companies.csv --limit 3 --skip-phone --format xlsx --output enriched.xlsx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Provider.Key == "" {
			return eris.New("run: LEADFLOW_PROVIDER_KEY is not set")
		}

		f, err := os.Open(runCSV)
		if err != nil {
			return eris.Wrap(err, "run: open csv")
		}
		defer f.Close() //nolint:errcheck

		table, err := tabular.ParseCSV(f)
		if err != nil {
			return eris.Wrap(err, "run: parse csv")
		}

		overrides, err := loadColumnOverrides()
		if err != nil {
			return err
		}
		mapping, err := columns.Resolve(table.Headers, overrides)
		if err != nil {
			return eris.Wrap(err, "run: resolve columns")
		}
		zap.L().Info("parsed csv",
			zap.Int("rows", len(table.Rows)),
			zap.String("url_column", mapping.CompanyURL),
		)

		rows := table.Rows
		if runLimit > 0 && runLimit < len(rows) {
			rows = rows[:runLimit]
		}

		sink := &consoleSink{}
		eng := engine.New(cfg.Engine.RequestInterval())
		eng.Run(cmd.Context(), newProviderClient(cfg.Provider.Key), rows, mapping, model.Options{SkipPhone: runSkipPhone}, sink)

		if sink.snapshot.Phase == model.PhaseError {
			return eris.Errorf("run: enrichment failed: %s", sink.snapshot.Error)
		}

		out, err := os.Create(runOutput)
		if err != nil {
			return eris.Wrap(err, "run: create output file")
		}
		defer out.Close() //nolint:errcheck

		format := runFormat
		if format == "" && strings.HasSuffix(strings.ToLower(runOutput), ".xlsx") {
			format = "xlsx"
		}
		if format == "xlsx" {
			err = tabular.WriteXLSX(out, sink.results)
		} else {
			err = tabular.WriteCSV(out, sink.results)
		}
		if err != nil {
			return eris.Wrap(err, "run: write results")
		}

		zap.L().Info("run complete",
			zap.Int("companies", len(rows)),
			zap.Int("employees", sink.snapshot.EmployeesFound),
			zap.Int("emails", sink.snapshot.EmailsFound),
			zap.Int("phones", sink.snapshot.PhonesFound),
			zap.String("output", runOutput),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runCSV, "csv", "", "path to company CSV file (required)")
	runCmd.Flags().StringVar(&runOutput, "output", "enriched.csv", "result file path")
	runCmd.Flags().StringVar(&runFormat, "format", "", "output format: csv or xlsx (default from output extension)")
	runCmd.Flags().BoolVar(&runSkipPhone, "skip-phone", false, "skip phone number lookups")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "max companies to process (0 = all)")
	_ = runCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(runCmd)
}

// consoleSink collects results for the one-shot run and logs each
// company as the engine reaches it. The engine is the only writer, so
// no locking is needed here.
type consoleSink struct {
	snapshot model.Snapshot
	results  []model.ResultRow
}

func (s *consoleSink) Publish(d model.Delta) {
	prev := s.snapshot.CurrentCompanyName
	s.snapshot.Apply(d)
	if s.snapshot.CurrentCompanyName != prev && s.snapshot.CurrentCompanyName != "" {
		zap.L().Info("enriching company",
			zap.String("company", s.snapshot.CurrentCompanyName),
			zap.Int("position", s.snapshot.CompanyCurrent),
			zap.Int("total", s.snapshot.CompanyTotal),
		)
	}
}

func (s *consoleSink) Append(r model.ResultRow) {
	s.results = append(s.results, r)
}

package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/spread-edge/internal/backtest"
	"github.com/yourusername/spread-edge/internal/config"
)

var (
	reportFormats []string
	outputDir     string
	exportDB      bool
)

func init() {
	backtestCmd.Flags().StringSliceVar(&reportFormats, "format", nil, "Report formats (console, json, yaml, csv, html); overrides config")
	backtestCmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for report files; overrides config")
	backtestCmd.Flags().BoolVar(&exportDB, "export-db", false, "Persist the result to the backtest_results table")
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the train grid search and evaluate the selected model on the holdout window",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()

		btConfig, err := config.ToBacktest(cfg)
		if err != nil {
			return fmt.Errorf("invalid backtest config: %w", err)
		}
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		engine, err := backtest.NewEngine(btConfig, appLog)
		if err != nil {
			return fmt.Errorf("failed to create engine: %w", err)
		}

		appLog.WithFields(logrus.Fields{
			"train":      btConfig.Train.String(),
			"holdout":    btConfig.Holdout.String(),
			"candidates": len(btConfig.Candidates()),
		}).Info("Starting backtest")

		result, err := engine.Run(ctx, store)
		if err != nil {
			return fmt.Errorf("backtest failed: %w", err)
		}
		appLog.WithField("duration", time.Since(start).String()).Info("Backtest finished")

		if err := writeReports(result); err != nil {
			return err
		}

		if exportDB || cfg.Report.ExportDatabase {
			r, err := connect(ctx)
			if err != nil {
				return err
			}
			if err := backtest.ExportToDatabase(ctx, result, r.BacktestResult); err != nil {
				return fmt.Errorf("failed to export result: %w", err)
			}
			appLog.WithField("run_id", result.RunID).Info("Backtest result saved")
		}
		return nil
	},
}

func writeReports(result *backtest.Result) error {
	formats := reportFormats
	if len(formats) == 0 {
		formats = cfg.Report.Formats
	}
	dir := outputDir
	if dir == "" {
		dir = cfg.Report.OutputDir
	}
	base := filepath.Join(dir, "backtest_"+result.RunID.String())

	for _, format := range formats {
		var err error
		path := base + "." + format
		switch format {
		case "console":
			fmt.Print(backtest.GenerateConsoleReport(result))
			continue
		case "json":
			err = backtest.ExportToJSON(result, path)
		case "yaml":
			err = backtest.WriteYAMLReport(result, path)
		case "csv":
			if err = backtest.GenerateCSVExport(result, path); err == nil {
				err = backtest.WriteBetsCSVFile(base+"_bets.csv", result.HoldoutBets)
			}
		case "html":
			err = backtest.GenerateHTMLReport(result, path)
		default:
			return fmt.Errorf("unsupported report format: %s", format)
		}
		if err != nil {
			return fmt.Errorf("failed to write %s report: %w", format, err)
		}
		appLog.WithField("path", path).Info("Report written")
	}
	return nil
}

package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yourusername/spread-edge/internal/models"
)

// GenerateConsoleReport formats a result for terminal output
func GenerateConsoleReport(result *Result) string {
	var builder strings.Builder
	h := result.HoldoutSummary
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Run: %s\n", result.RunID))
	builder.WriteString(fmt.Sprintf("Train: %s  Holdout: %s\n", result.Train, result.Holdout))
	builder.WriteString(fmt.Sprintf("Candidates: %d (%d eligible), selected #%d %s\n",
		len(result.Candidates), result.EligibleCandidates, result.Selected.Index, result.Selected.Hash))
	builder.WriteString(fmt.Sprintf("Train ROI: %.2f%% over %d decided\n", result.TrainSummary.ROI*100, result.TrainSummary.Decided()))
	builder.WriteString(fmt.Sprintf("Holdout Record: %d-%d-%d (%d bets)\n", h.Wins, h.Losses, h.Pushes, h.Bets))
	builder.WriteString(fmt.Sprintf("Win Rate: %.2f%% [%.2f%%, %.2f%%], break-even %.2f%%\n",
		h.WinRate*100, result.HoldoutBootstrap.WinRate.Lower*100, result.HoldoutBootstrap.WinRate.Upper*100, result.BreakEven*100))
	builder.WriteString(fmt.Sprintf("ROI: %.2f%% [%.2f%%, %.2f%%]\n",
		h.ROI*100, result.HoldoutBootstrap.ROI.Lower*100, result.HoldoutBootstrap.ROI.Upper*100))
	builder.WriteString(fmt.Sprintf("Units: %+.2f  Max Drawdown: %.2f\n", h.Units, h.MaxDrawdown))
	builder.WriteString(fmt.Sprintf("Average CLV: %+.2f (%d lines)\n", h.AverageCLV, h.CLVSamples))
	builder.WriteString(fmt.Sprintf("Brier: %.4f\n", h.Brier))
	if h.MarketBrierSamples > 0 {
		builder.WriteString(fmt.Sprintf("Market Brier: %.4f (%d priced)\n", h.MarketBrier, h.MarketBrierSamples))
	}

	builder.WriteString("\nEdge Buckets\n")
	for _, b := range h.Buckets {
		marker := ""
		if !b.Sufficient {
			marker = " *"
		}
		builder.WriteString(fmt.Sprintf("  %-6s %4d bets  win %.2f%%  roi %+.2f%%%s\n", b.Label, b.Bets, b.WinRate*100, b.ROI*100, marker))
	}
	if !h.BucketsMonotonic {
		builder.WriteString("  ROI is not monotonic in edge\n")
	}

	if len(result.HoldoutExclusions) > 0 {
		builder.WriteString("\nExclusions\n")
		for _, reason := range sortedKeys(result.HoldoutExclusions) {
			builder.WriteString(fmt.Sprintf("  %s: %d\n", reason, result.HoldoutExclusions[reason]))
		}
	}
	if result.WalkForward != nil {
		builder.WriteString(fmt.Sprintf("\nWalk-Forward: consistency %.2f, overfit %.2f, avg test ROI %.2f%%\n",
			result.WalkForward.ConsistencyScore, result.WalkForward.OverfitScore, result.WalkForward.AverageTestROI*100))
	}

	builder.WriteString(fmt.Sprintf("\nComposite Score: %.2f\n", result.CompositeScore))
	builder.WriteString(fmt.Sprintf("Recommendation: %s\n", result.Recommendation))
	for _, note := range result.Notes {
		builder.WriteString(fmt.Sprintf("  - %s\n", note))
	}
	return builder.String()
}

// GenerateHTMLReport creates a simple HTML report
func GenerateHTMLReport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	var rows strings.Builder
	for _, b := range result.HoldoutSummary.Buckets {
		rows.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%d</td><td>%.2f%%</td><td>%.2f%%</td></tr>\n",
			b.Label, b.Bets, b.WinRate*100, b.ROI*100))
	}

	h := result.HoldoutSummary
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Backtest Report</title></head>
<body>
<h1>Backtest Report</h1>
<p><strong>Holdout:</strong> %s</p>
<p><strong>Recommendation:</strong> %s</p>
<p><strong>Composite Score:</strong> %.2f</p>
<p><strong>Record:</strong> %d-%d-%d</p>
<p><strong>Win Rate:</strong> %.2f%% (%.2f%% to %.2f%%)</p>
<p><strong>ROI:</strong> %.2f%%</p>
<p><strong>Average CLV:</strong> %.2f</p>
<p><strong>Brier:</strong> %.4f</p>
<table>
<tr><th>Edge</th><th>Bets</th><th>Win Rate</th><th>ROI</th></tr>
%s</table>
</body>
</html>`,
		result.Holdout,
		result.Recommendation,
		result.CompositeScore,
		h.Wins, h.Losses, h.Pushes,
		h.WinRate*100, result.HoldoutBootstrap.WinRate.Lower*100, result.HoldoutBootstrap.WinRate.Upper*100,
		h.ROI*100,
		h.AverageCLV,
		h.Brier,
		rows.String(),
	)

	return os.WriteFile(outputPath, []byte(html), 0o644)
}

// GenerateCSVExport exports key holdout metrics for spreadsheets
func GenerateCSVExport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	h := result.HoldoutSummary
	body := "metric,value\n" +
		fmt.Sprintf("bets,%d\n", h.Bets) +
		fmt.Sprintf("wins,%d\n", h.Wins) +
		fmt.Sprintf("losses,%d\n", h.Losses) +
		fmt.Sprintf("pushes,%d\n", h.Pushes) +
		fmt.Sprintf("win_rate,%.4f\n", h.WinRate) +
		fmt.Sprintf("win_rate_lower,%.4f\n", result.HoldoutBootstrap.WinRate.Lower) +
		fmt.Sprintf("win_rate_upper,%.4f\n", result.HoldoutBootstrap.WinRate.Upper) +
		fmt.Sprintf("roi,%.4f\n", h.ROI) +
		fmt.Sprintf("average_clv,%.4f\n", h.AverageCLV) +
		fmt.Sprintf("brier,%.4f\n", h.Brier) +
		fmt.Sprintf("composite_score,%.4f\n", result.CompositeScore) +
		fmt.Sprintf("recommendation,%s\n", result.Recommendation)
	return os.WriteFile(outputPath, []byte(body), 0o644)
}

// WriteBetsCSV writes a graded bet ledger
func WriteBetsCSV(out io.Writer, bets []models.Bet) error {
	w := csv.NewWriter(out)

	header := []string{
		"game_id",
		"season",
		"week",
		"side",
		"market_spread_home",
		"model_spread_home",
		"bet_spread",
		"closing_spread",
		"clv",
		"price",
		"edge",
		"effective_edge",
		"cover_probability",
		"home_margin",
		"result",
		"profit",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, b := range bets {
		row := []string{
			b.GameID,
			strconv.Itoa(b.Season),
			strconv.Itoa(b.Week),
			string(b.Side),
			formatFloat(b.MarketSpreadHome),
			formatFloat(b.ModelSpreadHome),
			formatFloat(b.BetSpread),
			fmtOptFloat(b.ClosingSpread),
			fmtOptFloat(b.CLV),
			fmtOptInt(b.Price),
			formatFloat(b.Edge),
			formatFloat(b.EffectiveEdge),
			formatFloat(b.CoverProbability),
			strconv.Itoa(b.HomeMargin),
			string(b.Result),
			formatFloat(b.Profit),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteBetsCSVFile writes the bet ledger to a file
func WriteBetsCSVFile(path string, bets []models.Bet) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteBetsCSV(f, bets)
}

// WriteYAMLReport writes the full result as YAML
func WriteYAMLReport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}

func fmtOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func fmtOptInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"fxdesk/internal/domain"
	"fxdesk/internal/stats"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, result *domain.AnalysisResult) error {
	if jsonOut {
		return printJSON(w, result)
	}
	fmt.Fprintln(w, result.Message)
	return nil
}

func printStatus(w io.Writer, status *domain.AnalysisStatus) {
	state := "idle"
	if status.IsRunning {
		state = "running"
	}
	fmt.Fprintf(w, "Sweep:    %s\n", state)
	fmt.Fprintf(w, "Last run: %s\n", formatTime(status.LastRun))
	fmt.Fprintf(w, "Next run: %s\n", formatTime(status.NextRun))
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", t.Local().Format("2006-01-02 15:04:05"), humanize.Time(*t))
}

// formatRR renders a risk/reward ratio, "-" when entry equals stop
func formatRR(rr float64) string {
	if math.IsInf(rr, 0) || math.IsNaN(rr) {
		return "-"
	}
	return fmt.Sprintf("1:%.2f", rr)
}

func printEngineSignals(w io.Writer, signals []domain.EngineSignal) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tPAIR\tSIDE\tENTRY\tSL\tTP\tRR\tSTATUS\tCONF")
	for _, s := range signals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.5f\t%.5f\t%.5f\t%s\t%s\t%.0f%%\n",
			s.CreatedAt.Local().Format("01-02 15:04"), s.Pair, s.Side,
			s.EntryPrice, s.StopLoss, s.TakeProfit,
			formatRR(stats.ComputeRiskReward(s.EntryPrice, s.StopLoss, s.TakeProfit)),
			s.Status, s.ConfidenceScore)
	}
	tw.Flush()
}

func printPredictions(w io.Writer, preds []domain.EnginePrediction) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PAIR\tRECOMMENDATION\tBIAS\tWIN PROB\tEXP RR\tCONFIDENCE")
	for _, p := range preds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%\t%.2f\t%s\n",
			p.Pair, p.Recommendation, stats.RecommendationBias(p.Recommendation),
			p.WinProbability*100, p.ExpectedRR, p.Confidence)
	}
	tw.Flush()
}

func printSignalStats(w io.Writer, s stats.SignalStats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total\t%d\n", s.Total)
	fmt.Fprintf(tw, "Active\t%d\n", s.Active)
	fmt.Fprintf(tw, "Completed\t%d\n", s.Completed)
	fmt.Fprintf(tw, "Wins\t%d\n", s.Wins)
	fmt.Fprintf(tw, "Win rate\t%.1f%%\n", s.WinRate)
	fmt.Fprintf(tw, "Total P/L\t%s\n", humanize.CommafWithDigits(s.TotalProfit, 2))
	tw.Flush()
}

package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/verte-zerg/keyrush/internal/model"
)

// HistorySource is the slice of the store the history report needs.
type HistorySource interface {
	ListHistory(ctx context.Context, limit int) ([]model.HistoryRecord, error)
	HighScore(ctx context.Context) (int, error)
}

// HistoryReport contains precomputed data for history rendering.
type HistoryReport struct {
	Records   []model.HistoryRecord
	HighScore int
	AvgWPM    float64
	BestWPM   int
	AvgAcc    float64
	Curve     []float64
}

// BuildHistoryReport loads the last records (all when last <= 0) and summarizes them.
func BuildHistoryReport(ctx context.Context, src HistorySource, last, curveWindow int) (HistoryReport, error) {
	records, err := src.ListHistory(ctx, last)
	if err != nil {
		return HistoryReport{}, err
	}
	high, err := src.HighScore(ctx)
	if err != nil {
		return HistoryReport{}, err
	}
	report := HistoryReport{Records: records, HighScore: high}
	if len(records) == 0 {
		return report, nil
	}
	wpms := lo.Map(records, func(r model.HistoryRecord, _ int) float64 { return float64(r.WPM) })
	accs := lo.Map(records, func(r model.HistoryRecord, _ int) float64 { return float64(r.Accuracy) })
	report.AvgWPM = lo.Sum(wpms) / float64(len(wpms))
	report.AvgAcc = lo.Sum(accs) / float64(len(accs))
	report.BestWPM = lo.MaxBy(records, func(a, b model.HistoryRecord) bool { return a.WPM > b.WPM }).WPM
	report.Curve = MovingAverage(wpms, curveWindow)
	return report, nil
}

// RenderHistory prints a summary, the WPM curve, and one row per session.
func RenderHistory(w io.Writer, report HistoryReport, width int) error {
	if len(report.Records) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	summary := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(report.Records)),
		fmt.Sprintf("Avg WPM: %.1f", report.AvgWPM),
		fmt.Sprintf("Best WPM: %d", report.BestWPM),
		fmt.Sprintf("High score: %d", report.HighScore),
		fmt.Sprintf("Avg Accuracy: %.1f%%", report.AvgAcc),
	}
	if curve := curveLine(report.Curve, width); curve != "" {
		summary = append(summary, "WPM curve: "+curve)
	}
	summary = append(summary, "")
	for _, line := range summary {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	headers := []string{"Date", "Mode", "Difficulty", "WPM", "Accuracy", "Consistency", "Correct", "Incorrect"}
	rows := lo.Map(report.Records, func(r model.HistoryRecord, _ int) []string {
		return []string{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Mode,
			r.Difficulty,
			fmt.Sprintf("%d", r.WPM),
			fmt.Sprintf("%d%%", r.Accuracy),
			fmt.Sprintf("%d%%", r.Consistency),
			fmt.Sprintf("%d", r.CorrectChars),
			fmt.Sprintf("%d", r.IncorrectChars),
		}
	})
	return writeLines(w, formatTable(headers, rows, map[int]bool{3: true, 4: true, 5: true, 6: true, 7: true}))
}

// RenderLeaderboard prints ranked scores.
func RenderLeaderboard(w io.Writer, title string, scores []model.Score) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	if len(scores) == 0 {
		_, err := fmt.Fprintln(w, "No scores yet.")
		return err
	}
	headers := []string{"#", "Name", "WPM", "Accuracy", "Consistency", "Mode", "Difficulty", "Date"}
	rows := lo.Map(scores, func(s model.Score, i int) []string {
		return []string{
			fmt.Sprintf("%d", i+1),
			s.Username,
			fmt.Sprintf("%d", s.WPM),
			fmt.Sprintf("%d%%", s.Accuracy),
			fmt.Sprintf("%d%%", s.Consistency),
			s.Mode,
			s.Difficulty,
			s.CreatedAt.Local().Format("2006-01-02"),
		}
	})
	return writeLines(w, formatTable(headers, rows, map[int]bool{0: true, 2: true, 3: true, 4: true}))
}

func curveLine(curve []float64, width int) string {
	if len(curve) < 2 {
		return ""
	}
	if width > 0 && len(curve) > width {
		curve = resample(curve, width)
	}
	return Sparkline(curve)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

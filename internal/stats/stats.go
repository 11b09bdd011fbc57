// Package stats contains statistics calculations and reporting.
package stats

import (
	"math"
	"strings"
)

const sparkChars = " .:-=+*#%@"

// WPM computes words per minute with a word standardized to five correct characters.
func WPM(correct int, elapsedSeconds float64) int {
	if elapsedSeconds <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / 5.0 / (elapsedSeconds / 60.0)))
}

// Accuracy returns the percentage of correct keystrokes, 100 when nothing was typed.
func Accuracy(correct, incorrect int) int {
	den := correct + incorrect
	if den <= 0 {
		return 100
	}
	return int(math.Round(float64(correct) / float64(den) * 100))
}

// Consistency scores how steady the sampled WPM was: 100 minus the coefficient of
// variation in percent, clamped to [0, 100]. Fewer than two samples score 100.
func Consistency(samples []int) int {
	if len(samples) < 2 {
		return 100
	}
	n := float64(len(samples))
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	mean := sum / n
	var sq float64
	for _, s := range samples {
		d := float64(s) - mean
		sq += d * d
	}
	stdDev := math.Sqrt(sq / n)
	cv := 0.0
	if mean > 0 {
		cv = stdDev / mean
	}
	score := (1 - cv) * 100
	score = math.Max(0, math.Min(100, score))
	return int(math.Round(score))
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// SampleSparkline renders integer WPM samples, squeezed to at most width points.
func SampleSparkline(samples []int, width int) string {
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = float64(s)
	}
	if width > 0 && len(values) > width {
		values = resample(values, width)
	}
	return Sparkline(values)
}

func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	step := float64(len(values)) / float64(width)
	for i := range out {
		start := int(float64(i) * step)
		end := int(float64(i+1) * step)
		if end <= start {
			end = start + 1
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

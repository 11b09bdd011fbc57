package stats

import "testing"

func TestAccuracy(t *testing.T) {
	if got := Accuracy(0, 0); got != 100 {
		t.Fatalf("expected 100 for no keystrokes, got %d", got)
	}
	if got := Accuracy(18, 2); got != 90 {
		t.Fatalf("expected 90, got %d", got)
	}
	if got := Accuracy(0, 5); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := Accuracy(2, 1); got != 67 {
		t.Fatalf("expected 67, got %d", got)
	}
}

func TestWPM(t *testing.T) {
	if got := WPM(300, 60); got != 60 {
		t.Fatalf("expected 60, got %d", got)
	}
	if got := WPM(50, 16.5); got != 36 {
		t.Fatalf("expected 36, got %d", got)
	}
	if got := WPM(100, 0); got != 0 {
		t.Fatalf("expected 0 for no elapsed time, got %d", got)
	}
}

func TestConsistency(t *testing.T) {
	if got := Consistency([]int{60, 60, 60}); got != 100 {
		t.Fatalf("expected 100 for flat samples, got %d", got)
	}
	if got := Consistency([]int{20, 100, 20, 100}); got != 33 {
		t.Fatalf("expected 33 for bursty samples, got %d", got)
	}
	if got := Consistency([]int{42}); got != 100 {
		t.Fatalf("expected 100 for a single sample, got %d", got)
	}
	if got := Consistency(nil); got != 100 {
		t.Fatalf("expected 100 for no samples, got %d", got)
	}
	if got := Consistency([]int{1, 1, 1, 100}); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
}

func TestSampleSparklineSqueezes(t *testing.T) {
	samples := make([]int, 100)
	for i := range samples {
		samples[i] = i
	}
	line := SampleSparkline(samples, 20)
	if len(line) != 20 {
		t.Fatalf("expected 20 points, got %d", len(line))
	}
	if line[0] != sparkChars[0] || line[19] != sparkChars[len(sparkChars)-1] {
		t.Fatalf("expected rising sparkline, got %q", line)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

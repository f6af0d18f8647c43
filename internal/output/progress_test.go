package output

import (
	"os"
	"strings"
	"testing"
)

func TestScoreBar(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tests := []struct {
		score  float64
		width  int
		filled int
		label  string
	}{
		{80, 10, 8, "80/100"},
		{0, 10, 0, "0/100"},
		{150, 10, 10, "150/100"},
		{-5, 10, 0, "-5/100"},
		{50, 0, 10, "50/100"},
	}
	for _, tc := range tests {
		got := ScoreBar(tc.score, tc.width)
		if n := strings.Count(got, "█"); n != tc.filled {
			t.Errorf("ScoreBar(%v, %d) filled = %d, want %d", tc.score, tc.width, n, tc.filled)
		}
		if !strings.HasSuffix(got, tc.label) {
			t.Errorf("ScoreBar(%v, %d) = %q, want suffix %q", tc.score, tc.width, got, tc.label)
		}
	}
}

func TestTrendArrow(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	if got := TrendArrow(0, true); got != "─" {
		t.Errorf("TrendArrow(0) = %q", got)
	}
	if got := TrendArrow(4, true); got != "▲ +4.0" {
		t.Errorf("TrendArrow(4) = %q", got)
	}
	if got := TrendArrow(-2.5, true); got != "▼ -2.5" {
		t.Errorf("TrendArrow(-2.5) = %q", got)
	}
}

func TestStartProgress_NonInteractiveIsNoop(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "progress")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	p := StartProgress(f, true, "scoring", 10)
	if _, ok := p.(NoopProgress); !ok {
		t.Fatalf("expected NoopProgress for a regular file, got %T", p)
	}
	p.Increment(1)
	p.Describe("x")
	p.Complete()

	if _, ok := StartProgress(os.Stderr, false, "scoring", 10).(NoopProgress); !ok {
		t.Error("expected NoopProgress when disabled")
	}
}

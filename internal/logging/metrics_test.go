package logging

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"snakeql/internal/env"
)

func TestLogEpisodeWritesCSVAndJSONL(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "runs", "run.csv")
	jsonPath := filepath.Join(dir, "runs", "run.jsonl")
	var console bytes.Buffer

	l, err := NewLogger(csvPath, jsonPath, NewConsole(&console, "test", "info"))
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if err := l.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	for i := 1; i <= 3; i++ {
		err := l.LogEpisode(EpisodeSummary{
			Episode:   i,
			Score:     i * 2,
			Record:    i * 2,
			MeanScore: float64(i),
			Ticks:     100 * i,
			Death:     env.DeathWall.String(),
			LossLong:  0.5,
		})
		if err != nil {
			t.Fatalf("LogEpisode %d: %v", i, err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Read csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("Expected header + 3 rows, got %d", len(records))
	}
	if records[0][0] != "episode" || records[3][1] != "6" || records[3][5] != "wall" {
		t.Errorf("Unexpected csv content: %v", records)
	}

	jf, err := os.Open(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	defer jf.Close()
	var lines []EpisodeSummary
	sc := bufio.NewScanner(jf)
	for sc.Scan() {
		var s EpisodeSummary
		if err := json.Unmarshal(sc.Bytes(), &s); err != nil {
			t.Fatalf("Decode jsonl: %v", err)
		}
		lines = append(lines, s)
	}
	if len(lines) != 3 || lines[2].Ticks != 300 {
		t.Errorf("Unexpected jsonl content: %+v", lines)
	}

	if !strings.Contains(console.String(), "episode") {
		t.Errorf("Expected console summary, got %q", console.String())
	}
}

func TestLogEpisodeBeforeInit(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(filepath.Join(dir, "a.csv"), filepath.Join(dir, "a.jsonl"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.LogEpisode(EpisodeSummary{Episode: 1}); err == nil {
		t.Error("Expected error when logging before Init")
	}
}

func TestNewConsoleLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected log.Level
	}{
		{"debug", log.DebugLevel},
		{"warn", log.WarnLevel},
		{"bogus", log.InfoLevel},
		{"", log.InfoLevel},
	}
	for _, tc := range tests {
		var buf bytes.Buffer
		if got := NewConsole(&buf, "x", tc.level).GetLevel(); got != tc.expected {
			t.Errorf("Level %q: expected %v, got %v", tc.level, tc.expected, got)
		}
	}
}

func TestReportEvaluation(t *testing.T) {
	var buf bytes.Buffer
	agg := env.Aggregate([]env.EpisodeStats{
		{Score: 3, Ticks: 40, Death: env.DeathSelf},
		{Score: 5, Ticks: 60, Death: env.DeathWall},
	})
	ReportEvaluation(NewConsole(&buf, "eval", "info"), agg, 0.25)

	out := buf.String()
	if !strings.Contains(out, "evaluation") || !strings.Contains(out, "4.00") {
		t.Errorf("Unexpected evaluation output %q", out)
	}

	// A nil console is silently ignored.
	ReportEvaluation(nil, agg, 0.25)
}

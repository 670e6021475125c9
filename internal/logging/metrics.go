package logging

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"

	"snakeql/internal/env"
)

// Logger writes per-episode training metrics to CSV and JSONL and echoes
// a summary line to the console logger.
type Logger struct {
	csvPath   string
	jsonPath  string
	csvFile   *os.File
	csvWriter *csv.Writer
	jsonFile  *os.File
	console   *log.Logger
}

// NewLogger creates a metrics logger. console may be nil.
func NewLogger(csvPath, jsonPath string, console *log.Logger) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(csvPath), 0o755); err != nil {
		return nil, fmt.Errorf("logging: create csv dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(jsonPath), 0o755); err != nil {
		return nil, fmt.Errorf("logging: create jsonl dir: %w", err)
	}
	return &Logger{csvPath: csvPath, jsonPath: jsonPath, console: console}, nil
}

var csvHeader = []string{
	"episode", "score", "record", "mean_score", "ticks", "death",
	"epsilon", "loss_short", "loss_long",
}

// Init truncates the output files and writes the CSV header.
func (l *Logger) Init() error {
	var err error

	l.csvFile, err = os.Create(l.csvPath)
	if err != nil {
		return fmt.Errorf("logging: create %s: %w", l.csvPath, err)
	}
	l.csvWriter = csv.NewWriter(l.csvFile)
	if err := l.csvWriter.Write(csvHeader); err != nil {
		return fmt.Errorf("logging: write header: %w", err)
	}
	l.csvWriter.Flush()

	l.jsonFile, err = os.OpenFile(l.jsonPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("logging: open %s: %w", l.jsonPath, err)
	}
	return nil
}

// Close flushes and closes all log files
func (l *Logger) Close() error {
	var firstErr error
	if l.csvWriter != nil {
		l.csvWriter.Flush()
		firstErr = l.csvWriter.Error()
	}
	if l.csvFile != nil {
		if err := l.csvFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if l.jsonFile != nil {
		if err := l.jsonFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// EpisodeSummary holds per-episode statistics
type EpisodeSummary struct {
	Episode   int     `json:"episode"`
	Score     int     `json:"score"`
	Record    int     `json:"record"`
	MeanScore float64 `json:"mean_score"`
	Ticks     int     `json:"ticks"`
	Death     string  `json:"death"`
	Epsilon   float64 `json:"epsilon"`
	LossShort float64 `json:"loss_short"` // mean over the episode's ticks
	LossLong  float64 `json:"loss_long"`
	NewRecord bool    `json:"new_record,omitempty"`
}

// LogEpisode appends one episode to both files.
func (l *Logger) LogEpisode(s EpisodeSummary) error {
	if l.csvWriter == nil || l.jsonFile == nil {
		return fmt.Errorf("logging: LogEpisode before Init")
	}

	row := []string{
		strconv.Itoa(s.Episode),
		strconv.Itoa(s.Score),
		strconv.Itoa(s.Record),
		fmt.Sprintf("%.3f", s.MeanScore),
		strconv.Itoa(s.Ticks),
		s.Death,
		fmt.Sprintf("%.4f", s.Epsilon),
		fmt.Sprintf("%.6f", s.LossShort),
		fmt.Sprintf("%.6f", s.LossLong),
	}
	if err := l.csvWriter.Write(row); err != nil {
		return fmt.Errorf("logging: write csv: %w", err)
	}
	l.csvWriter.Flush()

	line, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("logging: encode json: %w", err)
	}
	if _, err := l.jsonFile.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("logging: write jsonl: %w", err)
	}

	if l.console != nil {
		l.console.Info("episode",
			"n", s.Episode,
			"score", s.Score,
			"record", s.Record,
			"mean", fmt.Sprintf("%.2f", s.MeanScore),
			"death", s.Death,
			"loss", fmt.Sprintf("%.4f", s.LossLong),
		)
	}
	return nil
}

// ReportEvaluation prints aggregated evaluation results to console.
func ReportEvaluation(console *log.Logger, agg env.AggregatedStats, lambda float64) {
	if console == nil {
		return
	}
	console.Info("evaluation",
		"episodes", agg.NumEpisodes,
		"mean", fmt.Sprintf("%.2f", agg.ScoreMean),
		"std", fmt.Sprintf("%.2f", agg.ScoreStd),
		"max", agg.ScoreMax,
		"ticks", fmt.Sprintf("%.1f", agg.TicksMean),
		"robust", fmt.Sprintf("%.2f", agg.RobustnessScore(lambda)),
		"wall", agg.DeathCounts[env.DeathWall],
		"self", agg.DeathCounts[env.DeathSelf],
		"stall", agg.DeathCounts[env.DeathStall],
		"full", agg.DeathCounts[env.DeathBoardFull],
	)
}

// Package plot keeps the score history of a training run and exports it
// as a parquet file for offline plotting.
package plot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// Point is one episode on the training curve.
type Point struct {
	Episode   int32   `parquet:"episode"`
	Score     int32   `parquet:"score"`
	MeanScore float64 `parquet:"mean_score"`
	Record    int32   `parquet:"record"`
}

// Curve accumulates per-episode scores with their running mean and record.
type Curve struct {
	path   string
	points []Point
	total  int64
	record int32
}

// NewCurve creates an empty curve that flushes to path.
func NewCurve(path string) *Curve {
	return &Curve{path: path}
}

// Add appends the score of the next episode and returns the new point.
func (c *Curve) Add(score int) Point {
	c.total += int64(score)
	if int32(score) > c.record {
		c.record = int32(score)
	}
	p := Point{
		Episode:   int32(len(c.points) + 1),
		Score:     int32(score),
		MeanScore: float64(c.total) / float64(len(c.points)+1),
		Record:    c.record,
	}
	c.points = append(c.points, p)
	return p
}

// Points returns the recorded history.
func (c *Curve) Points() []Point {
	return c.points
}

// Len returns the number of episodes recorded.
func (c *Curve) Len() int { return len(c.points) }

// Flush rewrites the whole curve to disk. The file is replaced atomically.
func (c *Curve) Flush() error {
	if len(c.points) == 0 {
		return nil
	}
	return WriteCurve(c.path, c.points)
}

// WriteCurve writes points to outPath via a temp file and rename.
func WriteCurve(outPath string, points []Point) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("plot: create output dir: %w", err)
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, points,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "training_curve_v1"),
	); err != nil {
		return fmt.Errorf("plot: write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("plot: rename parquet: %w", err)
	}
	return nil
}

// ReadCurve loads a curve written by WriteCurve.
func ReadCurve(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("plot: open %s: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("plot: stat %s: %w", path, err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("plot: open parquet %s: %w", path, err)
	}

	reader := parquet.NewGenericReader[Point](pf)
	defer reader.Close()

	points := make([]Point, 0, reader.NumRows())
	buf := make([]Point, 256)
	for {
		n, err := reader.Read(buf)
		points = append(points, buf[:n]...)
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("plot: read %s: %w", path, err)
		}
	}
	return points, nil
}

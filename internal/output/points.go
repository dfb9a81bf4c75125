// Package output writes firefly positions: plain-text point files with one
// "x y" line per firefly, and HTML scatter charts comparing the initial and
// final swarm.
package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/copyleftdev/firefly/internal/optimization"
	"github.com/copyleftdev/firefly/internal/optimization/firefly"
)

// Default point file names.
const (
	StartFile = "start.dat"
	EndFile   = "end.dat"
)

// WritePoints writes one "%.2f %.2f" line per point.
func WritePoints(w io.Writer, points []optimization.Point) error {
	bw := bufio.NewWriter(w)
	for _, p := range points {
		if _, err := fmt.Fprintf(bw, "%.2f %.2f\n", p.X, p.Y); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FileSink writes the initial and final positions to two files in Dir.
type FileSink struct {
	Dir       string
	StartName string
	EndName   string
}

// NewFileSink creates a sink writing start.dat and end.dat into dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{
		Dir:       dir,
		StartName: StartFile,
		EndName:   EndFile,
	}
}

// Path returns the file a stage is written to.
func (s *FileSink) Path(stage firefly.Stage) string {
	name := s.StartName
	if stage == firefly.StageEnd {
		name = s.EndName
	}
	return filepath.Join(s.Dir, name)
}

// WritePositions implements firefly.Sink.
func (s *FileSink) WritePositions(stage firefly.Stage, pop *firefly.Population) (err error) {
	path := s.Path(stage)
	if s.Dir != "" {
		if err := os.MkdirAll(s.Dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if err := WritePoints(f, pop.Positions()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Multi fans positions out to every sink and joins their failures.
type Multi []firefly.Sink

// WritePositions implements firefly.Sink.
func (m Multi) WritePositions(stage firefly.Stage, pop *firefly.Population) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.WritePositions(stage, pop); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

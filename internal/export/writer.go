// Package export writes a landmark table to disk: the text grid and one
// single-pixel mask image per stored point.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"landmark-picker/internal/landmark"
	"landmark-picker/internal/mask"
	"landmark-picker/pkg/geometry"

	"github.com/rs/zerolog"
)

// ErrWrite wraps any failure to produce or write an export file.
var ErrWrite = errors.New("export write failed")

// Options controls file naming and content.
type Options struct {
	// Sentinel is written for unset columns of the text grid.
	Sentinel int
	// MaskCount limits mask export to the first MaskCount rows.
	MaskCount    int
	FixedPrefix  string
	MovingPrefix string
}

// DefaultOptions returns the default sentinel, mask count and file prefixes.
func DefaultOptions() Options {
	return Options{
		Sentinel:     0,
		MaskCount:    5,
		FixedPrefix:  "FMask",
		MovingPrefix: "MMask",
	}
}

// Prefix returns the mask file prefix for ref.
func (o Options) Prefix(ref landmark.ImageRef) string {
	if ref == landmark.Fixed {
		return o.FixedPrefix
	}
	return o.MovingPrefix
}

// MaskName returns the file name of the mask for ref at the 0-based row.
func (o Options) MaskName(ref landmark.ImageRef, row int) string {
	return fmt.Sprintf("%s%d.png", o.Prefix(ref), row+1)
}

// FileError records one file that could not be written.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Report lists the outcome of a mask export.
type Report struct {
	Written  []string
	Failures []FileError
}

// OK reports whether every file was written.
func (r Report) OK() bool {
	return len(r.Failures) == 0
}

// Err joins all failures, or returns nil.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Writer exports landmark tables through a Store.
type Writer struct {
	store Store
	opts  Options
	log   zerolog.Logger
}

// NewWriter creates a Writer. A nil store writes to the local file system.
func NewWriter(store Store, opts Options, log zerolog.Logger) *Writer {
	if store == nil {
		store = LocalStore{}
	}
	return &Writer{store: store, opts: opts, log: log}
}

// WriteLandmarksText writes the table's text grid to path.
func (w *Writer) WriteLandmarksText(t *landmark.Table, path string) error {
	data := t.Format(w.opts.Sentinel)
	if err := w.store.WriteObject(path, []byte(data)); err != nil {
		w.log.Error().Err(err).Str("path", path).Msg("landmark text write failed")
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	w.log.Info().Str("path", path).Int("rows", t.Capacity()).Msg("wrote landmark text")
	return nil
}

// WriteMasks writes a mask for every set point in the first MaskCount rows.
// Per-file failures are collected in the report and do not stop the
// remaining writes. The returned error is non-nil only if dir itself could
// not be created.
func (w *Writer) WriteMasks(t *landmark.Table, fixedSize, movingSize geometry.Size, dir string) (Report, error) {
	var report Report
	if err := w.store.EnsureDir(dir); err != nil {
		return report, fmt.Errorf("%w: creating %s: %w", ErrWrite, dir, err)
	}

	rows := min(w.opts.MaskCount, t.Capacity())
	for row := 0; row < rows; row++ {
		r := t.Row(row)
		for _, ref := range []landmark.ImageRef{landmark.Fixed, landmark.Moving} {
			p, ok := r.Point(ref)
			if !ok {
				continue
			}
			size := fixedSize
			if ref == landmark.Moving {
				size = movingSize
			}

			path := filepath.Join(dir, w.opts.MaskName(ref, row))
			if err := w.writeMask(path, size, p); err != nil {
				w.log.Error().Err(err).Str("path", path).Int("row", row).Str("image", ref.String()).Msg("mask write failed")
				report.Failures = append(report.Failures, FileError{Path: path, Err: err})
				continue
			}
			report.Written = append(report.Written, path)
		}
	}

	w.log.Info().
		Str("dir", dir).
		Int("written", len(report.Written)).
		Int("failed", len(report.Failures)).
		Msg("mask export finished")
	return report, nil
}

func (w *Writer) writeMask(path string, size geometry.Size, p geometry.Point) error {
	m, err := mask.Single(size, p)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	data, err := EncodePNG(m)
	if err != nil {
		return fmt.Errorf("%w: encoding: %w", ErrWrite, err)
	}
	if err := w.store.WriteObject(path, data); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// MaskFiles returns the mask names WriteMasks would produce for t.
func (w *Writer) MaskFiles(t *landmark.Table) []string {
	var names []string
	rows := min(w.opts.MaskCount, t.Capacity())
	for row := 0; row < rows; row++ {
		r := t.Row(row)
		for _, ref := range []landmark.ImageRef{landmark.Fixed, landmark.Moving} {
			if _, ok := r.Point(ref); ok {
				names = append(names, w.opts.MaskName(ref, row))
			}
		}
	}
	return names
}

// Summary is a one-line description of a report for display.
func (r Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d mask file(s) written", len(r.Written))
	if !r.OK() {
		fmt.Fprintf(&sb, ", %d failed", len(r.Failures))
	}
	return sb.String()
}

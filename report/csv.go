// Package report writes aggregated error curves to disk. Rows are headerless
// "items,mean,min,max" lines so existing plotting scripts can read them.
package report

import (
	"encoding/csv"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"HLL-EVAL/simulation"
)

// RowSink consumes a finished error curve.
type RowSink interface {
	WriteRows(rows iter.Seq[simulation.Row]) error
}

type CSVSink struct {
	w *csv.Writer
}

func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (s *CSVSink) WriteRows(rows iter.Seq[simulation.Row]) error {
	for r := range rows {
		err := s.w.Write([]string{
			strconv.FormatUint(r.Items, 10),
			formatFloat(r.Mean),
			formatFloat(r.Min),
			formatFloat(r.Max),
		})
		if err != nil {
			return errors.Wrap(err, "writing csv row")
		}
	}
	s.w.Flush()
	return errors.Wrap(s.w.Error(), "flushing csv")
}

// WriteTrial writes one "items,error" line per checkpoint of a single trial.
func WriteTrial(w io.Writer, res simulation.TrialResult) error {
	cw := csv.NewWriter(w)
	for _, c := range res.Checkpoints {
		if err := cw.Write([]string{strconv.FormatUint(c.Items, 10), formatFloat(c.Err)}); err != nil {
			return errors.Wrap(err, "writing csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

// BaseName labels a run on disk: "/" in the estimator name becomes "_".
func BaseName(estimator string, precision uint8) string {
	name := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(estimator)
	return name + "-p" + strconv.Itoa(int(precision))
}

// FileName is the per-run CSV output path.
func FileName(dir, estimator string, precision uint8) string {
	return filepath.Join(dir, BaseName(estimator, precision)+".csv")
}

// WriteFile creates (or truncates) the run's file under dir and writes rows
// to it. It returns the path written.
func WriteFile(dir, estimator string, precision uint8, rows iter.Seq[simulation.Row]) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating output directory %s", dir)
	}
	path := FileName(dir, estimator, precision)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create output file '%s'", path)
	}
	if err := NewCSVSink(f).WriteRows(rows); err != nil {
		f.Close()
		return "", err
	}
	return path, errors.Wrapf(f.Close(), "closing %s", path)
}

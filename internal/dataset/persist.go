package dataset

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/drakos74/wndchrm/internal/model"
	"github.com/drakos74/wndchrm/internal/storage"
)

// maxLine is the longest line accepted when reading set files.
const maxLine = 64 * 1024 * 1024

// Save writes the set to the given path in the text format.
func (ts *TrainingSet) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create file '%s': %w", path, err)
	}
	if err := ts.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("could not save set to '%s': %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close file '%s': %w", path, err)
	}
	ts.log.Info().
		Str("path", path).
		Int("samples", len(ts.samples)).
		Int("features", len(ts.names)).
		Msg("saved training set")
	return nil
}

// Encode writes the set in the text format:
// class count, feature count, sample count, the feature names, the class labels starting at index 0
// and two lines per sample, the values followed by the class index, and the sample source.
func (ts *TrainingSet) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n%d\n", ts.ClassCount(), len(ts.names), len(ts.samples))
	for _, name := range ts.names {
		fmt.Fprintln(bw, name)
	}
	for _, label := range ts.labels {
		fmt.Fprintln(bw, label)
	}
	for _, s := range ts.samples {
		for _, v := range s.Values {
			bw.WriteString(formatValue(v))
			bw.WriteByte(' ')
		}
		fmt.Fprintf(bw, "%d\n%s\n", s.Class, s.Source)
	}
	return bw.Flush()
}

// Load replaces the contents of the set with the set stored at the given path.
// On failure the set is left untouched.
func (ts *TrainingSet) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open file '%s' %s: %w", path, err.Error(), storage.NotFoundErr)
	}
	defer f.Close()
	opts := []Option{WithLogger(ts.log)}
	if ts.unlabeled {
		opts = append(opts, Unlabeled())
	}
	loaded, err := Decode(f, opts...)
	if err != nil {
		return fmt.Errorf("could not load set from '%s': %w", path, err)
	}
	ts.replace(loaded)
	ts.log.Info().
		Str("path", path).
		Int("classes", ts.ClassCount()).
		Int("samples", len(ts.samples)).
		Int("features", len(ts.names)).
		Msg("loaded training set")
	return nil
}

// Decode reads a set in the text format.
// Every sample goes through AddSample, so the set invariants are validated again.
func Decode(r io.Reader, opts ...Option) (*TrainingSet, error) {
	lines := &lineReader{scanner: bufio.NewScanner(r)}
	lines.scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	classes, err := lines.int("class count")
	if err != nil {
		return nil, err
	}
	features, err := lines.int("feature count")
	if err != nil {
		return nil, err
	}
	samples, err := lines.int("sample count")
	if err != nil {
		return nil, err
	}
	if classes < 0 || features < 0 || samples < 0 {
		return nil, fmt.Errorf("negative header [%d,%d,%d]: %w", classes, features, samples, storage.CouldNotLoadErr)
	}

	names := make([]string, features)
	for i := range names {
		if names[i], err = lines.next("feature name"); err != nil {
			return nil, err
		}
	}
	labels := make([]string, classes+1)
	for i := range labels {
		if labels[i], err = lines.next("class label"); err != nil {
			return nil, err
		}
	}

	ts := New(labels[1:], opts...)
	ts.labels[0] = labels[0]
	ts.SetFeatureNames(names)
	for i := 0; i < samples; i++ {
		line, err := lines.next("sample values")
		if err != nil {
			return nil, err
		}
		fields := strings.Fields(line)
		if len(fields) != features+1 {
			return nil, fmt.Errorf("sample %d has %d fields instead of %d: %w", i, len(fields), features+1, storage.CouldNotLoadErr)
		}
		s := &model.Signature{Values: make([]float64, features)}
		for f := 0; f < features; f++ {
			if s.Values[f], err = strconv.ParseFloat(fields[f], 64); err != nil {
				return nil, fmt.Errorf("sample %d feature %d '%s': %w", i, f, fields[f], storage.CouldNotLoadErr)
			}
		}
		if s.Class, err = strconv.Atoi(fields[features]); err != nil {
			return nil, fmt.Errorf("sample %d class '%s': %w", i, fields[features], storage.CouldNotLoadErr)
		}
		if s.Source, err = lines.next("sample source"); err != nil {
			return nil, err
		}
		if err := ts.AddSample(s); err != nil {
			return nil, fmt.Errorf("sample %d rejected: %w", i, err)
		}
	}
	return ts, nil
}

// formatValue prints integral values without a decimal point and everything else in scientific notation.
func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return fmt.Sprintf("%.5e", v)
}

type lineReader struct {
	scanner *bufio.Scanner
	line    int
}

func (l *lineReader) next(what string) (string, error) {
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", fmt.Errorf("could not read %s at line %d %s: %w", what, l.line+1, err.Error(), storage.CouldNotLoadErr)
		}
		return "", fmt.Errorf("missing %s at line %d: %w", what, l.line+1, storage.CouldNotLoadErr)
	}
	l.line++
	return strings.TrimRight(l.scanner.Text(), "\r"), nil
}

func (l *lineReader) int(what string) (int, error) {
	s, err := l.next(what)
	if err != nil {
		return 0, err
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s' at line %d: %w", what, s, l.line, storage.CouldNotLoadErr)
	}
	return i, nil
}

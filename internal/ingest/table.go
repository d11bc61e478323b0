package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/gaze.report/internal/fsutil"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/klauspost/compress/zstd"
)

// table is a parsed CSV file with a header row.
type table struct {
	path   string
	header map[string]int
	rows   [][]string
}

// readTable reads a CSV file, decompressing it first when the name ends in
// ".zst".
func readTable(fsys fsutil.FileSystem, path string) (*table, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream %s: %w", path, err)
		}
		defer dec.Close()
		r = dec
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}

	t := &table{path: path, header: make(map[string]int, len(records[0])), rows: records[1:]}
	for i, name := range records[0] {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := t.header[name]; !dup {
			t.header[name] = i
		}
	}
	return t, nil
}

// col returns the index of the first of names present in the header, or -1.
func (t *table) col(names ...string) int {
	for _, n := range names {
		if i, ok := t.header[n]; ok {
			return i
		}
	}
	return -1
}

// require is col but fails when none of names is present.
func (t *table) require(names ...string) (int, error) {
	if i := t.col(names...); i >= 0 {
		return i, nil
	}
	return -1, fmt.Errorf("%s: missing column %q", t.path, names[0])
}

// line returns the 1-based file line of data row i.
func line(i int) int { return i + 2 }

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (t *table) float(row []string, idx, i int) (*float64, error) {
	s := cell(row, idx)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s line %d: invalid number %q: %w", t.path, line(i), s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, nil
	}
	return &v, nil
}

// integer parses a whole number. Values written as floats ("12.0") are
// accepted when they have no fractional part.
func (t *table) integer(row []string, idx, i int) (int64, bool, error) {
	s := cell(row, idx)
	if s == "" {
		return 0, false, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false, fmt.Errorf("%s line %d: invalid integer %q", t.path, line(i), s)
	}
	return int64(f), true, nil
}

func (t *table) boolean(row []string, idx, i int) (*bool, error) {
	s := cell(row, idx)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("%s line %d: invalid boolean %q", t.path, line(i), s)
	}
	return &v, nil
}

// point reads an (x, y) pair; it is absent unless both cells are set.
func (t *table) point(row []string, xi, yi, i int) (*gaze.Point, error) {
	x, err := t.float(row, xi, i)
	if err != nil {
		return nil, err
	}
	y, err := t.float(row, yi, i)
	if err != nil {
		return nil, err
	}
	if x == nil || y == nil {
		return nil, nil
	}
	return &gaze.Point{X: *x, Y: *y}, nil
}

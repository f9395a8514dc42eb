// Package stats merges the per-package statistic rows produced by the
// pipeline's test step into a single repository-wide summary.
//
// Each row is one CSV record: the package identity, a timestamp, six
// integer counters, and the list of modules the test step covered. Parsing
// is strict — a row with the wrong column shape fails with
// MALFORMED_STATS_ROW rather than being skipped or zero-filled, because a
// silently narrowed summary is worse than no summary.
package stats

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/repoforge/repoforge/pkg/errors"
)

// NumCounters is the width of the counter vector in every row.
const NumCounters = 6

// numColumns is identity + timestamp + counters + modules list.
const numColumns = 2 + NumCounters + 1

// TotalID is the identity of the trailing totals row in a summary.
const TotalID = "TOTAL"

// Header names the columns of the summary CSV.
var Header = []string{
	"package", "timestamp",
	"tests", "passed", "failed", "skipped", "errors", "assertions",
	"modules",
}

// Row is one per-package statistics record.
type Row struct {
	PackageID string
	Timestamp string
	Counters  [NumCounters]int
	Modules   []string
}

// Summary is the merged result: rows sorted by package identity plus a
// trailing TOTAL row with element-wise counter sums.
type Summary struct {
	Rows  []Row
	Total Row
}

// Combine merges rows into a summary. The input is not modified.
func Combine(rows []Row) Summary {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PackageID < sorted[j].PackageID })

	total := Row{PackageID: TotalID}
	for _, r := range sorted {
		for i, c := range r.Counters {
			total.Counters[i] += c
		}
	}

	return Summary{Rows: sorted, Total: total}
}

// ParseRow converts one CSV record into a Row, enforcing the exact column
// shape. The modules column is a semicolon-separated list and may be empty.
func ParseRow(fields []string) (Row, error) {
	if len(fields) != numColumns {
		return Row{}, errors.New(errors.ErrCodeMalformedStatsRow,
			"expected %d columns, got %d", numColumns, len(fields))
	}

	row := Row{PackageID: fields[0], Timestamp: fields[1]}
	if row.PackageID == "" {
		return Row{}, errors.New(errors.ErrCodeMalformedStatsRow, "empty package identity")
	}

	for i := 0; i < NumCounters; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(fields[2+i]))
		if err != nil {
			return Row{}, errors.New(errors.ErrCodeMalformedStatsRow,
				"counter %d of %s is not an integer: %q", i, row.PackageID, fields[2+i])
		}
		row.Counters[i] = n
	}

	if modules := fields[numColumns-1]; modules != "" {
		row.Modules = strings.Split(modules, ";")
	}
	return row, nil
}

// ReadFile parses every row of one statistics file.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "opening stats file %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // shape is checked per row for a precise error

	var rows []Row
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedStatsRow, err, "reading %s", path)
		}
		row, err := ParseRow(fields)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedStatsRow, err, "in %s", path)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadDir parses every .csv file in dir, in sorted filename order.
func ReadDir(dir string) ([]Row, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "reading stats dir %s", dir)
	}

	var rows []Row
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".csv" {
			continue
		}
		fileRows, err := ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		rows = append(rows, fileRows...)
	}
	return rows, nil
}

// WriteCSV emits the header, the sorted rows, and the TOTAL row.
func WriteCSV(w io.Writer, s Summary) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, row := range s.Rows {
		if err := writer.Write(row.fields()); err != nil {
			return err
		}
	}
	if err := writer.Write(s.Total.fields()); err != nil {
		return err
	}

	writer.Flush()
	return writer.Error()
}

func (r Row) fields() []string {
	fields := make([]string, 0, numColumns)
	fields = append(fields, r.PackageID, r.Timestamp)
	for _, c := range r.Counters {
		fields = append(fields, strconv.Itoa(c))
	}
	return append(fields, strings.Join(r.Modules, ";"))
}

// Package report reads and writes per-class classification report tables.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/Brownie44l1/tl-eval/internal/common"
)

const (
	expectedColumns = 5
	// accuracy, macro avg and weighted avg close every report.
	summaryRows = 3
)

// Row is one class of a classification report.
type Row struct {
	ClassName    string
	Precision    float64
	Recall       float64
	F1Score      float64
	SupportCount int
}

// Table is a classification report with the summary rows removed.
type Table struct {
	rows []Row
}

// NewTable builds a Table from rows. The rows are copied.
func NewTable(rows []Row) *Table {
	return &Table{rows: append([]Row(nil), rows...)}
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns a copy of the rows in file order.
func (t *Table) Rows() []Row {
	return append([]Row(nil), t.rows...)
}

func (t *Table) ClassNames() []string {
	names := make([]string, len(t.rows))
	for i, r := range t.rows {
		names[i] = r.ClassName
	}
	return names
}

func (t *Table) F1Scores() []float64 {
	scores := make([]float64, len(t.rows))
	for i, r := range t.rows {
		scores[i] = r.F1Score
	}
	return scores
}

// Load reads the report CSV at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.Wrap(common.ErrIO, "open report "+path, err)
	}
	defer f.Close()

	table, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return table, nil
}

// Parse reads a report in CSV form. The header row is required but its
// names are ignored: columns are class, precision, recall, F1 and support in
// that order. The last three rows are summaries and are dropped.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, common.Errorf(common.ErrSchema, "report has no header row")
	}
	if err != nil {
		return nil, common.Wrap(common.ErrIO, "read header", err)
	}
	if len(header) != expectedColumns {
		return nil, common.Errorf(common.ErrSchema, "expected %d columns, got %d", expectedColumns, len(header))
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, common.Wrap(common.ErrIO, "read rows", err)
	}
	if len(records) < summaryRows {
		return nil, common.Errorf(common.ErrSchema, "expected at least %d summary rows, got %d rows", summaryRows, len(records))
	}
	records = records[:len(records)-summaryRows]

	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		row, err := parseRow(rec)
		if err != nil {
			// +2 for the header and 1-based line numbers.
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}

	return &Table{rows: rows}, nil
}

func parseRow(rec []string) (Row, error) {
	if len(rec) != expectedColumns {
		return Row{}, common.Errorf(common.ErrSchema, "expected %d columns, got %d", expectedColumns, len(rec))
	}

	var values [expectedColumns - 1]float64
	for i, field := range rec[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return Row{}, common.Wrap(common.ErrIO, fmt.Sprintf("column %d", i+2), err)
		}
		values[i] = v
	}

	return Row{
		ClassName:    rec[0],
		Precision:    values[0],
		Recall:       values[1],
		F1Score:      values[2],
		SupportCount: int(math.Round(values[3])),
	}, nil
}

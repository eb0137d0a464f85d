package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// Table is a decoded master file: a trimmed header row and the data rows
// below it, kept verbatim
type Table struct {
	Header  []string
	Records [][]string
}

// ReadTable parses CSV text. Header cells are trimmed so that stray spaces
// around column names do not hide required columns. Short rows are padded to
// the header width and cells beyond it are dropped.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}

	table := &Table{Header: header}
	for _, row := range rows[1:] {
		if isBlankRecord(row) {
			continue
		}
		record := make([]string, len(header))
		copy(record, row)
		table.Records = append(table.Records, record)
	}
	return table, nil
}

// WriteTable writes the table as CSV
func WriteTable(w io.Writer, t *Table) error {
	writer := gocsv.NewSafeCSVWriter(csv.NewWriter(w))
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, record := range t.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Records)
}

// Column returns the index of the named column, or -1
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Missing lists the required columns absent from the header
func (t *Table) Missing(required []string) []string {
	var missing []string
	for _, name := range required {
		if t.Column(name) < 0 {
			missing = append(missing, name)
		}
	}
	return missing
}

// Rows returns the header followed by the records, the shape written into a
// worksheet
func (t *Table) Rows() [][]string {
	rows := make([][]string, 0, len(t.Records)+1)
	rows = append(rows, t.Header)
	return append(rows, t.Records...)
}

// reader feeds a table back to gocsv for struct unmarshalling
func (t *Table) reader() gocsv.CSVReader {
	return &tableReader{rows: t.Rows()}
}

type tableReader struct {
	rows [][]string
	next int
}

func (r *tableReader) Read() ([]string, error) {
	if r.next >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.next]
	r.next++
	return row, nil
}

func (r *tableReader) ReadAll() ([][]string, error) {
	rest := r.rows[r.next:]
	r.next = len(r.rows)
	return rest, nil
}

func isBlankRecord(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

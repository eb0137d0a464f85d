package extract

import (
	"strings"

	"github.com/pyhub-apps/kazudashi-golang/pkg/layout"
	"github.com/pyhub-apps/kazudashi-golang/pkg/pdf"
)

// Meal count caps per client
const (
	maxStudentMeals = 3
	maxTeacherMeals = 2

	// closeWindow is how many rows on either side of a record's last row are
	// searched for its count rows
	closeWindow = 3
)

// ClientMealRecord holds the meal counts of one client (a kindergarten)
type ClientMealRecord struct {
	ClientID     string
	ClientName   string
	StudentMeals []int
	TeacherMeals []int
}

// ClientExtractor reads client meal records from every page of a document
type ClientExtractor struct {
	assembler *layout.Assembler
}

// NewClientExtractor creates an extractor using the given assembler
func NewClientExtractor(assembler *layout.Assembler) *ClientExtractor {
	if assembler == nil {
		assembler = layout.NewAssembler()
	}
	return &ClientExtractor{assembler: assembler}
}

// Extract assembles the grid of each page and concatenates the records found
// on them, in page order
func (e *ClientExtractor) Extract(doc pdf.Document) ([]ClientMealRecord, []Warning) {
	var (
		records  []ClientMealRecord
		warnings []Warning
	)

	for _, page := range doc.GetPages() {
		grid := e.assembler.Assemble(page)
		if len(grid) == 0 {
			continue
		}
		found := ExtractClientMeals(grid)
		if len(found) == 0 && gardenRow(grid) >= 0 {
			warnings = append(warnings, Warning{Page: page.GetPageNumber(), Message: "client header found but no client records"})
		}
		records = append(records, found...)
	}

	if len(records) == 0 {
		warnings = append(warnings, Warning{Message: "no client records found"})
	}
	return records, warnings
}

// ExtractClientMeals scans the rows after the 園名 header. A row whose first
// cell is an integer opens a record for that client ID and the next row with
// a non-integer first cell names it. A record is closed by the next ID row,
// the end marker row or the end of the grid; closing gathers the counts of
// the rows near it whose first cell equals the ID (students) or the name
// (teachers).
func ExtractClientMeals(grid layout.Grid) []ClientMealRecord {
	header := gardenRow(grid)
	if header < 0 {
		return nil
	}

	var (
		records []ClientMealRecord
		id      string
		name    string
	)

	limit := len(grid)
	for i := header + 1; i < len(grid); i++ {
		if rowContains(grid[i], EndMarker) {
			limit = i
			break
		}
	}

	for i := header + 1; i < limit; i++ {
		row := grid[i]
		if rowBlank(row) {
			continue
		}

		first := strings.TrimSpace(row[0])
		if first == "" {
			continue
		}

		switch {
		case isInteger(first):
			if id != "" && name != "" {
				records = append(records, closeRecord(grid, header+1, limit, i-1, id, name))
			}
			id, name = first, ""
		case id != "" && name == "":
			name = first
		}
	}

	if id != "" && name != "" {
		records = append(records, closeRecord(grid, header+1, limit, limit-1, id, name))
	}
	return records
}

// closeRecord builds the record of id/name from the rows in
// [idx-closeWindow, idx+closeWindow) clamped to [from, to)
func closeRecord(grid layout.Grid, from, to, idx int, id, name string) ClientMealRecord {
	record := ClientMealRecord{ClientID: id, ClientName: name}

	start := max(from, idx-closeWindow)
	end := min(to, idx+closeWindow)
	for i := start; i < end; i++ {
		row := grid[i]
		if len(row) == 0 {
			continue
		}
		switch strings.TrimSpace(row[0]) {
		case id:
			record.StudentMeals = append(record.StudentMeals, countsOf(row)...)
		case name:
			record.TeacherMeals = append(record.TeacherMeals, countsOf(row)...)
		}
	}

	if len(record.StudentMeals) > maxStudentMeals {
		record.StudentMeals = record.StudentMeals[:maxStudentMeals]
	}
	if len(record.TeacherMeals) > maxTeacherMeals {
		record.TeacherMeals = record.TeacherMeals[:maxTeacherMeals]
	}
	return record
}

// countsOf reads the integer cells after the first one, skipping blanks and
// stopping at the first other text
func countsOf(row []string) []int {
	var counts []int
	for _, cell := range row[1:] {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		n, ok := parseCount(cell)
		if !ok {
			break
		}
		counts = append(counts, n)
	}
	return counts
}

func gardenRow(grid layout.Grid) int {
	for i, row := range grid {
		if rowContains(row, GardenMarker) {
			return i
		}
	}
	return -1
}

package extract

import (
	"fmt"
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/pyhub-apps/kazudashi-golang/pkg/pdf"
)

// Ruled-table settings for the bento grid. Short ticks and hatching inside
// the cells are below the minimum edge length.
const (
	bentoSnapTolerance = 3
	bentoJoinTolerance = 3
	bentoEdgeMinLength = 15
)

// BentoExtractor finds the ruled order table listing the bento products
type BentoExtractor struct {
	keywords *ahocorasick.Matcher
}

// NewBentoExtractor creates an extractor that only considers pages whose
// text contains one of the start keywords
func NewBentoExtractor() *BentoExtractor {
	return &BentoExtractor{
		keywords: ahocorasick.NewStringMatcher([]string{GardenMarker, WithRiceMarker, CharacterMarker}),
	}
}

// Extract returns the table with the most cells among the ruled tables of
// the keyword pages. The second result is false when no page carries one.
func (e *BentoExtractor) Extract(doc pdf.Document) (pdf.Table, []Warning, bool) {
	var (
		best     pdf.Table
		found    bool
		warnings []Warning
	)

	for _, page := range doc.GetPages() {
		if !e.isBentoPage(page) {
			continue
		}

		bbox, ok := pdf.LinesBBox(page)
		if !ok {
			warnings = append(warnings, Warning{Page: page.GetPageNumber(), Message: "bento keywords found but the page has no ruling lines"})
			continue
		}

		tables := page.Crop(bbox).ExtractTables(
			pdf.WithSnapTolerance(bentoSnapTolerance),
			pdf.WithJoinTolerance(bentoJoinTolerance),
			pdf.WithEdgeMinLength(bentoEdgeMinLength),
		)
		if len(tables) == 0 {
			warnings = append(warnings, Warning{Page: page.GetPageNumber(), Message: "no ruled table found"})
			continue
		}

		for _, table := range tables {
			if !found || table.CellCount() > best.CellCount() {
				best = table
				found = true
			}
		}
	}

	return best, warnings, found
}

// Names locates the product name range of the table. An error describes the
// missing anchor.
func (e *BentoExtractor) Names(table pdf.Table) ([]string, error) {
	anchor := FindAnchorColumn(table.Rows, RedRiceMarker)
	if anchor < 0 {
		return nil, fmt.Errorf("no %q column below a %q row", NoRiceMarker, RedRiceMarker)
	}

	names := ExtractNameRange(table.Rows, anchor)
	if len(names) == 0 {
		return nil, fmt.Errorf("no product names between column %d and the %q column", anchor, SnackMarker)
	}
	return names, nil
}

func (e *BentoExtractor) isBentoPage(page pdf.Page) bool {
	text := page.ExtractText()
	if text == "" {
		return false
	}
	return len(e.keywords.MatchThreadSafe([]byte(text))) > 0
}

// FindAnchorColumn returns the column of the first cell containing 飯なし in
// one of the two rows below a row containing marker, or -1. Rows containing
// marker are tried in order until one has 飯なし below it.
func FindAnchorColumn(rows [][]string, marker string) int {
	for i, row := range rows {
		if !rowContains(row, marker) {
			continue
		}
		for offset := 1; offset <= 2 && i+offset < len(rows); offset++ {
			for j, cell := range rows[i+offset] {
				if strings.Contains(cell, NoRiceMarker) {
					return j
				}
			}
		}
	}
	return -1
}

// ExtractNameRange collects the product names of the header row over the
// columns [anchorCol, endCol), where endCol is the first cell containing
// おやつ and the header row is the row just above the first row containing
// 飯なし. Cells that are blank or contain 飯なし are skipped.
func ExtractNameRange(rows [][]string, anchorCol int) []string {
	endCol := -1
	for _, row := range rows {
		for j, cell := range row {
			if strings.Contains(cell, SnackMarker) {
				endCol = j
				break
			}
		}
		if endCol >= 0 {
			break
		}
	}
	if anchorCol < 0 || endCol < 0 || anchorCol >= endCol {
		return nil
	}

	header := -1
	for i, row := range rows {
		if i > 0 && rowContains(row, NoRiceMarker) {
			header = i - 1
			break
		}
	}
	if header < 0 {
		return nil
	}

	var names []string
	for col := anchorCol; col < endCol && col < len(rows[header]); col++ {
		cell := strings.TrimSpace(rows[header][col])
		if cell == "" || strings.Contains(cell, NoRiceMarker) {
			continue
		}
		names = append(names, cell)
	}
	return names
}

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/kazudashi-golang/pkg/layout"
	"github.com/pyhub-apps/kazudashi-golang/pkg/pdf"
)

func glyphs(text string, x, top float64) []pdf.CharObject {
	const size = 8
	var chars []pdf.CharObject
	for _, r := range text {
		chars = append(chars, pdf.CharObject{
			Text:     string(r),
			FontSize: size,
			X0:       x,
			Y0:       top,
			X1:       x + size,
			Y1:       top + size,
		})
		x += size
	}
	return chars
}

// ruledPage draws a grid with the given row and column rules and writes
// cells[i][j] at the top-left of each cell
func ruledPage(number int, header string, ys, xs []float64, cells [][]string) *pdf.PDFPage {
	var lines []pdf.LineObject
	for _, y := range ys {
		lines = append(lines, pdf.LineObject{X0: xs[0], Y0: y, X1: xs[len(xs)-1], Y1: y, Width: 1})
	}
	for _, x := range xs {
		lines = append(lines, pdf.LineObject{X0: x, Y0: ys[0], X1: x, Y1: ys[len(ys)-1], Width: 1})
	}

	var chars []pdf.CharObject
	if header != "" {
		chars = append(chars, glyphs(header, 20, 20)...)
	}
	for i, row := range cells {
		for j, text := range row {
			chars = append(chars, glyphs(text, xs[j]+4, ys[i]+4)...)
		}
	}

	return pdf.NewPage(number, pdf.BoundingBox{X1: 600, Y1: 800}, pdf.Objects{Chars: chars, Lines: lines})
}

func TestFindAnchorColumnAndNameRange(t *testing.T) {
	rows := [][]string{
		{"", "", "", "商品A", "商品B", "おやつ", "赤"},
		{"", "", "", "飯なし", "", "", ""},
		{"ひまわり", "", "", "1", "2", "3", ""},
	}

	anchor := FindAnchorColumn(rows, RedRiceMarker)
	require.Equal(t, 3, anchor)
	assert.Equal(t, []string{"商品A", "商品B"}, ExtractNameRange(rows, anchor))
}

func TestExtractNameRange(t *testing.T) {
	testCases := []struct {
		name   string
		rows   [][]string
		anchor int
		want   []string
	}{
		{
			name: "simple range",
			rows: [][]string{
				{"赤", "", "", "", "", ""},
				{"", "", "", "商品A", "商品B", "おやつ"},
				{"", "", "", "飯なし", "", ""},
			},
			anchor: 3,
			want:   []string{"商品A", "商品B"},
		},
		{
			name: "blank and marker cells skipped",
			rows: [][]string{
				{"", "飯なし ", " ", " 唐揚げ ", "おやつ"},
				{"", "飯なし", "", "", ""},
			},
			anchor: 1,
			want:   []string{"唐揚げ"},
		},
		{
			name: "inverted range",
			rows: [][]string{
				{"おやつ", "商品A"},
				{"", "飯なし"},
			},
			anchor: 1,
			want:   nil,
		},
		{
			name: "no end marker",
			rows: [][]string{
				{"", "商品A"},
				{"", "飯なし"},
			},
			anchor: 0,
			want:   nil,
		},
		{
			name: "no header row",
			rows: [][]string{
				{"飯なし", "商品A", "おやつ"},
			},
			anchor: 0,
			want:   nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractNameRange(tc.rows, tc.anchor))
		})
	}
}

func TestFindAnchorColumn(t *testing.T) {
	testCases := []struct {
		name string
		rows [][]string
		want int
	}{
		{
			name: "one row below",
			rows: [][]string{{"赤"}, {"", "", "飯なし"}},
			want: 2,
		},
		{
			name: "two rows below",
			rows: [][]string{{"", "赤飯"}, {"", ""}, {"飯なし"}},
			want: 0,
		},
		{
			name: "too far below",
			rows: [][]string{{"赤"}, {""}, {""}, {"飯なし"}},
			want: -1,
		},
		{
			name: "no marker",
			rows: [][]string{{"白"}, {"飯なし"}},
			want: -1,
		},
		{
			name: "earlier marker row without anchor",
			rows: [][]string{
				{"赤飯弁当 ご注文票"},
				{"", ""},
				{"", ""},
				{"", "赤"},
				{"", "", "飯なし"},
			},
			want: 2,
		},
		{
			name: "anchor needs a whole 飯なし cell",
			rows: [][]string{{"弁当", "赤"}, {"飯な", "し", "飯なし"}},
			want: 2,
		},
		{
			name: "marker on the last row",
			rows: [][]string{{"飯なし"}, {"赤"}},
			want: -1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FindAnchorColumn(tc.rows, RedRiceMarker))
		})
	}
}

func TestBentoExtractor(t *testing.T) {
	small := ruledPage(1, "園名", []float64{100, 120, 140}, []float64{50, 100, 150}, [][]string{
		{"a", "b"},
		{"c", "d"},
	})
	large := ruledPage(2, "", []float64{100, 120, 140, 160}, []float64{50, 100, 150}, [][]string{
		{"飯あり", "x"},
		{"1", "2"},
		{"3", "4"},
	})
	unrelated := ruledPage(3, "", []float64{100, 120, 140, 160, 180}, []float64{50, 100, 150, 200}, nil)
	keywordsOnly := pdf.NewPage(4, pdf.BoundingBox{X1: 600, Y1: 800}, pdf.Objects{Chars: glyphs("キャラ弁", 10, 10)})

	doc := pdf.NewDocument(small, large, unrelated, keywordsOnly)

	table, warnings, ok := NewBentoExtractor().Extract(doc)
	require.True(t, ok)
	assert.Equal(t, [][]string{{"飯あり", "x"}, {"1", "2"}, {"3", "4"}}, table.Rows)

	require.Len(t, warnings, 1)
	assert.Equal(t, 4, warnings[0].Page)
}

func TestBentoExtractorNotFound(t *testing.T) {
	doc := pdf.NewDocument(ruledPage(1, "", []float64{100, 120}, []float64{50, 100}, nil))

	_, _, ok := NewBentoExtractor().Extract(doc)
	assert.False(t, ok)
}

func TestBentoNames(t *testing.T) {
	e := NewBentoExtractor()

	names, err := e.Names(pdf.Table{Rows: [][]string{
		{"赤", "", "", "", "", ""},
		{"", "", "", "商品A", "商品B", "おやつ"},
		{"", "", "", "飯なし", "", ""},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"商品A", "商品B"}, names)

	_, err = e.Names(pdf.Table{Rows: [][]string{{"白"}}})
	assert.Error(t, err)
}

func TestExtractClientMeals(t *testing.T) {
	grid := layout.Grid{
		{"101", "9", "9"},
		{"", ""},
		{"園名", "園児", "先生"},
		{"101", "12", "3", "5", "7"},
		{"ひまわり園", "2", "x", "4"},
		{"", ""},
		{"102", "1"},
		{"さくら園", "１", "2", "3"},
		{"合計", "13"},
		{"10001", "total"},
		{"103", "99"},
		{"あおぞら園", "99"},
	}

	records := ExtractClientMeals(grid)
	require.Len(t, records, 2)

	assert.Equal(t, ClientMealRecord{
		ClientID:     "101",
		ClientName:   "ひまわり園",
		StudentMeals: []int{12, 3, 5},
		TeacherMeals: []int{2},
	}, records[0])

	assert.Equal(t, ClientMealRecord{
		ClientID:     "102",
		ClientName:   "さくら園",
		StudentMeals: []int{1},
		TeacherMeals: []int{1, 2},
	}, records[1])
}

func TestExtractClientMealsClosesOnEndMarker(t *testing.T) {
	grid := layout.Grid{
		{"園名", ""},
		{"201", "4"},
		{"たんぽぽ園", "1"},
		{"", "8"},
		{"備考", "6"},
		{"10001", ""},
		{"201", "50"},
	}

	records := ExtractClientMeals(grid)
	require.Len(t, records, 1)
	assert.Equal(t, []int{4}, records[0].StudentMeals)
	assert.Equal(t, []int{1}, records[0].TeacherMeals)
}

func TestExtractClientMealsIncompleteRecords(t *testing.T) {
	testCases := []struct {
		name string
		grid layout.Grid
	}{
		{name: "no header", grid: layout.Grid{{"101", "1"}, {"ひまわり園", "2"}}},
		{name: "id without name", grid: layout.Grid{{"園名"}, {"101", "1"}, {"102", "1"}}},
		{name: "name without id", grid: layout.Grid{{"園名"}, {"ひまわり園", "1"}}},
		{name: "empty", grid: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Empty(t, ExtractClientMeals(tc.grid))
		})
	}
}

func TestPasteGridBuilder(t *testing.T) {
	builder := NewPasteGridBuilder(nil)

	page := pdf.NewPage(1, pdf.BoundingBox{X1: 600, Y1: 800}, pdf.Objects{
		Chars: append(glyphs("園名", 10, 10), glyphs("10001", 10, 40)...),
	})
	grid, warnings, err := builder.Build(pdf.NewDocument(page))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, layout.Grid{{"園名"}, {"10001"}}, grid)

	empty := pdf.NewPage(1, pdf.BoundingBox{X1: 600, Y1: 800}, pdf.Objects{})
	grid, warnings, err = builder.Build(pdf.NewDocument(empty))
	require.NoError(t, err)
	assert.Nil(t, grid)
	assert.Len(t, warnings, 1)

	_, _, err = builder.Build(pdf.NewDocument())
	assert.ErrorIs(t, err, pdf.ErrNoPages)
}

func TestClientExtractor(t *testing.T) {
	var chars []pdf.CharObject
	chars = append(chars, glyphs("園名", 10, 10)...)
	chars = append(chars, glyphs("101", 10, 30)...)
	chars = append(chars, glyphs("5", 100, 30)...)
	chars = append(chars, glyphs("ひまわり園", 10, 50)...)
	chars = append(chars, glyphs("2", 100, 50)...)
	lines := []pdf.LineObject{
		{X0: 5, Y0: 0, X1: 5, Y1: 100},
		{X0: 90, Y0: 0, X1: 90, Y1: 100},
		{X0: 120, Y0: 0, X1: 120, Y1: 100},
	}
	page := pdf.NewPage(1, pdf.BoundingBox{X1: 600, Y1: 800}, pdf.Objects{Chars: chars, Lines: lines})

	records, warnings := NewClientExtractor(nil).Extract(pdf.NewDocument(page))
	require.Len(t, records, 1)
	assert.Empty(t, warnings)
	assert.Equal(t, ClientMealRecord{
		ClientID:     "101",
		ClientName:   "ひまわり園",
		StudentMeals: []int{5},
		TeacherMeals: []int{2},
	}, records[0])

	_, warnings = NewClientExtractor(nil).Extract(pdf.NewDocument())
	assert.Len(t, warnings, 1)
}

func TestRowContains(t *testing.T) {
	assert.True(t, rowContains([]string{"", "園名"}, GardenMarker))
	assert.True(t, rowContains([]string{"園", "名", ""}, GardenMarker), "marker split across adjacent cells")
	assert.True(t, rowContains([]string{"100", "01"}, EndMarker))
	assert.False(t, rowContains([]string{"園", "", "x", "名"}, GardenMarker))
	assert.False(t, rowContains(nil, GardenMarker))
}

func TestExtractClientMealsSplitHeader(t *testing.T) {
	grid := layout.Grid{
		{"園", "名", ""},
		{"101", "4", ""},
		{"ひまわり園", "1", ""},
		{"1000", "1", ""},
	}

	records := ExtractClientMeals(grid)
	require.Len(t, records, 1)
	assert.Equal(t, []int{4}, records[0].StudentMeals)
	assert.Equal(t, []int{1}, records[0].TeacherMeals)
}

func TestParseCount(t *testing.T) {
	n, ok := parseCount(" １２ ")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = parseCount("-1")
	assert.False(t, ok)
	_, ok = parseCount("")
	assert.False(t, ok)
}

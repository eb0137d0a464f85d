package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: "ＡＢＣ　弁当", want: "ABC弁当"},
		{in: " ｶﾚｰ ", want: "カレー"},
		{in: "たまごサンド（厚切り）", want: "たまごサンド(厚切り)"},
		{in: "㍻", want: "平成"},
		{in: "", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got := Normalize(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, Normalize(got))
		})
	}
}

func TestMatch(t *testing.T) {
	catalog := []CatalogItem{
		{Name: "たまごサンド(厚切り)", PackCount: "24"},
		{Name: "幕の内弁当", PackCount: "10"},
		{Name: "特製カレー", PackCount: "12"},
		{Name: "ハンバーグ", PackCount: "8"},
	}

	testCases := []struct {
		name      string
		extracted string
		want      Result
	}{
		{
			name:      "prefix of a truncated name",
			extracted: "たまごサンド(厚",
			want:      Result{RawName: "たまごサンド(厚", MatchedName: "たまごサンド(厚切り)", PackCount: "24", Matched: true, Index: 0},
		},
		{
			name:      "full width spelling",
			extracted: "　幕の内弁当 ",
			want:      Result{RawName: "幕の内弁当", MatchedName: "幕の内弁当", PackCount: "10", Matched: true, Index: 1},
		},
		{
			name:      "substring",
			extracted: "カレー",
			want:      Result{RawName: "カレー", MatchedName: "特製カレー", PackCount: "12", Matched: true, Index: 2},
		},
		{
			name:      "trailing noise is truncated away",
			extracted: "ハンバーグ弁当",
			want:      Result{RawName: "ハンバーグ弁当", MatchedName: "ハンバーグ", PackCount: "8", Matched: true, Index: 3},
		},
		{
			name:      "unknown product",
			extracted: "未知の商品XYZ",
			want:      Result{RawName: "未知の商品XYZ", Index: -1},
		},
		{
			name:      "blank name",
			extracted: "  ",
			want:      Result{RawName: "", Index: -1},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			results := Match([]string{tc.extracted}, catalog)
			require.Len(t, results, 1)
			assert.Equal(t, tc.want, results[0])
		})
	}
}

func TestMatchTotality(t *testing.T) {
	names := []string{"幕の内", "未知", "幕の内", ""}

	results := Match(names, []CatalogItem{{Name: "幕の内弁当", PackCount: "10"}})
	require.Len(t, results, len(names))

	for i, r := range results {
		assert.Equal(t, Normalize(names[i]), Normalize(r.RawName))
		if r.Matched {
			assert.NotEmpty(t, r.MatchedName)
		} else {
			assert.Equal(t, -1, r.Index)
		}
	}
	assert.True(t, results[0].Matched)
	assert.False(t, results[1].Matched)
}

func TestMatchEmptyCatalog(t *testing.T) {
	results := Match([]string{"幕の内弁当"}, nil)
	require.Len(t, results, 1)
	assert.False(t, results[0].Matched)
}

func TestMatchDoesNotModifyCatalog(t *testing.T) {
	catalog := []CatalogItem{{Name: " ＡＢＣ ", PackCount: "1"}}

	results := Match([]string{"ABC"}, catalog)
	assert.True(t, results[0].Matched)
	assert.Equal(t, " ＡＢＣ ", catalog[0].Name)
	assert.Equal(t, " ＡＢＣ ", results[0].MatchedName)
}

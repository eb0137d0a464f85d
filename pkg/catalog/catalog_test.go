package catalog

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/pyhub-apps/kazudashi-golang/pkg/match"
)

const productCSV = "商品予定名, パン箱入数 ,商品名,クラス分け名称4,クラス分け名称5\n" +
	"たまごサンド(厚切り),24,たまごサンド,パン,A\n" +
	"幕の内弁当,10,幕の内,弁当,B\n" +
	"幕の内弁当,12,幕の内(大),弁当,B\n" +
	",5,名無し,,\n" +
	"カレー,,カレー,,\n"

func encode(t *testing.T, enc encoding.Encoding, s string) []byte {
	t.Helper()
	out, _, err := transform.Bytes(enc.NewEncoder(), []byte(s))
	require.NoError(t, err)
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecode(t *testing.T) {
	testCases := []struct {
		name     string
		data     []byte
		encoding string
	}{
		{name: "utf-8", data: []byte(productCSV), encoding: "UTF-8"},
		{name: "utf-8 with bom", data: append([]byte("\xef\xbb\xbf"), productCSV...), encoding: "UTF-8"},
		{name: "shift_jis", data: encode(t, japanese.ShiftJIS, productCSV), encoding: "Shift_JIS"},
		{name: "euc-jp", data: encode(t, japanese.EUCJP, productCSV), encoding: "EUC-JP"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			table, enc, err := Decode(tc.data, ProductMaster.Required())
			require.NoError(t, err)
			assert.Equal(t, tc.encoding, enc)
			assert.Equal(t, 0, table.Column(ColumnProductName))
			assert.Equal(t, 1, table.Column(ColumnPackCount))
			assert.Equal(t, 5, table.Len())
			assert.Equal(t, "たまごサンド(厚切り)", table.Records[0][0])
		})
	}
}

func TestDecodeFailures(t *testing.T) {
	_, _, err := Decode([]byte("name,count\nfoo,1\n"), ProductMaster.Required())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndecodable)
	assert.ErrorIs(t, err, ErrMissingColumns)

	_, _, err = Decode(nil, CustomerMaster.Required())
	assert.ErrorIs(t, err, ErrUndecodable)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestReadTable(t *testing.T) {
	table, err := ReadTable(strings.NewReader(" a ,b,c\n1\n\n,,\n4,5,6,7\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, table.Header)
	assert.Equal(t, [][]string{{"1", "", ""}, {"4", "5", "6"}}, table.Records)
	assert.Equal(t, []string{"d"}, table.Missing([]string{"a", "d"}))
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"1", "", ""}, {"4", "5", "6"}}, table.Rows())
}

func TestWriteTableRoundTrip(t *testing.T) {
	table := &Table{
		Header:  []string{"得意先ＣＤ", "得意先名"},
		Records: [][]string{{"101", "ひまわり園, 本園"}, {"102", "さくら\"園\""}},
	}

	var buf bytes.Buffer
	require.NoError(t, encodeUTF8BOM(&buf, table))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\xef\xbb\xbf")))

	back, enc, err := Decode(buf.Bytes(), CustomerMaster.Required())
	require.NoError(t, err)
	assert.Equal(t, "UTF-8", enc)
	assert.Equal(t, table, back)
}

func TestNewProducts(t *testing.T) {
	table, _, err := Decode([]byte(productCSV), ProductMaster.Required())
	require.NoError(t, err)

	products, err := NewProducts(table)
	require.NoError(t, err)

	assert.Equal(t, 3, products.Len())
	assert.Equal(t, []match.CatalogItem{
		{Name: "たまごサンド(厚切り)", PackCount: "24"},
		{Name: "幕の内弁当", PackCount: "10"},
		{Name: "幕の内弁当", PackCount: "12"},
	}, products.Items())
	assert.Equal(t, "幕の内", products.DisplayName("幕の内弁当"))
	assert.Equal(t, "", products.DisplayName("カレー"))
	assert.Equal(t, "パン", products.Entry(0).Class4)
	assert.Equal(t, "B", products.Entry(2).Class5)

	var none *Products
	assert.Equal(t, 0, none.Len())
	assert.Nil(t, none.Items())
}

func TestNewProductsRejectsBadTables(t *testing.T) {
	_, err := NewProducts(&Table{Header: []string{ColumnProductName}})
	assert.ErrorIs(t, err, ErrMissingColumns)

	_, err = NewProducts(&Table{
		Header:  []string{ColumnProductName, ColumnPackCount},
		Records: [][]string{{"", "1"}},
	})
	assert.ErrorIs(t, err, ErrEmpty)
}

func writeMaster(t *testing.T, dir, name, content string, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	writeMaster(t, dir, "商品マスタ一覧_old.csv", productCSV, now.Add(-2*time.Hour))
	newest := writeMaster(t, dir, "商品マスタ一覧_20240401.csv", productCSV, now.Add(-time.Hour))
	writeMaster(t, dir, "商品マスタ一覧_backup.csv", productCSV, now)
	writeMaster(t, dir, "other.csv", productCSV, now)

	path, err := Latest(dir, DefaultProductPrefix)
	require.NoError(t, err)
	assert.Equal(t, newest, path)

	_, err = Latest(dir, DefaultCustomerPrefix)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreLoad(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeMaster(t, dir, "商品マスタ一覧.csv", productCSV, now)
	writeMaster(t, dir, "得意先マスタ一覧.csv", "得意先ＣＤ,得意先名,住所\n101,ひまわり園,東京\n", now)

	store := NewStore(dir, WithLogger(quietLogger()))
	require.NoError(t, store.Load())

	assert.Equal(t, 3, store.Products().Len())
	require.NotNil(t, store.Customers())
	assert.Equal(t, []string{"得意先ＣＤ", "得意先名", "住所"}, store.Customers().Header)
}

func TestStoreLoadWithoutCustomers(t *testing.T) {
	dir := t.TempDir()
	writeMaster(t, dir, "products.csv", productCSV, time.Now())

	store := NewStore(dir, WithLogger(quietLogger()), WithPrefixes("products", "customers"))
	require.NoError(t, store.Load())
	assert.Equal(t, 3, store.Products().Len())
	assert.Nil(t, store.Customers())

	empty := NewStore(t.TempDir(), WithLogger(quietLogger()))
	assert.ErrorIs(t, empty.Load(), ErrNotFound)
	assert.Nil(t, empty.Products())
}

func TestStoreImport(t *testing.T) {
	dir := t.TempDir()
	original := writeMaster(t, dir, "商品マスタ一覧.csv", productCSV, time.Now())

	store := NewStore(dir, WithLogger(quietLogger()))
	require.NoError(t, store.Load())

	upload := encode(t, japanese.ShiftJIS, "商品予定名,パン箱入数,商品名\nハンバーグ,8,ハンバーグ弁当\n")
	result, err := store.Import(ProductMaster, upload)
	require.NoError(t, err)

	assert.Equal(t, original, result.Path)
	assert.Equal(t, filepath.Join(dir, "商品マスタ一覧_backup.csv"), result.Backup)
	assert.Equal(t, "Shift_JIS", result.Encoding)
	assert.Equal(t, 1, result.Rows)

	backup, err := os.ReadFile(result.Backup)
	require.NoError(t, err)
	assert.Equal(t, productCSV, string(backup))

	saved, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(saved, []byte("\xef\xbb\xbf")))
	assert.Contains(t, string(saved), "ハンバーグ弁当")

	assert.Equal(t, 1, store.Products().Len())
	assert.Equal(t, "ハンバーグ弁当", store.Products().DisplayName("ハンバーグ"))
}

func TestStoreImportRejectsInvalidUpload(t *testing.T) {
	dir := t.TempDir()
	writeMaster(t, dir, "商品マスタ一覧.csv", productCSV, time.Now())

	store := NewStore(dir, WithLogger(quietLogger()))
	require.NoError(t, store.Load())

	_, err := store.Import(ProductMaster, []byte("name,count\nfoo,1\n"))
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Equal(t, 3, store.Products().Len())

	_, err = os.Stat(filepath.Join(dir, "商品マスタ一覧_backup.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestStoreImportCustomers(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, WithLogger(quietLogger()))

	result, err := store.Import(CustomerMaster, []byte("得意先ＣＤ,得意先名\n101,ひまわり園\n102,さくら園\n"))
	require.NoError(t, err)
	assert.Empty(t, result.Backup)
	assert.Equal(t, 2, store.Customers().Len())
	assert.Nil(t, store.Products())
}

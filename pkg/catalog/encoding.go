package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type candidate struct {
	name     string
	encoding encoding.Encoding
}

// candidates are tried in order. The UTF-8 decoder strips a leading byte
// order mark.
var candidates = []candidate{
	{name: "UTF-8", encoding: unicode.UTF8BOM},
	{name: "Shift_JIS", encoding: japanese.ShiftJIS},
	{name: "EUC-JP", encoding: japanese.EUCJP},
	{name: "ISO-2022-JP", encoding: japanese.ISO2022JP},
}

// Decode parses a master file in the first candidate encoding that decodes
// cleanly and yields every required column. It returns the table and the
// name of the encoding used.
func Decode(data []byte, required []string) (*Table, string, error) {
	var errs []error
	for _, c := range candidates {
		table, err := decodeAs(data, c.encoding, required)
		if err == nil {
			return table, c.name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
	}
	return nil, "", fmt.Errorf("%w: %w", ErrUndecodable, errors.Join(errs...))
}

func decodeAs(data []byte, enc encoding.Encoding, required []string) (*Table, error) {
	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, err
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return nil, errors.New("invalid byte sequence")
	}

	table, err := ReadTable(bytes.NewReader(decoded))
	if err != nil {
		return nil, err
	}
	if missing := table.Missing(required); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return table, nil
}

// encodeUTF8BOM writes the table as UTF-8 with a byte order mark
func encodeUTF8BOM(w io.Writer, t *Table) error {
	encoder := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	if err := WriteTable(encoder, t); err != nil {
		return err
	}
	return encoder.Close()
}

// Package catalog loads, validates and replaces the product and customer
// master files the converter matches against.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/pyhub-apps/kazudashi-golang/pkg/match"
)

var (
	// ErrMissingColumns is returned when a master file lacks a required column
	ErrMissingColumns = errors.New("required columns missing")
	// ErrUndecodable is returned when no candidate encoding yields a usable table
	ErrUndecodable = errors.New("could not decode master file")
	// ErrEmpty is returned for a master file without rows
	ErrEmpty = errors.New("master file is empty")
	// ErrNotFound is returned when no master file matches the prefix
	ErrNotFound = errors.New("master file not found")
	// ErrVerifyFailed is returned when a saved master file reads back differently
	ErrVerifyFailed = errors.New("saved master file failed verification")
)

// Column names of the product master
const (
	ColumnProductName = "商品予定名"
	ColumnPackCount   = "パン箱入数"
	ColumnDisplayName = "商品名"
	ColumnClass4      = "クラス分け名称4"
	ColumnClass5      = "クラス分け名称5"
)

// Column names of the customer master
const (
	ColumnCustomerCode = "得意先ＣＤ"
	ColumnCustomerName = "得意先名"
)

// Kind identifies one of the master files
type Kind int

const (
	ProductMaster Kind = iota
	CustomerMaster
)

func (k Kind) String() string {
	switch k {
	case ProductMaster:
		return "商品マスタ"
	case CustomerMaster:
		return "得意先マスタ"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Required returns the columns a master file of this kind must carry
func (k Kind) Required() []string {
	switch k {
	case ProductMaster:
		return []string{ColumnProductName, ColumnPackCount}
	case CustomerMaster:
		return []string{ColumnCustomerCode, ColumnCustomerName}
	default:
		return nil
	}
}

// Entry is one row of the product master
type Entry struct {
	ProductName string `csv:"商品予定名"`
	PackCount   string `csv:"パン箱入数"`
	DisplayName string `csv:"商品名"`
	Class4      string `csv:"クラス分け名称4"`
	Class5      string `csv:"クラス分け名称5"`
}

// Products is an immutable snapshot of the product master
type Products struct {
	entries []Entry
	items   []match.CatalogItem
	display map[string]string
}

// NewProducts builds a snapshot from the product master table. Rows without
// a product name or a pack count are dropped.
func NewProducts(table *Table) (*Products, error) {
	if missing := table.Missing(ProductMaster.Required()); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	var rows []Entry
	if err := gocsv.UnmarshalCSV(table.reader(), &rows); err != nil {
		return nil, fmt.Errorf("failed to read product entries: %w", err)
	}

	p := &Products{display: make(map[string]string)}
	for _, e := range rows {
		e.ProductName = strings.TrimSpace(e.ProductName)
		e.PackCount = strings.TrimSpace(e.PackCount)
		if e.ProductName == "" || e.PackCount == "" {
			continue
		}

		p.entries = append(p.entries, e)
		p.items = append(p.items, match.CatalogItem{Name: e.ProductName, PackCount: e.PackCount})
		if _, ok := p.display[e.ProductName]; !ok {
			p.display[e.ProductName] = strings.TrimSpace(e.DisplayName)
		}
	}

	if len(p.entries) == 0 {
		return nil, ErrEmpty
	}
	return p, nil
}

// Len returns the number of usable entries
func (p *Products) Len() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// Items returns the entries in the form the matcher takes. Item i
// corresponds to Entry(i).
func (p *Products) Items() []match.CatalogItem {
	if p == nil {
		return nil
	}
	return append([]match.CatalogItem(nil), p.items...)
}

// Entry returns the entry at index i
func (p *Products) Entry(i int) Entry {
	return p.entries[i]
}

// DisplayName returns the 商品名 of the first entry named productName, or ""
func (p *Products) DisplayName(productName string) string {
	if p == nil {
		return ""
	}
	return p.display[productName]
}

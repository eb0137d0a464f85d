package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const backupSuffix = "_backup.csv"

// Default file name prefixes of the master files
const (
	DefaultProductPrefix  = "商品マスタ一覧"
	DefaultCustomerPrefix = "得意先マスタ一覧"
)

// Store holds the current master snapshots of a catalog directory. Readers
// get immutable snapshots; Load and Import swap them under a lock.
type Store struct {
	dir            string
	productPrefix  string
	customerPrefix string
	logger         *slog.Logger

	mu        sync.RWMutex
	products  *Products
	customers *Table
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithPrefixes sets the file name prefixes of the product and customer masters
func WithPrefixes(product, customer string) StoreOption {
	return func(s *Store) {
		if product != "" {
			s.productPrefix = product
		}
		if customer != "" {
			s.customerPrefix = customer
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store for the master files in dir
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{
		dir:            dir,
		productPrefix:  DefaultProductPrefix,
		customerPrefix: DefaultCustomerPrefix,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportResult describes a completed import
type ImportResult struct {
	Kind     Kind
	Path     string
	Backup   string
	Encoding string
	Rows     int
}

// Load reads the newest master file of each kind. A missing or unreadable
// customer master is logged and leaves the customer snapshot empty; the
// product master is required.
func (s *Store) Load() error {
	products, path, err := s.loadProducts()
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", ProductMaster, err)
	}
	s.logger.Info("master loaded",
		slog.String("kind", ProductMaster.String()),
		slog.String("path", path),
		slog.Int("rows", products.Len()))

	customers, path, err := s.loadTable(CustomerMaster)
	if err != nil {
		s.logger.Warn("customer master unavailable",
			slog.String("dir", s.dir),
			slog.Any("error", err))
	} else {
		s.logger.Info("master loaded",
			slog.String("kind", CustomerMaster.String()),
			slog.String("path", path),
			slog.Int("rows", customers.Len()))
	}

	s.mu.Lock()
	s.products = products
	s.customers = customers
	s.mu.Unlock()
	return nil
}

// Products returns the current product snapshot, nil before a successful load
func (s *Store) Products() *Products {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products
}

// Customers returns the current customer master, nil when none is loaded
func (s *Store) Customers() *Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customers
}

// Import validates an uploaded master file and makes it current. The file
// is decoded with the candidate encodings and must carry the kind's required
// columns. An existing master is renamed to its backup name, the new one is
// saved as UTF-8 with a byte order mark and read back to check its row
// count, and only then is the in-memory snapshot replaced.
func (s *Store) Import(kind Kind, data []byte) (ImportResult, error) {
	table, enc, err := Decode(data, kind.Required())
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to decode %s: %w", kind, err)
	}

	var products *Products
	if kind == ProductMaster {
		if products, err = NewProducts(table); err != nil {
			return ImportResult{}, fmt.Errorf("invalid %s: %w", kind, err)
		}
	}

	path := filepath.Join(s.dir, s.prefix(kind)+".csv")
	result := ImportResult{Kind: kind, Path: path, Encoding: enc, Rows: table.Len()}

	if _, err := os.Stat(path); err == nil {
		result.Backup = strings.TrimSuffix(path, ".csv") + backupSuffix
		if err := os.Rename(path, result.Backup); err != nil {
			return result, fmt.Errorf("failed to back up %s: %w", path, err)
		}
		s.logger.Info("master backed up", slog.String("path", result.Backup))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return result, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := writeFile(path, table); err != nil {
		return result, err
	}

	saved, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("failed to read back %s: %w", path, err)
	}
	check, _, err := Decode(saved, kind.Required())
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrVerifyFailed, err)
	}
	if check.Len() != table.Len() {
		return result, fmt.Errorf("%w: wrote %d rows, read back %d", ErrVerifyFailed, table.Len(), check.Len())
	}

	s.mu.Lock()
	switch kind {
	case ProductMaster:
		s.products = products
	case CustomerMaster:
		s.customers = table
	}
	s.mu.Unlock()

	s.logger.Info("master imported",
		slog.String("kind", kind.String()),
		slog.String("path", path),
		slog.String("encoding", enc),
		slog.Int("rows", result.Rows))
	return result, nil
}

func (s *Store) prefix(kind Kind) string {
	if kind == CustomerMaster {
		return s.customerPrefix
	}
	return s.productPrefix
}

func (s *Store) loadProducts() (*Products, string, error) {
	table, path, err := s.loadTable(ProductMaster)
	if err != nil {
		return nil, "", err
	}
	products, err := NewProducts(table)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return products, path, nil
}

func (s *Store) loadTable(kind Kind) (*Table, string, error) {
	path, err := Latest(s.dir, s.prefix(kind))
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	table, enc, err := Decode(data, kind.Required())
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	s.logger.Debug("master decoded", slog.String("path", path), slog.String("encoding", enc))
	return table, path, nil
}

// Latest returns the most recently modified <prefix>*.csv file in dir,
// ignoring backups
func Latest(dir, prefix string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"*.csv"))
	if err != nil {
		return "", fmt.Errorf("invalid prefix %q: %w", prefix, err)
	}

	var (
		newest  string
		newestT time.Time
	)
	for _, path := range matches {
		if strings.HasSuffix(path, backupSuffix) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if newest == "" || info.ModTime().After(newestT) {
			newest, newestT = path, info.ModTime()
		}
	}

	if newest == "" {
		return "", fmt.Errorf("%w: %s*.csv in %s", ErrNotFound, prefix, dir)
	}
	return newest, nil
}

func writeFile(path string, table *Table) error {
	var buf bytes.Buffer
	if err := encodeUTF8BOM(&buf, table); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

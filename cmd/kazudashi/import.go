package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/pyhub-apps/kazudashi-golang/internal/config"
	"github.com/pyhub-apps/kazudashi-golang/pkg/catalog"
)

// runImport replaces a master file in the catalog directory with the CSV
// named in args, keeping the previous file as a backup
func runImport(args []string) error {
	flags := pflag.NewFlagSet("import", pflag.ContinueOnError)
	kind := flags.String("kind", "product", "Master kind (product or customer)")
	loader := config.NewLoader(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}
	cfg, err := loader.Load(envFile)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()

	if flags.NArg() != 1 {
		return errors.New("import: exactly one CSV file must be given")
	}

	k, err := parseKind(*kind)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(flags.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", flags.Arg(0), err)
	}

	store := catalog.NewStore(cfg.CatalogDir,
		catalog.WithPrefixes(cfg.ProductPrefix, cfg.CustomerPrefix),
		catalog.WithLogger(logger))
	res, err := store.Import(k, data)
	if err != nil {
		return err
	}

	fmt.Printf("%s imported: %d rows (%s) -> %s\n", res.Kind, res.Rows, res.Encoding, res.Path)
	if res.Backup != "" {
		fmt.Printf("previous file kept as %s\n", res.Backup)
	}
	return nil
}

func parseKind(s string) (catalog.Kind, error) {
	switch s {
	case "product", "products":
		return catalog.ProductMaster, nil
	case "customer", "customers":
		return catalog.CustomerMaster, nil
	default:
		return 0, fmt.Errorf("unknown master kind %q", s)
	}
}

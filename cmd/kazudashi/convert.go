package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/pyhub-apps/kazudashi-golang/internal/config"
	"github.com/pyhub-apps/kazudashi-golang/pkg/catalog"
	"github.com/pyhub-apps/kazudashi-golang/pkg/convert"
	"github.com/pyhub-apps/kazudashi-golang/pkg/layout"
)

// runConvert converts every PDF named in args. PDFs are converted
// concurrently; one failing PDF does not stop the others.
func runConvert(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	loader := config.NewLoader(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}
	cfg, err := loader.Load(envFile)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()
	if cfg.IsDebug() {
		logger.Debug("configuration loaded", slog.String("config", cfg.String()))
	}

	pdfs := flags.Args()
	if len(pdfs) == 0 {
		return errors.New("convert: no PDF files given")
	}

	store := catalog.NewStore(cfg.CatalogDir,
		catalog.WithPrefixes(cfg.ProductPrefix, cfg.CustomerPrefix),
		catalog.WithLogger(logger))
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load masters: %w", err)
	}

	service := convert.NewService(store, logger,
		convert.WithAssembler(newAssembler(cfg)),
		convert.WithStartRow(cfg.StartRow))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	failed := make([]error, len(pdfs))
	for i, path := range pdfs {
		g.Go(func() error {
			out, err := service.Convert(ctx, convert.Request{
				PDFPath:          path,
				OutputDir:        cfg.OutputDir,
				Template:         cfg.Template,
				DeliveryTemplate: cfg.DeliveryTemplate,
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Error("conversion failed", slog.String("pdf", path), slog.Any("error", err))
				failed[i] = err
				return nil
			}

			return writeReport(os.Stdout, path, out)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := errors.Join(failed...); err != nil {
		return fmt.Errorf("some conversions failed: %w", err)
	}
	return nil
}

// writeReport prints the outcome of one conversion in a single write so that
// reports of concurrent conversions do not interleave
func writeReport(w io.Writer, path string, out *convert.Output) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n  -> %s\n", path, out.MacroPath)
	if out.DeliveryPath != "" {
		fmt.Fprintf(&b, "  -> %s\n", out.DeliveryPath)
	}
	for _, warning := range out.Warnings {
		fmt.Fprintf(&b, "  ! %s\n", warning)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func newAssembler(cfg *config.Config) *layout.Assembler {
	return layout.NewAssembler(
		layout.WithBoundaryTolerance(cfg.BoundaryTolerance),
		layout.WithRowTolerance(cfg.RowTolerance),
		layout.WithWordTolerance(cfg.WordXTolerance, cfg.WordYTolerance),
	)
}

// Package convert runs a meal-count sheet PDF through the extractors and
// writes the results into the workbook templates.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pyhub-apps/kazudashi-golang/pkg/catalog"
	"github.com/pyhub-apps/kazudashi-golang/pkg/extract"
	"github.com/pyhub-apps/kazudashi-golang/pkg/layout"
	"github.com/pyhub-apps/kazudashi-golang/pkg/match"
	"github.com/pyhub-apps/kazudashi-golang/pkg/pdf"
	"github.com/pyhub-apps/kazudashi-golang/pkg/workbook"
)

// Output file name suffixes
const (
	MacroSuffix    = "_数出表.xlsm"
	DeliverySuffix = "_納品書.xlsx"
)

// Stages reported in warnings
const (
	StagePDF      = "pdf"
	StagePaste    = "paste"
	StageBento    = "bento"
	StageMatch    = "match"
	StageClient   = "client"
	StageWorkbook = "workbook"
)

// Warning is a recoverable problem met during a conversion. Page is 0 when
// the problem is not tied to a page.
type Warning struct {
	Stage   string
	Page    int
	Message string
}

func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("%s (page %d): %s", w.Stage, w.Page, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}

// Masters supplies the current master snapshots
type Masters interface {
	Products() *catalog.Products
	Customers() *catalog.Table
}

// BentoRow is one ordered product with its master data
type BentoRow struct {
	match.Result
	DisplayName string
	Class4      string
	Class5      string
}

// Name is the matched master name, or the name read from the PDF when
// nothing matched
func (r BentoRow) Name() string {
	if r.Matched {
		return r.MatchedName
	}
	return r.RawName
}

// Result holds everything extracted from one PDF
type Result struct {
	RequestID string
	Paste     layout.Grid
	Bento     []BentoRow
	Clients   []extract.ClientMealRecord
	Warnings  []Warning
}

// Request describes one conversion
type Request struct {
	PDFPath string
	// OutputDir defaults to the directory of PDFPath
	OutputDir        string
	Template         string
	DeliveryTemplate string
}

// Output lists the files a conversion produced
type Output struct {
	*Result
	MacroPath    string
	DeliveryPath string
}

// Service converts PDFs. It is safe for concurrent use.
type Service struct {
	masters   Masters
	logger    *slog.Logger
	paste     *extract.PasteGridBuilder
	bento     *extract.BentoExtractor
	clients   *extract.ClientExtractor
	projector *workbook.Projector
}

// Option configures a Service
type Option func(*Service)

// WithAssembler sets the grid assembler used for the paste and client views
func WithAssembler(a *layout.Assembler) Option {
	return func(s *Service) {
		s.paste = extract.NewPasteGridBuilder(a)
		s.clients = extract.NewClientExtractor(a)
	}
}

// WithStartRow sets the first row written in the extraction sheets
func WithStartRow(row int) Option {
	return func(s *Service) {
		s.projector = workbook.NewProjector(row)
	}
}

// NewService creates a conversion service
func NewService(masters Masters, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	assembler := layout.NewAssembler()
	s := &Service{
		masters:   masters,
		logger:    logger,
		paste:     extract.NewPasteGridBuilder(assembler),
		bento:     extract.NewBentoExtractor(),
		clients:   extract.NewClientExtractor(assembler),
		projector: workbook.NewProjector(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Convert extracts the PDF of req and writes the macro workbook and, when a
// delivery template is given, the delivery workbook
func (s *Service) Convert(ctx context.Context, req Request) (*Output, error) {
	data, err := os.ReadFile(req.PDFPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", req.PDFPath, err)
	}

	res, err := s.Extract(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.PDFPath, err)
	}
	return s.Write(ctx, req, res)
}

// Write fills the templates of req with res and saves them next to the PDF
// or in req.OutputDir
func (s *Service) Write(ctx context.Context, req Request, res *Result) (*Output, error) {
	logger := s.logger.With(slog.String("request_id", res.RequestID))

	dir := req.OutputDir
	if dir == "" {
		dir = filepath.Dir(req.PDFPath)
	}
	base := strings.TrimSuffix(filepath.Base(req.PDFPath), filepath.Ext(req.PDFPath))

	out := &Output{Result: res}
	if res.Paste == nil {
		res.add(StageWorkbook, 0, "paste sheet left unchanged")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out.MacroPath = filepath.Join(dir, base+MacroSuffix)
	if err := s.write(req.Template, out.MacroPath, s.MacroContent(res)); err != nil {
		return nil, err
	}
	logger.Info("workbook written", slog.String("path", out.MacroPath))

	if req.DeliveryTemplate != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out.DeliveryPath = filepath.Join(dir, base+DeliverySuffix)
		if err := s.write(req.DeliveryTemplate, out.DeliveryPath, s.DeliveryContent(res)); err != nil {
			return nil, err
		}
		logger.Info("workbook written", slog.String("path", out.DeliveryPath))
	}

	return out, nil
}

// Extract opens an in-memory PDF and runs every extractor over it
func (s *Service) Extract(ctx context.Context, data []byte) (*Result, error) {
	doc, err := pdf.OpenBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	return s.ExtractDocument(ctx, doc)
}

// ExtractDocument runs the paste, bento and client extractors over doc.
// Each extractor runs even when another one found nothing; what it could
// not find is reported as a warning.
func (s *Service) ExtractDocument(ctx context.Context, doc pdf.Document) (*Result, error) {
	res := &Result{RequestID: uuid.NewString()}
	logger := s.logger.With(slog.String("request_id", res.RequestID))
	logger.Debug("extraction started", slog.Int("pages", doc.PageCount()))

	for _, msg := range doc.Warnings() {
		res.Warnings = append(res.Warnings, Warning{Stage: StagePDF, Message: msg})
	}

	grid, warnings, err := s.paste.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build paste grid: %w", err)
	}
	res.Paste = grid
	res.addAll(StagePaste, warnings)
	logger.Info("paste grid built", slog.Int("rows", len(grid)), slog.Int("columns", grid.Width()))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Bento = s.extractBento(res, doc)
	matched := 0
	for _, row := range res.Bento {
		if row.Matched {
			matched++
		}
	}
	logger.Info("bento table extracted",
		slog.Int("items", len(res.Bento)),
		slog.Int("matched", matched),
		slog.Int("unmatched", len(res.Bento)-matched))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, warnings := s.clients.Extract(doc)
	res.Clients = records
	res.addAll(StageClient, warnings)
	logger.Info("client records extracted", slog.Int("clients", len(records)))

	for _, w := range res.Warnings {
		logger.Warn("extraction warning",
			slog.String("stage", w.Stage),
			slog.Int("page", w.Page),
			slog.String("message", w.Message))
	}
	return res, nil
}

func (s *Service) extractBento(res *Result, doc pdf.Document) []BentoRow {
	table, warnings, ok := s.bento.Extract(doc)
	res.addAll(StageBento, warnings)
	if !ok {
		res.add(StageBento, 0, "no ruled order table found")
		return nil
	}

	names, err := s.bento.Names(table)
	if err != nil {
		res.add(StageBento, 0, err.Error())
		return nil
	}

	var products *catalog.Products
	if s.masters != nil {
		products = s.masters.Products()
	}
	if products.Len() == 0 {
		res.add(StageMatch, 0, "product master not loaded, all items unmatched")
	}

	results := match.Match(names, products.Items())
	rows := make([]BentoRow, len(results))
	for i, r := range results {
		row := BentoRow{Result: r}
		if r.Matched {
			entry := products.Entry(r.Index)
			row.Class4 = entry.Class4
			row.Class5 = entry.Class5
		} else {
			res.add(StageMatch, 0, fmt.Sprintf("no master entry for %q", r.RawName))
		}
		row.DisplayName = products.DisplayName(row.Name())
		rows[i] = row
	}
	return rows
}

// MacroContent shapes a result for the macro workbook: bento rows carry the
// name, pack count and both class columns
func (s *Service) MacroContent(res *Result) workbook.Content {
	c := workbook.Content{Paste: res.Paste, Clients: ClientRows(res.Clients)}
	if res.Bento != nil {
		c.Bento = make([][]any, len(res.Bento))
		for i, row := range res.Bento {
			c.Bento[i] = []any{row.Name(), row.PackCount, row.Class4, row.Class5}
		}
	}
	return c
}

// DeliveryContent shapes a result for the delivery workbook: bento rows carry
// the name, pack count and display name, and the customer master is copied
// alongside
func (s *Service) DeliveryContent(res *Result) workbook.Content {
	c := workbook.Content{Paste: res.Paste, Clients: ClientRows(res.Clients)}
	if res.Bento != nil {
		c.Bento = make([][]any, len(res.Bento))
		for i, row := range res.Bento {
			c.Bento[i] = []any{row.Name(), row.PackCount, row.DisplayName}
		}
	}
	if s.masters != nil {
		if customers := s.masters.Customers(); customers != nil && customers.Len() > 0 {
			c.Customers = customers.Records
		}
	}
	return c
}

// ClientRows lays out client records as クライアント名, three student counts
// and two teacher counts, leaving missing counts blank
func ClientRows(records []extract.ClientMealRecord) [][]any {
	if records == nil {
		return nil
	}
	rows := make([][]any, len(records))
	for i, r := range records {
		row := []any{r.ClientName, "", "", "", "", ""}
		for j, n := range r.StudentMeals {
			row[1+j] = n
		}
		for j, n := range r.TeacherMeals {
			row[4+j] = n
		}
		rows[i] = row
	}
	return rows
}

func (s *Service) write(template, path string, content workbook.Content) error {
	wb, err := workbook.Open(template)
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := s.projector.Project(wb, content); err != nil {
		return fmt.Errorf("%s: %w", template, err)
	}
	return wb.SaveAs(path)
}

func (r *Result) add(stage string, page int, msg string) {
	r.Warnings = append(r.Warnings, Warning{Stage: stage, Page: page, Message: msg})
}

func (r *Result) addAll(stage string, warnings []extract.Warning) {
	for _, w := range warnings {
		r.add(stage, w.Page, w.Message)
	}
}

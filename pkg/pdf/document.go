package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrNoPages is returned when a document has no pages
var ErrNoPages = errors.New("document has no pages")

var disableConfigDir sync.Once

// PDFDocument combines the two views of a PDF: pdfcpu parses the object
// graph and content streams for ruling lines, and a text backend supplies
// positioned glyphs.
type PDFDocument struct {
	pages    []Page
	warnings []string
}

// Open opens a PDF file and returns a Document
func Open(filepath string) (Document, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return OpenBytes(data)
}

// OpenBytes parses an in-memory PDF
func OpenBytes(data []byte) (Document, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}

	if ctx.PageCount == 0 {
		return nil, ErrNoPages
	}

	doc := &PDFDocument{}
	texts := newTextSources(data)
	if len(texts.sources) == 0 {
		return nil, fmt.Errorf("failed to open text layer: %w", texts.err)
	}
	if texts.err != nil {
		doc.warnings = append(doc.warnings, texts.err.Error())
	}

	doc.pages = make([]Page, ctx.PageCount)
	for i := 1; i <= ctx.PageCount; i++ {
		page, err := doc.buildPage(ctx, texts, i)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize page %d: %w", i, err)
		}
		doc.pages[i-1] = page
	}

	return doc, nil
}

// buildPage merges the ruling lines of one page with its glyphs
func (d *PDFDocument) buildPage(ctx *model.Context, texts *textSources, pageNumber int) (Page, error) {
	pageDict, _, attrs, err := ctx.PageDict(pageNumber, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get page dict: %w", err)
	}

	// Default US Letter size
	llx, lly, urx, ury := 0.0, 0.0, 612.0, 792.0
	if attrs != nil && attrs.MediaBox != nil {
		llx, lly = attrs.MediaBox.LL.X, attrs.MediaBox.LL.Y
		urx, ury = attrs.MediaBox.UR.X, attrs.MediaBox.UR.Y
	}

	content, err := extractContent(ctx, pageDict)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}
	objects := NewGraphicsParser(llx, ury).Parse(content)

	runs, warning := texts.pageRuns(pageNumber)
	if warning != "" {
		d.warnings = append(d.warnings, warning)
	}
	objects.Chars = charsFromRuns(runs, llx, ury)

	bbox := BoundingBox{X0: 0, Y0: 0, X1: urx - llx, Y1: ury - lly}
	return NewPage(pageNumber, bbox, objects), nil
}

// extractContent returns the page's content streams concatenated
func extractContent(ctx *model.Context, pageDict types.Dict) ([]byte, error) {
	contents := pageDict["Contents"]
	if contents == nil {
		return nil, nil
	}

	var refs []types.IndirectRef
	switch v := contents.(type) {
	case *types.IndirectRef:
		refs = append(refs, *v)
	case types.IndirectRef:
		refs = append(refs, v)
	case types.Array:
		for _, item := range v {
			if indRef, ok := item.(*types.IndirectRef); ok {
				refs = append(refs, *indRef)
			} else if indRef, ok := item.(types.IndirectRef); ok {
				refs = append(refs, indRef)
			}
		}
	}

	var combined []byte
	for _, ref := range refs {
		streamDict, _, err := ctx.DereferenceStreamDict(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to dereference stream: %w", err)
		}
		if streamDict == nil {
			continue
		}
		if err := streamDict.Decode(); err != nil {
			return nil, fmt.Errorf("failed to decode stream: %w", err)
		}
		combined = append(combined, streamDict.Content...)
		combined = append(combined, '\n')
	}

	return combined, nil
}

// textSources tries ledongthuc first and dslipak second, per page
type textSources struct {
	sources []textSource
	err     error
}

func newTextSources(data []byte) *textSources {
	ts := &textSources{}
	for _, open := range []func([]byte) (textSource, error){newLedongthucSource, newDslipakSource} {
		src, err := open(data)
		if err != nil {
			ts.err = errors.Join(ts.err, err)
			continue
		}
		ts.sources = append(ts.sources, src)
	}
	return ts
}

// pageRuns returns the runs from the first backend that reads the page, and
// a warning when a backend had to be skipped
func (ts *textSources) pageRuns(pageNumber int) ([]textRun, string) {
	var failures []error
	for _, src := range ts.sources {
		if pageNumber > src.NumPage() {
			continue
		}
		runs, err := src.PageRuns(pageNumber)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		if len(failures) > 0 {
			return runs, fmt.Sprintf("page %d: text read with %s after: %v", pageNumber, src.Name(), errors.Join(failures...))
		}
		return runs, ""
	}
	if len(failures) > 0 {
		return nil, fmt.Sprintf("page %d: no text: %v", pageNumber, errors.Join(failures...))
	}
	return nil, ""
}

// NewDocument wraps already-built pages, mainly for tests
func NewDocument(pages ...Page) *PDFDocument {
	return &PDFDocument{pages: pages}
}

// GetPages returns all pages in the document
func (d *PDFDocument) GetPages() []Page {
	return d.pages
}

// GetPage returns a specific page by index (0-based)
func (d *PDFDocument) GetPage(index int) (Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(d.pages))
	}
	return d.pages[index], nil
}

// PageCount returns the total number of pages
func (d *PDFDocument) PageCount() int {
	return len(d.pages)
}

// Warnings lists recoverable problems met while reading the text layer
func (d *PDFDocument) Warnings() []string {
	return d.warnings
}

// Close releases resources associated with the document
func (d *PDFDocument) Close() error {
	d.pages = nil
	return nil
}

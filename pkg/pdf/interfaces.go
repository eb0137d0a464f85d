package pdf

// Document is an opened PDF with its pages already parsed
type Document interface {
	// GetPages returns all pages in the document
	GetPages() []Page

	// GetPage returns a specific page by index (0-based)
	GetPage(index int) (Page, error)

	// PageCount returns the total number of pages
	PageCount() int

	// Warnings lists recoverable problems met while reading the document
	Warnings() []string

	// Close releases resources associated with the document
	Close() error
}

// Page represents a single page in a PDF document
type Page interface {
	// GetPageNumber returns the page number (1-based)
	GetPageNumber() int

	// GetWidth returns the page width
	GetWidth() float64

	// GetHeight returns the page height
	GetHeight() float64

	// GetBBox returns the page bounding box
	GetBBox() BoundingBox

	// GetObjects returns all objects on the page
	GetObjects() Objects

	// ExtractText extracts plain text, one line per text row
	ExtractText(opts ...TextExtractionOption) string

	// ExtractWords groups the page characters into positioned words
	ExtractWords(opts ...TextExtractionOption) []Word

	// ExtractTables extracts ruled tables using the lines strategy
	ExtractTables(opts ...TableExtractionOption) []Table

	// Crop returns a new page cropped to the specified bounding box
	Crop(bbox BoundingBox) Page
}

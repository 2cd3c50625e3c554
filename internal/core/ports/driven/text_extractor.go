package driven

import "context"

// TextExtractor pulls plain text out of staged upload files.
// Dispatch is by file extension (pdf, docx, txt); anything else yields
// domain.ErrUnsupportedFileType.
type TextExtractor interface {
	// ExtractText reads the staged file at path and returns its text.
	// filename is the original upload name and decides the format.
	ExtractText(ctx context.Context, path, filename string) (string, error)
}

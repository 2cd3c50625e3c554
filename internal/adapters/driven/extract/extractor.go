// Package extract pulls plain text out of staged upload files.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor dispatches to a format-specific parser by file extension.
type Extractor struct{}

// NewExtractor creates a text extractor for pdf, docx and txt files.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText reads the staged file at path and returns its text.
// filename is the original upload name and decides the format.
func (e *Extractor) ExtractText(ctx context.Context, path, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("staged file %s: %w", path, domain.ErrNotFound)
		}
		return "", fmt.Errorf("read staged file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(data)
	case ".docx":
		return extractDOCX(data)
	case ".txt":
		return extractTXT(data)
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, filename)
	}
}

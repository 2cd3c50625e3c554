package extract

import (
	"fmt"
	"unicode/utf8"
)

// extractTXT returns the file body as-is, rejecting non-UTF-8 content.
func extractTXT(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("txt file is not valid UTF-8")
	}
	return string(data), nil
}

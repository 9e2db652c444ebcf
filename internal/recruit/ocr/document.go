package ocr

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	e "github.com/gartstein/recruit/internal/recruit/errors"
)

// IsPDF reports whether a file must go through the OCR service.
func IsPDF(name string, data []byte) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf") || bytes.HasPrefix(data, []byte("%PDF-"))
}

// Supported reports whether name has an extension this package can read.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".docx", ".doc", ".odt", ".rtf", ".txt":
		return true
	}
	return false
}

// ConvertDocument extracts text from a non-PDF document locally.
func ConvertDocument(name string, data []byte) (string, error) {
	mimeType := docconv.MimeTypeByExtension(name)
	if mimeType == "application/octet-stream" {
		return "", fmt.Errorf("%w: unsupported file type %q", e.ErrInvalidInput, filepath.Ext(name))
	}

	res, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		return "", fmt.Errorf("%w: %v", e.ErrExtraction, err)
	}
	text := strings.TrimSpace(res.Body)
	if text == "" {
		return "", fmt.Errorf("%w: no text found in %s", e.ErrExtraction, name)
	}
	return text, nil
}

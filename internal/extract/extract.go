package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"docchat-backend/internal/shared/storage/object"
)

var (
	// ErrUnsupportedFormat is returned when the declared file type is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrExtractionFailed is returned when a well-typed file cannot be decoded.
	ErrExtractionFailed = errors.New("extraction failed")
)

const (
	TypeTXT  = "txt"
	TypePDF  = "pdf"
	TypeDOCX = "docx"
	TypeMD   = "md"
)

var supported = map[string]struct{}{
	TypeTXT:  {},
	TypePDF:  {},
	TypeDOCX: {},
	TypeMD:   {},
}

// Supported reports whether the given file type tag has a decoder.
func Supported(fileType string) bool {
	_, ok := supported[strings.ToLower(strings.TrimSpace(fileType))]
	return ok
}

// TypeFromFileName maps a file name's extension to a type tag. Unknown
// extensions are returned as-is (lowercased, without the dot) so the caller
// can surface them in an unsupported-format error.
func TypeFromFileName(fileName string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
}

// ExtractText pulls text from a stored object using the declared file type.
func ExtractText(ctx context.Context, store object.ObjectStore, storageKey, fileType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := store.Open(ctx, storageKey)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s type=%s: %w", storageKey, fileType, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s type=%s: read: %w", storageKey, fileType, err)
	}

	text, err := ExtractTextFromBytes(ctx, raw, fileType)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s type=%s: %w", storageKey, fileType, err)
	}
	return text, nil
}

// ExtractTextFromBytes extracts text from an in-memory payload.
func ExtractTextFromBytes(ctx context.Context, data []byte, fileType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch strings.ToLower(strings.TrimSpace(fileType)) {
	case TypeTXT:
		return string(data), nil
	case TypePDF:
		return extractPDF(data)
	case TypeDOCX:
		return extractDOCX(data)
	case TypeMD:
		return extractMarkdown(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileType)
	}
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty docx data", ErrExtractionFailed)
	}
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer r.Close()

	return stripDocxXML(r.Editable().GetContent()), nil
}

// stripDocxXML flattens word/document.xml markup to plain text, inserting a
// newline at paragraph and line-break boundaries.
func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func extractMarkdown(data []byte) (string, error) {
	md := goldmark.New()
	root := md.Parser().Parse(gmtext.NewReader(data))

	var buf strings.Builder
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(data))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteString(" ")
				}
			}
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindParagraph, ast.KindHeading, ast.KindListItem, ast.KindCodeBlock, ast.KindFencedCodeBlock, ast.KindBlockquote:
			if buf.Len() > 0 {
				buf.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

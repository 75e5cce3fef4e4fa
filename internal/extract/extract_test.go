package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSupported(t *testing.T) {
	for _, ft := range []string{"txt", "pdf", "docx", "md", " PDF ", "Txt"} {
		if !Supported(ft) {
			t.Errorf("expected %q to be supported", ft)
		}
	}
	for _, ft := range []string{"", "exe", "png", "doc"} {
		if Supported(ft) {
			t.Errorf("expected %q to be unsupported", ft)
		}
	}
}

func TestTypeFromFileName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":       "pdf",
		"notes.TXT":        "txt",
		"deep/path/a.docx": "docx",
		"README.md":        "md",
		"noextension":      "",
		"archive.tar.gz":   "gz",
	}
	for name, want := range cases {
		if got := TypeFromFileName(name); got != want {
			t.Errorf("TypeFromFileName(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestExtractTextFromBytesTXT(t *testing.T) {
	text, err := ExtractTextFromBytes(context.Background(), []byte("hello world"), "txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("expected passthrough, got %q", text)
	}
}

func TestExtractTextFromBytesUnsupported(t *testing.T) {
	_, err := ExtractTextFromBytes(context.Background(), []byte("x"), "exe")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtractTextFromBytesMalformedPDF(t *testing.T) {
	_, err := ExtractTextFromBytes(context.Background(), []byte("not a pdf"), "pdf")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestExtractTextFromBytesMalformedDOCX(t *testing.T) {
	_, err := ExtractTextFromBytes(context.Background(), []byte("not a zip archive"), "docx")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestExtractTextFromBytesMarkdown(t *testing.T) {
	md := "# Title\n\nFirst paragraph with **bold** text.\n\n- item one\n- item two\n"

	text, err := ExtractTextFromBytes(context.Background(), []byte(md), "md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Title", "First paragraph with bold text.", "item one", "item two"} {
		if !strings.Contains(text, want) {
			t.Errorf("markdown text missing %q: %q", want, text)
		}
	}
	if strings.Contains(text, "#") || strings.Contains(text, "**") {
		t.Errorf("markdown syntax leaked into text: %q", text)
	}
}

func TestExtractTextFromBytesCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ExtractTextFromBytes(ctx, []byte("x"), "txt"); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestStripDocxXML(t *testing.T) {
	raw := `<w:document><w:body><w:p><w:r><w:t>First line</w:t></w:r></w:p><w:p><w:r><w:t>Second line</w:t></w:r></w:p></w:body></w:document>`

	got := stripDocxXML(raw)

	if got != "First line\nSecond line" {
		t.Fatalf("unexpected flattened text: %q", got)
	}
}

// Package document turns uploaded resume files into plain text.
package document

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	pdf "github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyText         = errors.New("parsed text is empty or unreadable")
)

// Extensions lists accepted resume file extensions.
var Extensions = []string{".pdf", ".docx", ".doc", ".txt", ".md"}

var (
	xmlTags    = regexp.MustCompile(`<[^>]+>`)
	blankLines = regexp.MustCompile(`\n{3,}`)
	spaceRuns  = regexp.MustCompile(`[ \t\f\v]+`)
)

// Extract returns the normalized text of a file named name with contents
// data. The name is only used to pick the format.
func Extract(name string, data []byte) (string, error) {
	var (
		text string
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".pdf":
		text, err = fromPDF(data)
	case ".docx":
		text, err = fromDocx(data)
	case ".doc", ".txt", ".md":
		text, err = fromPlain(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", name, err)
	}

	text = Normalize(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", name, ErrEmptyText)
	}
	return text, nil
}

// ExtractFile reads and extracts the file at path.
func ExtractFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", path, err)
	}
	return Extract(filepath.Base(path), data)
}

// Normalize applies NFKC, drops invalid UTF-8, trims lines and collapses
// repeated spaces and blank lines.
func Normalize(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = strings.ReplaceAll(text, "\uFFFD", "")
	text = norm.NFKC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRuns.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")

	return strings.TrimSpace(blankLines.ReplaceAllString(text, "\n\n"))
}

// fromPlain decodes UTF-8, or UTF-16 when a byte order mark says so.
func fromPlain(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}

func fromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

func fromDocx(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	for _, f := range archive.File {
		if f.Name != "word/document.xml" {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		defer rc.Close()

		raw, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}

		xml := string(raw)
		xml = strings.ReplaceAll(xml, "</w:p>", "\n")
		xml = strings.ReplaceAll(xml, "<w:tab/>", "\t")
		xml = xmlTags.ReplaceAllString(xml, "")
		return unescapeXML(xml), nil
	}

	return "", errors.New("no word/document.xml in docx")
}

var xmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
)

func unescapeXML(s string) string {
	return xmlEntities.Replace(s)
}

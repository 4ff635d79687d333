// Package ingest turns stored documents into embedded chunks for the
// self-hosted pgvector index.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	pdf "github.com/dslipak/pdf"
	"golang.org/x/net/html"
)

// ErrUnsupported is returned for documents whose type cannot be indexed.
var ErrUnsupported = errors.New("unsupported document type")

// Supported reports whether key has an extension Extract understands.
func Supported(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".md", ".txt", ".html", ".htm", ".pdf", ".csv", ".json":
		return true
	}
	return false
}

// Extract returns the plain text of a stored document, picking the parser
// from the key extension.
func Extract(key string, data []byte) (string, error) {
	var text string

	switch strings.ToLower(path.Ext(key)) {
	case ".pdf":
		t, err := extractTextFromPDF(data)
		if err != nil {
			return "", fmt.Errorf("read pdf %s: %w", key, err)
		}
		text = t
	case ".html", ".htm":
		text = extractMainText(string(data))
	case ".md", ".txt", ".csv", ".json":
		text = string(data)
	default:
		return "", fmt.Errorf("%s: %w", key, ErrUnsupported)
	}

	return sanitizeUTF8(strings.TrimSpace(text)), nil
}

// Title derives a readable title from a stored key, dropping the upload
// timestamp prefix.
func Title(key string) string {
	base := path.Base(key)
	base = strings.TrimSuffix(base, path.Ext(base))
	if len(base) > 16 && base[8] == '_' && base[15] == '_' {
		base = base[16:]
	}
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return strings.TrimSpace(base)
}

func extractMainText(htmlStr string) string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node, bool)

	walk = func(n *html.Node, skip bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				skip = true
			}
		}

		if n.Type == html.TextNode && !skip {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skip)
		}
	}
	walk(doc, false)

	var kept []string
	for _, l := range strings.Split(b.String(), "\n") {
		l = strings.TrimSpace(l)
		if len(l) > 1 {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

func extractTextFromPDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitizeUTF8 drops invalid bytes; Postgres rejects them in TEXT columns.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		b.WriteRune(r)
		s = s[size:]
	}
	return b.String()
}

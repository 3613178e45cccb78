// Package document reads recipient descriptions from files so that longer
// notes, saved web pages, or PDF letters can be fed to the recommender.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// MaxSize bounds the bytes read from any input file.
const MaxSize = 1 << 20 // 1MB

// ErrTooLarge is returned when a file exceeds MaxSize.
var ErrTooLarge = errors.New("document too large")

// ReadFile returns the plain text of the file at path. The format is chosen
// by extension: .pdf and .html/.htm are converted, anything else is read as
// UTF-8 text.
func ReadFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if info.Size() > MaxSize {
		return "", fmt.Errorf("%s: %w (%d bytes, limit %d)", path, ErrTooLarge, info.Size(), MaxSize)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return readPDF(path)
	case ".html", ".htm":
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		defer f.Close()
		return HTMLText(io.LimitReader(f, MaxSize))
	default:
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return normalizeSpace(string(b)), nil
	}
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(plain, MaxSize)); err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	return normalizeSpace(buf.String()), nil
}

// skippedElements never contribute visible text.
var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

// blockElements end a line of text.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "blockquote": true,
}

// HTMLText returns the visible text of an HTML document, one line per block
// element, with script and style content removed.
func HTMLText(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var sb strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", fmt.Errorf("parsing html: %w", err)
			}
			return normalizeSpace(sb.String()), nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skippedElements[tag] && tt == html.StartTagToken {
				skip++
			}
			if blockElements[tag] {
				sb.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skippedElements[tag] && skip > 0 {
				skip--
			}
			if blockElements[tag] {
				sb.WriteByte('\n')
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
				sb.WriteByte(' ')
			}
		}
	}
}

// normalizeSpace collapses runs of blanks inside each line and drops empty
// lines, keeping line breaks so sentence boundaries survive.
func normalizeSpace(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

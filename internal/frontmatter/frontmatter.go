// Package frontmatter splits Markdown documents into YAML frontmatter and body
// and computes the canonical content fingerprint used for lastmod tracking.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a parsed Markdown source file.
type Document struct {
	Fields         map[string]any
	Body           []byte
	HadFrontmatter bool
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a delimiter, had is false and body is the
// full input. CRLF documents are handled.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// a closing delimiter at EOF without a trailing newline
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			end := len(content) - len(nl+"---")
			return content[start : end+len(nl)], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return content[start : start+idx+len(nl)], content[start+idx+len(closeSeq):], true, nil
}

// Parse splits content and decodes its frontmatter.
func Parse(content []byte) (Document, error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return Document{}, err
	}
	fields, err := ParseYAML(fm)
	if err != nil {
		return Document{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	return Document{Fields: fields, Body: body, HadFrontmatter: had}, nil
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(fm []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(fm)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// String returns a trimmed string field or "".
func (d Document) String(key string) string {
	switch v := d.Fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case int, int64, float64:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

// Bool reports whether key is set to true.
func (d Document) Bool(key string) bool {
	v, _ := d.Fields[key].(bool)
	return v
}

// Strings returns a list field. A scalar string is treated as a single-item list.
func (d Document) Strings(key string) []string {
	switch v := d.Fields[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" && item != nil {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

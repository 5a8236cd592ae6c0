package wattpad

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// contentFields is the ordered probe list for the field carrying a record's
// prose. The host has renamed this field before; the longest-string fallback
// in contentField covers the next rename.
var contentFields = []string{"text", "content", "body", "paragraph"}

// Normalize converts a chapter payload into paragraph-delimited plain text.
// The payload may be a JSON array of paragraph records, a single JSON record,
// or raw markup. Malformed input degrades to markup stripping; the worst case
// is an empty string, never an error.
func Normalize(payload []byte) string {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return ""
	}

	var records []any
	if err := json.Unmarshal(trimmed, &records); err == nil {
		return normalizeRecords(records)
	}
	var record map[string]any
	if err := json.Unmarshal(trimmed, &record); err == nil {
		return normalizeRecords([]any{record})
	}
	var quoted string
	if err := json.Unmarshal(trimmed, &quoted); err == nil {
		return Normalize([]byte(quoted))
	}
	return postProcess(stripMarkup(string(trimmed)))
}

func normalizeRecords(records []any) string {
	paragraphs := make([]string, 0, len(records))
	for _, record := range records {
		var fragment string
		switch v := record.(type) {
		case string:
			fragment = v
		case map[string]any:
			fragment = contentField(v)
		}
		text := postProcess(stripMarkup(fragment))
		if text == "" {
			continue
		}
		paragraphs = append(paragraphs, text)
	}
	return strings.Join(paragraphs, "\n\n")
}

// contentField probes a record for its prose, trying each known field name in
// order and falling back to the longest string-valued field.
func contentField(record map[string]any) string {
	for _, name := range contentFields {
		if s, ok := record[name].(string); ok && s != "" {
			return s
		}
	}
	longest := ""
	for _, v := range record {
		if s, ok := v.(string); ok && len(s) > len(longest) {
			longest = s
		}
	}
	return longest
}

// blockTags start a new paragraph when stripped.
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "blockquote": true, "tr": true, "pre": true,
}

// stripMarkup flattens a markup fragment to text: a line break tag becomes a
// newline, opening block-level tags become paragraph breaks, all other tags
// are dropped and entities are decoded.
func stripMarkup(fragment string) string {
	if !strings.ContainsRune(fragment, '<') {
		return html.UnescapeString(fragment)
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch {
			case string(name) == "br":
				b.WriteByte('\n')
			case blockTags[string(name)]:
				b.WriteString("\n\n")
			}
		}
	}
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t]{2,}`)
	lineEdgeSpace   = regexp.MustCompile(`[ \t]*\n[ \t]*`)
	newlineRuns     = regexp.MustCompile(`\n{3,}`)
)

// postProcess collapses runs of horizontal whitespace to one space and runs
// of three or more newlines to exactly two, then trims the edges.
func postProcess(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, " ", " ")
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = lineEdgeSpace.ReplaceAllString(text, "\n")
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

package data

import "fmt"

// Story is the metadata for one story as reported by the host, with the
// ordered chapter descriptors. Immutable once retrieved.
type Story struct {
	ID          string
	Title       string
	Author      string
	Description string
	CoverURL    string
	Chapters    []Chapter
}

// Chapter describes one part of a story before its text has been fetched.
type Chapter struct {
	Index  int // 1-based position within the story
	ID     string
	Title  string
	Length int // byte-length hint from the API, 0 when absent
}

// NormalizedChapter is a chapter after fetching and normalization. Body holds
// plain text with paragraphs separated by a blank line; it is never empty -
// chapters that could not be retrieved carry a placeholder body instead.
type NormalizedChapter struct {
	Title string
	Body  string
}

// Bundle is everything the assemblers need to produce a document.
type Bundle struct {
	Title       string
	Author      string
	Description string
	Cover       []byte // optional JPEG cover data
	Chapters    []NormalizedChapter
}

// PlaceholderBody renders a failure reason as readable chapter text, so a
// document stays structurally complete when a chapter cannot be retrieved.
func PlaceholderBody(reason string) string {
	return fmt.Sprintf("[Content unavailable: %s]", reason)
}

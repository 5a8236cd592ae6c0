package integrations

import (
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bawanisandunika/wattpad-downloader/pkg/data"
	"github.com/go-shiori/go-epub"
)

// EPubAssembler writes the bundle as an EPUB, one section per chapter.
type EPubAssembler struct{}

func NewEPubAssembler() *EPubAssembler {
	return &EPubAssembler{}
}

func (a *EPubAssembler) Extension() string   { return "epub" }
func (a *EPubAssembler) ContentType() string { return "application/epub+zip" }

func (a *EPubAssembler) Assemble(bundle *data.Bundle, w io.Writer) error {
	e, err := epub.NewEpub(bundle.Title)
	if err != nil {
		return fmt.Errorf("failed to create EPub: %w", err)
	}

	e.SetAuthor(bundle.Author)
	if bundle.Description != "" {
		e.SetDescription(bundle.Description)
	}
	e.SetLang("en")

	if len(bundle.Cover) > 0 {
		// A broken cover should not sink the whole book.
		_ = a.setCover(e, bundle.Cover)
	}

	for i, chapter := range bundle.Chapters {
		title := fmt.Sprintf("Chapter %d: %s", i+1, chapter.Title)
		if _, err := e.AddSection(chapterHTML(title, chapter.Body), title, "", ""); err != nil {
			return fmt.Errorf("failed to add chapter %d: %w", i+1, err)
		}
	}

	if _, err := e.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write EPub: %w", err)
	}
	return nil
}

// setCover stages the cover bytes in a temp file, which is the only source
// the epub library accepts.
func (a *EPubAssembler) setCover(e *epub.Epub, cover []byte) error {
	dir, err := os.MkdirTemp("", "wattpad-cover-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "cover.jpg")
	if err := os.WriteFile(path, cover, 0644); err != nil {
		return err
	}
	internal, err := e.AddImage(path, "cover.jpg")
	if err != nil {
		return err
	}
	return e.SetCover(internal, "")
}

// chapterHTML renders plain paragraph-delimited text as section markup.
func chapterHTML(title, body string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(title)))
	for _, paragraph := range strings.Split(body, "\n\n") {
		paragraph = strings.ReplaceAll(html.EscapeString(paragraph), "\n", "<br/>")
		b.WriteString(fmt.Sprintf("<p>%s</p>\n", paragraph))
	}
	return b.String()
}

// SanitizeFilename removes characters that are invalid in filenames.
func SanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	result = strings.Trim(result, ".")
	return result
}

package integrations

import (
	"io"

	"github.com/bawanisandunika/wattpad-downloader/pkg/data"
)

// Assembler turns a story bundle into a finished document on the given sink.
// Implementations must be total: any bundle shape produces a structurally
// complete document, placeholder chapters included.
type Assembler interface {
	Assemble(bundle *data.Bundle, w io.Writer) error
	Extension() string
	ContentType() string
}

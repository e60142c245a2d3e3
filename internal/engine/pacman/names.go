package pacman

import (
	"io"

	"brokenpkg/internal/core/stream"
)

// nameCollector accumulates one package name per line. Fragments of a name
// split across chunks are joined in a NameMax-bounded buffer.
type nameCollector struct {
	name  PathBuffer
	names []string
}

func (c *nameCollector) HandleToken(_ *stream.Tokenizer, tok stream.Token) {
	if tok.First {
		c.name.Reset()
	}
	c.name.Append(tok.Text)
	if tok.Last && c.name.Len() > 0 {
		c.names = append(c.names, c.name.String())
	}
}

// CollectPackageNames reads newline separated package names in input order.
// Blank lines are ignored; names are neither sorted nor deduplicated.
func CollectPackageNames(r io.Reader, opts ...stream.Option) ([]string, error) {
	c := &nameCollector{name: NewPathBuffer(NameMax + 1)}
	err := stream.Consume(r, lineDelims, c, opts...)
	return c.names, err
}

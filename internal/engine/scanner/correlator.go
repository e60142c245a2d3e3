package scanner

import (
	"bytes"

	"brokenpkg/internal/core/ports"
	"brokenpkg/internal/core/stream"
)

const (
	diagnosticDelims = ":\r\n"
	// messageField is the colon separated field where the linker's own
	// message starts; the fields before it name the loader and the object.
	messageField = 2
)

// correlator turns dynamic linker error output into diagnostic lines,
// keeping the text from the third field on verbatim.
type correlator struct {
	field   int
	raw     bytes.Buffer
	message bytes.Buffer
	lines   []ports.DiagnosticLine
}

func (c *correlator) HandleToken(_ *stream.Tokenizer, tok stream.Token) {
	if tok.First {
		for _, b := range tok.Skipped {
			c.delimiter(b)
		}
	}
	c.text(tok.Text)
	if tok.Last {
		if tok.Delim == stream.DelimEOF {
			c.endLine()
			return
		}
		c.delimiter(byte(tok.Delim))
	}
}

func (c *correlator) text(p []byte) {
	c.raw.Write(p)
	if c.field >= messageField {
		c.message.Write(p)
	}
}

func (c *correlator) delimiter(b byte) {
	if b != ':' {
		c.endLine()
		return
	}
	c.raw.WriteByte(b)
	if c.field >= messageField {
		c.message.WriteByte(b)
	}
	c.field++
}

func (c *correlator) endLine() {
	if c.raw.Len() == 0 {
		return
	}
	c.lines = append(c.lines, ports.DiagnosticLine{
		Raw:        c.raw.String(),
		Message:    c.message.String(),
		HasMessage: c.field >= messageField,
	})
	c.field = 0
	c.raw.Reset()
	c.message.Reset()
}

// Lines returns the diagnostic lines seen so far, flushing a final line that
// was not terminated.
func (c *correlator) Lines() []ports.DiagnosticLine {
	c.endLine()
	return c.lines
}

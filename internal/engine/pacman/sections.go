package pacman

import (
	"io"
	"strings"

	"brokenpkg/internal/core/stream"
)

// sectionParser collects the value lines of one %SECTION% block of a local
// database record (desc, files). Blocks are separated by blank lines.
type sectionParser struct {
	want      string
	current   string
	line      PathBuffer
	lastDelim int
	values    []string
	done      bool
}

func newSectionParser(want string) *sectionParser {
	return &sectionParser{want: want, line: NewPathBuffer(PathMax)}
}

func (p *sectionParser) HandleToken(_ *stream.Tokenizer, tok stream.Token) {
	if p.done {
		return
	}
	if tok.First {
		if p.blankLineBefore(tok) {
			if p.current == p.want {
				p.done = true
				return
			}
			p.current = ""
		}
		p.line.Reset()
	}
	p.line.Append(tok.Text)
	if !tok.Last {
		return
	}
	p.lastDelim = tok.Delim
	text := p.line.String()
	switch {
	case p.current == "":
		if isSectionHeader(text) {
			p.current = text
		}
	case p.current == p.want:
		p.values = append(p.values, text)
	}
}

// blankLineBefore counts the line feeds between the previous token and tok.
func (p *sectionParser) blankLineBefore(tok stream.Token) bool {
	breaks := strings.Count(string(tok.Skipped), "\n")
	if p.lastDelim == '\n' {
		breaks++
	}
	return breaks >= 2
}

func isSectionHeader(line string) bool {
	return len(line) > 2 && line[0] == '%' && line[len(line)-1] == '%'
}

func readSection(r io.Reader, section string, opts ...stream.Option) ([]string, error) {
	p := newSectionParser(section)
	err := stream.Consume(r, lineDelims, p, opts...)
	return p.values, err
}

// Package stream splits byte streams into delimiter separated tokens without
// reading the whole stream or relying on line oriented I/O.
package stream

import (
	"errors"
	"io"
)

// DefaultChunkSize is the read size used when no buffer is supplied.
const DefaultChunkSize = 256

const (
	// DelimNone marks a fragment cut by a chunk boundary.
	DelimNone = -1
	// DelimEOF marks the final fragment of a run ended by end of stream.
	DelimEOF = -2
)

// Token is one fragment of a delimiter-free run.
//
// Text aliases the tokenizer's chunk buffer and is only valid until the next
// call to Next. A run cut by a chunk boundary is reported as several
// fragments sharing the same Pos; First is set on the first of them and Last
// on the final one.
type Token struct {
	Text []byte
	// Delim is the delimiter byte that ended the run, DelimNone for an
	// intermediate fragment or DelimEOF when the stream ended mid-run.
	Delim int
	First bool
	Last  bool
	// Pos counts completed logical tokens since the stream started.
	Pos int
	// Skipped holds delimiter bytes of suppressed empty runs seen between the
	// previous token and this one. Only set on First fragments.
	Skipped []byte
}

// EndsWith reports whether the token closed its run on one of the bytes in set.
func (t Token) EndsWith(set string) bool {
	if !t.Last || t.Delim < 0 {
		return false
	}
	for i := 0; i < len(set); i++ {
		if int(set[i]) == t.Delim {
			return true
		}
	}
	return false
}

// SkippedAny reports whether any suppressed delimiter byte is in set.
func (t Token) SkippedAny(set string) bool {
	for _, b := range t.Skipped {
		for i := 0; i < len(set); i++ {
			if b == set[i] {
				return true
			}
		}
	}
	return false
}

type delimSet [256]bool

func newDelimSet(delims string) delimSet {
	var set delimSet
	for i := 0; i < len(delims); i++ {
		set[delims[i]] = true
	}
	return set
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithChunkSize sets the size of the internally allocated chunk buffer.
func WithChunkSize(n int) Option {
	return func(t *Tokenizer) {
		if n > 0 && t.buf == nil {
			t.chunkSize = n
		}
	}
}

// WithBuffer makes the tokenizer read into buf instead of allocating.
func WithBuffer(buf []byte) Option {
	return func(t *Tokenizer) {
		if len(buf) > 0 {
			t.buf = buf
			t.chunkSize = len(buf)
		}
	}
}

// Tokenizer is a resumable cursor over one stream. It is not safe for
// concurrent use.
type Tokenizer struct {
	r         io.Reader
	buf       []byte
	chunkSize int
	start     int
	end       int

	delims delimSet
	tok    Token
	pos    int
	// inRun is set while the last emitted fragment did not close its run.
	inRun   bool
	skipped []byte
	done    bool
	err     error
}

// NewTokenizer returns a tokenizer reading r and splitting on any byte of delims.
// An empty delims value splits on "\r\n".
func NewTokenizer(r io.Reader, delims string, opts ...Option) *Tokenizer {
	if delims == "" {
		delims = "\r\n"
	}
	t := &Tokenizer{
		r:         r,
		chunkSize: DefaultChunkSize,
		delims:    newDelimSet(delims),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.buf == nil {
		t.buf = make([]byte, t.chunkSize)
	}
	return t
}

// SetDelims replaces the delimiter set for the rest of the stream.
func (t *Tokenizer) SetDelims(delims string) {
	if delims == "" {
		delims = "\r\n"
	}
	t.delims = newDelimSet(delims)
}

// Token returns the fragment produced by the last successful Next.
func (t *Tokenizer) Token() Token {
	return t.tok
}

// Err returns the first non-EOF read error.
func (t *Tokenizer) Err() error {
	return t.err
}

// Next advances to the next fragment. It returns false once the stream is
// exhausted or a read failed.
func (t *Tokenizer) Next() bool {
	for {
		if t.start < t.end {
			if t.scan() {
				return true
			}
			continue
		}
		if t.done {
			if t.inRun {
				t.emit(nil, DelimEOF, true)
				return true
			}
			t.tok = Token{}
			return false
		}
		t.fill()
	}
}

func (t *Tokenizer) fill() {
	n, err := t.r.Read(t.buf)
	if n < 0 {
		n = 0
	}
	t.start, t.end = 0, n
	if err != nil {
		t.done = true
		if !errors.Is(err, io.EOF) {
			t.err = err
		}
	}
}

// scan looks at the unread part of the current chunk. It returns false when
// it only consumed an empty run.
func (t *Tokenizer) scan() bool {
	chunk := t.buf[t.start:t.end]
	for i, b := range chunk {
		if !t.delims[b] {
			continue
		}
		t.start += i + 1
		if i == 0 && !t.inRun {
			t.skipped = append(t.skipped, b)
			return false
		}
		t.emit(chunk[:i], int(b), true)
		return true
	}
	t.start = t.end
	t.emit(chunk, DelimNone, false)
	return true
}

func (t *Tokenizer) emit(text []byte, delim int, last bool) {
	t.tok = Token{
		Text:  text,
		Delim: delim,
		First: !t.inRun,
		Last:  last,
		Pos:   t.pos,
	}
	if t.tok.First && len(t.skipped) > 0 {
		t.tok.Skipped = t.skipped
		t.skipped = nil
	}
	if last {
		t.pos++
		t.inRun = false
	} else {
		t.inRun = true
	}
}

// Handler receives tokens pushed by Consume. Implementations may call
// SetDelims on the tokenizer to change how the rest of the stream is split.
type Handler interface {
	HandleToken(t *Tokenizer, tok Token)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(t *Tokenizer, tok Token)

// HandleToken calls f.
func (f HandlerFunc) HandleToken(t *Tokenizer, tok Token) {
	f(t, tok)
}

// Consume tokenizes r until end of stream or a read error and passes every
// fragment to h. The read error, if any, is returned.
func Consume(r io.Reader, delims string, h Handler, opts ...Option) error {
	t := NewTokenizer(r, delims, opts...)
	for t.Next() {
		h.HandleToken(t, t.Token())
	}
	return t.Err()
}

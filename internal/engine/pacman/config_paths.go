package pacman

import (
	"bytes"
	"io"

	domainerrors "brokenpkg/internal/core/errors"
	"brokenpkg/internal/core/stream"
)

const (
	RootKey   = "Root"
	DBPathKey = "DB Path"

	keyValueDelims = ":\r\n"
	lineDelims     = "\r\n"
	keyMax         = 64
)

type configState int

const (
	awaitingKey configState = iota
	awaitingValue
	skipToEOL
	// wholeLine parses a line that was split on line endings only. It is
	// entered when a matched key turned out to have an empty value and the
	// next line was already tokenized without the colon delimiter.
	wholeLine
	configDone
)

// configPathExtractor pulls the Root and DB Path values out of the verbose
// configuration dump printed by pacman --verbose. Root must appear before
// DB Path.
type configPathExtractor struct {
	state   configState
	paths   *PathPair
	wanted  []string
	targets []*PathBuffer
	key     PathBuffer
	line    PathBuffer
}

func newConfigPathExtractor(paths *PathPair) *configPathExtractor {
	return &configPathExtractor{
		paths:   paths,
		wanted:  []string{RootKey, DBPathKey},
		targets: []*PathBuffer{&paths.Root, &paths.DBPath},
		key:     NewPathBuffer(keyMax),
		line:    NewPathBuffer(keyMax + paths.DBPath.Cap()),
	}
}

func (e *configPathExtractor) HandleToken(tz *stream.Tokenizer, tok stream.Token) {
	if e.state == configDone {
		return
	}
	if tok.First && tok.SkippedAny(lineDelims) {
		e.lineBreak()
	}

	switch e.state {
	case awaitingKey:
		if tok.First {
			e.key.Reset()
		}
		e.key.AppendTrimmed(tok.Text)
		if !tok.Last {
			return
		}
		e.key.TrimRight()
		if tok.Delim != ':' {
			// A line without a colon carries no key.
			return
		}
		if string(e.key.Bytes()) != e.wanted[0] {
			e.state = skipToEOL
			return
		}
		e.targets[0].Reset()
		e.state = awaitingValue
		tz.SetDelims(lineDelims)

	case awaitingValue:
		e.targets[0].AppendTrimmed(tok.Text)
		if tok.Last {
			e.finishValue(tz)
		}

	case wholeLine:
		if tok.First {
			e.line.Reset()
		}
		e.line.AppendTrimmed(tok.Text)
		if tok.Last {
			e.finishLine(tz)
		}

	case skipToEOL:
		if tok.Last && !tok.EndsWith(":") {
			e.state = awaitingKey
		}
	}
}

// lineBreak handles line endings swallowed as empty runs.
func (e *configPathExtractor) lineBreak() {
	switch e.state {
	case skipToEOL:
		e.state = awaitingKey
	case awaitingValue:
		e.targets[0].Reset()
		e.state = wholeLine
	}
}

func (e *configPathExtractor) finishValue(tz *stream.Tokenizer) {
	target := e.targets[0]
	target.TrimRight()
	if target.Len() == 0 {
		// Empty values do not count, keep looking for the same key.
		e.state = awaitingKey
		tz.SetDelims(keyValueDelims)
		return
	}
	e.advance(tz)
}

func (e *configPathExtractor) finishLine(tz *stream.Tokenizer) {
	key, value, found := bytes.Cut(e.line.Bytes(), []byte{':'})
	if !found || string(bytes.TrimSpace(key)) != e.wanted[0] {
		e.state = awaitingKey
		tz.SetDelims(keyValueDelims)
		return
	}
	target := e.targets[0]
	target.Reset()
	target.AppendTrimmed(value)
	target.TrimRight()
	if target.Len() == 0 {
		// Still wanted. Delimiters are already line endings only, so the
		// next line arrives whole as well.
		return
	}
	e.advance(tz)
}

func (e *configPathExtractor) advance(tz *stream.Tokenizer) {
	e.wanted = e.wanted[1:]
	e.targets = e.targets[1:]
	if len(e.wanted) == 0 {
		e.state = configDone
		return
	}
	e.state = awaitingKey
	tz.SetDelims(keyValueDelims)
}

// ExtractConfigPaths parses a pacman --verbose dump. Both values must be
// present and non-empty, otherwise a STARTUP_CONFIG error is returned along
// with whatever was captured.
func ExtractConfigPaths(r io.Reader, opts ...stream.Option) (PathPair, error) {
	paths := NewPathPair()
	if err := stream.Consume(r, keyValueDelims, newConfigPathExtractor(&paths), opts...); err != nil {
		return paths, domainerrors.Wrap(err, domainerrors.CodeStartupConfig, "read pacman configuration dump")
	}
	switch {
	case paths.Root.Len() == 0:
		return paths, domainerrors.New(domainerrors.CodeStartupConfig, "pacman did not report a Root path")
	case paths.DBPath.Len() == 0:
		return paths, domainerrors.New(domainerrors.CodeStartupConfig, "pacman did not report a DB Path")
	}
	return paths, nil
}

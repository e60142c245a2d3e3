package pacman

import "bytes"

const (
	// PathMax bounds root and database path values.
	PathMax = 4096
	// NameMax bounds package names, which are also valid file names.
	NameMax = 255
)

const blanks = " \t"

// PathBuffer is a bounded byte container. At most Cap()-1 bytes are kept;
// anything beyond that is silently dropped.
type PathBuffer struct {
	buf []byte
	n   int
}

// NewPathBuffer returns an empty buffer with the given capacity.
func NewPathBuffer(capacity int) PathBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return PathBuffer{buf: make([]byte, capacity)}
}

// Cap returns the capacity the buffer was created with.
func (b *PathBuffer) Cap() int { return len(b.buf) }

// Len returns the number of bytes held.
func (b *PathBuffer) Len() int { return b.n }

func (b *PathBuffer) String() string { return string(b.buf[:b.n]) }

func (b *PathBuffer) Bytes() []byte { return b.buf[:b.n] }

func (b *PathBuffer) Reset() { b.n = 0 }

// Append copies p, clamped to the remaining room.
func (b *PathBuffer) Append(p []byte) {
	room := len(b.buf) - 1 - b.n
	if room <= 0 {
		return
	}
	if len(p) > room {
		p = p[:room]
	}
	b.n += copy(b.buf[b.n:], p)
}

// AppendTrimmed appends p, dropping leading blanks while the buffer is
// still empty.
func (b *PathBuffer) AppendTrimmed(p []byte) {
	if b.n == 0 {
		p = bytes.TrimLeft(p, blanks)
	}
	b.Append(p)
}

// TrimRight drops trailing blanks.
func (b *PathBuffer) TrimRight() {
	b.n = len(bytes.TrimRight(b.buf[:b.n], blanks))
}

// Set replaces the content with s, clamped to capacity.
func (b *PathBuffer) Set(s string) {
	b.Reset()
	b.Append([]byte(s))
}

// PathPair holds the installation root and the package database directory.
type PathPair struct {
	Root   PathBuffer
	DBPath PathBuffer
}

// NewPathPair returns empty buffers of PathMax capacity.
func NewPathPair() PathPair {
	return PathPair{
		Root:   NewPathBuffer(PathMax),
		DBPath: NewPathBuffer(PathMax),
	}
}

// Complete reports whether both paths are non-empty.
func (p *PathPair) Complete() bool {
	return p.Root.Len() > 0 && p.DBPath.Len() > 0
}

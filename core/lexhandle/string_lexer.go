package lexhandle

import "github.com/zshscan/zshscan/core/token"

// StringLexer is the reference LexerHandle implementation used by the CLI
// and by tests to drive Scan over an in-memory byte slice without a real
// parser runtime attached. It provides exactly what the LexerHandle
// contract requires: single-byte lookahead, single-byte advance, and
// column tracking since the last newline.
type StringLexer struct {
	input    []byte
	pos      int // cursor position (next unread byte)
	start    int // start of the token currently being produced
	end      int // position MarkEnd last recorded
	marked   bool
	consumed bool // a non-skip Advance has happened since StartToken
	column   uint32
	result   token.Kind
}

// NewStringLexer creates a StringLexer positioned at the start of src.
func NewStringLexer(src []byte) *StringLexer {
	return &StringLexer{input: src}
}

// Lookahead returns the next unconsumed byte, or 0 at EOF.
func (l *StringLexer) Lookahead() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

// EOF reports whether the cursor is at the end of input.
func (l *StringLexer) EOF() bool {
	return l.pos >= len(l.input)
}

// Column returns bytes consumed since the last newline, 0-based.
func (l *StringLexer) Column() uint32 {
	return l.column
}

// Advance consumes the lookahead byte, updating column tracking. Bytes
// skipped before the first significant byte are excluded from the token:
// the token's start moves past them, the way the host runtime treats
// leading whitespace consumed with advance(skip=true).
func (l *StringLexer) Advance(skip bool) {
	if l.pos >= len(l.input) {
		return
	}
	if l.input[l.pos] == '\n' {
		l.column = 0
	} else {
		l.column++
	}
	l.pos++
	if skip && !l.consumed {
		l.start = l.pos
		if !l.marked {
			l.end = l.pos
		}
	} else if !skip {
		l.consumed = true
	}
}

// MarkEnd sets the exclusive right boundary of the token being produced.
func (l *StringLexer) MarkEnd() {
	l.end = l.pos
	l.marked = true
}

// SetResult stores the chosen token kind for this invocation.
func (l *StringLexer) SetResult(kind token.Kind) {
	l.result = kind
}

// Result returns the token kind set by the most recent successful Scan.
func (l *StringLexer) Result() token.Kind {
	return l.result
}

// StartToken records the current cursor as the start of the next token,
// called by the driving loop before each Scan invocation.
func (l *StringLexer) StartToken() {
	l.start = l.pos
	l.end = l.pos
	l.marked = false
	l.consumed = false
}

// Start returns the offset where the current token's text begins, after any
// leading skipped bytes.
func (l *StringLexer) Start() int {
	return l.start
}

// Text returns the bytes between the last StartToken and the token's end.
func (l *StringLexer) Text() []byte {
	end := l.End()
	if end < l.start {
		return nil
	}
	return l.input[l.start:end]
}

// Pos returns the current cursor offset into the source.
func (l *StringLexer) Pos() int {
	return l.pos
}

// End returns the token's exclusive right boundary: the offset last
// recorded by MarkEnd, or the current cursor if MarkEnd was never called
// since StartToken. The fallback matches the host runtime's behavior of
// ending an external token wherever the scanner stopped advancing when it
// never marked an end explicitly.
func (l *StringLexer) End() int {
	if !l.marked {
		return l.pos
	}
	return l.end
}

// SeekEnd moves the cursor to the token's end, discarding any lookahead
// consumed past it. Scan itself never needs this (mark_end only ever moves
// forward to the current cursor) but the driving loop uses it to resume
// scanning immediately after a produced token.
func (l *StringLexer) SeekEnd() {
	l.seek(l.End())
}

// Rewind moves the cursor back to offset, recomputing column tracking. The
// driving loop uses it to discard everything a failed Scan consumed, which
// is what the host runtime does when the external scanner returns false.
func (l *StringLexer) Rewind(offset int) {
	l.seek(offset)
}

func (l *StringLexer) seek(to int) {
	l.pos = to
	var col uint32
	for i := to - 1; i >= 0 && l.input[i] != '\n'; i-- {
		col++
	}
	l.column = col
}

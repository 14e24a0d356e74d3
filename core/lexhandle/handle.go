// Package lexhandle defines the host-supplied cursor interface the scanner
// reads bytes through, plus a reference implementation for driving the
// scanner without a real parser runtime attached.
package lexhandle

import "github.com/zshscan/zshscan/core/token"

// LexerHandle is the opaque lexer handle the host parser supplies to the
// scanner on every invocation. The scanner never holds its own copy of
// the source bytes; every byte it sees comes through here.
type LexerHandle interface {
	// Lookahead returns the next unconsumed byte, or 0 at EOF.
	Lookahead() byte
	// EOF reports whether the cursor is at the end of input.
	EOF() bool
	// Column returns bytes consumed since the last newline, 0-based.
	Column() uint32
	// Advance consumes the lookahead byte. skip marks the byte as
	// insignificant whitespace the host should not include in the token.
	Advance(skip bool)
	// MarkEnd sets the exclusive right boundary of the token being
	// produced at the current cursor position.
	MarkEnd()
	// SetResult stores the chosen token kind for this invocation.
	SetResult(kind token.Kind)
}

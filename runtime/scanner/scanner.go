// Package scanner implements the external lexical scanner: the
// disambiguation cascade a host parser calls on every token boundary the
// grammar alone cannot resolve, plus the serialized state that lets it
// resume correctly across incremental edits.
package scanner

import (
	"encoding/binary"
	"log/slog"
	"os"
	"unicode"

	"github.com/zshscan/zshscan/core/contextstack"
	"github.com/zshscan/zshscan/core/heredoc"
	"github.com/zshscan/zshscan/core/invariant"
	"github.com/zshscan/zshscan/core/lexhandle"
	"github.com/zshscan/zshscan/core/token"
)

// lexerHandle is a package-local alias so the subscanner files (regex.go,
// extglob.go, expansion.go, testop.go) don't each need their own import.
type lexerHandle = lexhandle.LexerHandle

// bufferSize mirrors TREE_SITTER_SERIALIZATION_BUFFER_SIZE: the host
// parser allocates a fixed-size byte array for Serialize to fill, and a
// serialization that would overflow it must fail by returning an empty
// slice rather than truncating.
const bufferSize = 1024

var debugLog *slog.Logger

func init() {
	if os.Getenv("ZSHSCAN_DEBUG") != "" {
		EnableDebugLogging()
	}
}

// EnableDebugLogging turns on dispatch tracing to stderr, the same switch
// the ZSHSCAN_DEBUG environment variable flips at startup. The CLI calls
// this when a config file sets debug: true.
func EnableDebugLogging() {
	debugLog = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Scanner is the external scanner's persistent state: everything that
// must survive between Scan invocations and be carried across an
// incremental reparse via Serialize/Deserialize.
type Scanner struct {
	lastGlobParenDepth uint8
	// extWasInDoubleQuote and extSawOutsideQuote are dead fields: nothing
	// in the dispatch cascade reads or writes them, but the wire format
	// reserves their byte positions, so they are kept and always
	// serialized as false.
	extWasInDoubleQuote      bool
	extSawOutsideQuote       bool
	contextStack             contextstack.Stack
	justReturnedVariableName bool
	justReturnedBareDollar   bool
	heredocs                 heredoc.Registry
}

// New returns a Scanner in its zero state, equivalent to Reset.
func New() *Scanner {
	return &Scanner{}
}

// Reset restores the scanner to its initial state: no nested contexts, no
// pending heredocs, no carried dispatch flags.
func (s *Scanner) Reset() {
	s.lastGlobParenDepth = 0
	s.extWasInDoubleQuote = false
	s.extSawOutsideQuote = false
	s.contextStack.Reset()
	s.justReturnedVariableName = false
	s.justReturnedBareDollar = false
	s.heredocs.Reset()
}

// Serialize encodes the scanner's state for the host parser to stash
// alongside a parse tree node. It returns nil if the state would not fit
// in bufferSize bytes; the caller then treats the next deserialization as
// starting fresh.
func (s *Scanner) Serialize() []byte {
	// The counts are single bytes and the whole snapshot must fit the
	// host's fixed buffer; a state too deep to encode fails the same way a
	// state too large does.
	if s.contextStack.Len() > 255 || s.heredocs.Len() > 255 {
		return nil
	}
	if 7+s.contextStack.Len() >= bufferSize {
		return nil
	}

	buf := make([]byte, 0, bufferSize)
	buf = append(buf, s.lastGlobParenDepth)
	buf = append(buf, boolByte(s.extWasInDoubleQuote))
	buf = append(buf, boolByte(s.extSawOutsideQuote))
	buf = append(buf, byte(s.contextStack.Len()))
	buf = append(buf, byte(s.heredocs.Len()))
	buf = append(buf, boolByte(s.justReturnedVariableName))
	buf = append(buf, boolByte(s.justReturnedBareDollar))

	buf = append(buf, s.contextStack.Bytes()...)

	for i := 0; i < s.heredocs.Len(); i++ {
		rec := s.heredocs.At(i)
		delim := rec.Delimiter()
		if len(buf)+3+4+len(delim) >= bufferSize {
			return nil
		}
		buf = append(buf, boolByte(rec.IsRaw), boolByte(rec.Started), boolByte(rec.AllowsIndent))
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(delim)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, delim...)
	}
	return buf
}

// Deserialize restores state from a byte slice previously produced by
// Serialize. An empty buffer (the state the host parser uses for a fresh
// parse, or after Serialize declined to fit) resets the scanner.
func (s *Scanner) Deserialize(buf []byte) {
	if len(buf) == 0 {
		s.Reset()
		return
	}
	invariant.Precondition(len(buf) >= 7, "serialized state has the fixed header")

	pos := 0
	s.lastGlobParenDepth = buf[pos]
	pos++
	s.extWasInDoubleQuote = buf[pos] != 0
	pos++
	s.extSawOutsideQuote = buf[pos] != 0
	pos++
	contextStackSize := int(buf[pos])
	pos++
	heredocCount := int(buf[pos])
	pos++
	s.justReturnedVariableName = buf[pos] != 0
	pos++
	s.justReturnedBareDollar = buf[pos] != 0
	pos++

	tags := make([]byte, 0, contextStackSize)
	for i := 0; i < contextStackSize && pos < len(buf); i++ {
		tags = append(tags, buf[pos])
		pos++
	}
	s.contextStack.SetBytes(tags)

	s.heredocs.Reset()
	for i := 0; i < heredocCount; i++ {
		rec := s.heredocs.Push()
		rec.IsRaw = buf[pos] != 0
		pos++
		rec.Started = buf[pos] != 0
		pos++
		rec.AllowsIndent = buf[pos] != 0
		pos++
		n := binary.LittleEndian.Uint32(buf[pos : pos+4])
		pos += 4
		if n > 0 {
			rec.SetDelimiter(string(buf[pos : pos+int(n)]))
			pos += int(n)
		}
	}
}

// PendingHeredocDelimiters returns the delimiters of every heredoc that was
// opened but whose end delimiter has not been matched yet, oldest first.
// The watch tooling uses this after a full scan to flag heredocs left
// unterminated through EOF.
func (s *Scanner) PendingHeredocDelimiters() []string {
	if s.heredocs.Len() == 0 {
		return nil
	}
	out := make([]string, 0, s.heredocs.Len())
	for i := 0; i < s.heredocs.Len(); i++ {
		out = append(out, s.heredocs.At(i).Delimiter())
	}
	return out
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Scan runs the full disambiguation cascade for one token boundary. valid
// enumerates which token kinds the host grammar would accept here; Scan
// tries candidates in a fixed priority order and returns true the moment
// one matches, having already called lex.SetResult. Arms that do not call
// lex.MarkEnd leave the token ending at the cursor.
func (s *Scanner) Scan(lex lexhandle.LexerHandle, valid token.ValidSymbols) bool {
	if debugLog != nil {
		debugLog.Debug("scan invoked", "lookahead", string(rune(lex.Lookahead())))
	}

	wasJustVariableName := s.justReturnedVariableName
	s.justReturnedVariableName = false

	wasJustBareDollar := s.justReturnedBareDollar
	s.justReturnedBareDollar = false

	errorRecovery := valid[token.ErrorRecovery]

	if valid[token.Newline] && !errorRecovery {
		if lex.Lookahead() == '\n' {
			for lex.Lookahead() == '\n' {
				lex.Advance(true)
			}
			lex.MarkEnd()
			lex.SetResult(token.Newline)
			return true
		}
	}

	if lex.Lookahead() == '}' && valid[token.ClosingBrace] && !errorRecovery {
		active := s.contextStack.Top()
		switch active {
		case contextstack.Parameter, contextstack.ParamPatternSuffix, contextstack.ParamPatternSubstitute:
			s.contextStack.PopExpect(active)
			lex.SetResult(token.ClosingBrace)
			lex.Advance(false)
			return true
		}
	}

	if valid[token.Concat] && !errorRecovery {
		ctx := s.contextStack.Top()
		inExpansionBrace := ctx == contextstack.Parameter || ctx == contextstack.ParamPatternSuffix ||
			ctx == contextstack.ParamPatternSubstitute || ctx == contextstack.BraceExpansion
		la := lex.Lookahead()
		suppressed := la == 0 || unicode.IsSpace(rune(la)) || la == '>' || la == '<' ||
			(la == ')' && valid[token.ClosingParen]) || la == '(' || la == ';' || la == '&' || la == '|' ||
			(la == '}' && inExpansionBrace) ||
			(la == ']' && valid[token.ClosingBracket]) ||
			(la == '[' && wasJustVariableName)

		if !suppressed {
			lex.SetResult(token.Concat)
			if la == '`' {
				lex.MarkEnd()
				lex.Advance(false)
				for lex.Lookahead() != '`' && !lex.EOF() {
					lex.Advance(false)
				}
				if lex.EOF() {
					return false
				}
				if lex.Lookahead() == '`' {
					lex.Advance(false)
				}
				return unicode.IsSpace(rune(lex.Lookahead())) || lex.EOF()
			}
			if la == '\\' {
				lex.MarkEnd()
				lex.Advance(false)
				nxt := lex.Lookahead()
				if nxt == '"' || nxt == '\'' || nxt == '\\' {
					return true
				}
				if lex.EOF() {
					return false
				}
			} else {
				return true
			}
		}
		if unicode.IsSpace(rune(la)) && inExpansionBrace && !valid[token.ExpansionWord] {
			lex.SetResult(token.Concat)
			return true
		}
	}

	if valid[token.BareDollar] && !errorRecovery {
		if lex.Lookahead() == ' ' || lex.Lookahead() == '\t' {
			for (lex.Lookahead() == ' ' || lex.Lookahead() == '\t') && !lex.EOF() {
				lex.Advance(true)
			}
		}
		if lex.Lookahead() == '$' {
			lex.Advance(false)
			if lex.Lookahead() != '"' {
				lex.MarkEnd()
				lex.SetResult(token.BareDollar)
				wasJustBareDollar = true
				s.justReturnedBareDollar = true
				return true
			}
			return false
		}
	}

	if valid[token.PeekBareDollar] && !errorRecovery {
		if lex.Lookahead() == '$' {
			lex.SetResult(token.PeekBareDollar)
			return true
		}
	}

	if valid[token.BraceStart] && !errorRecovery {
		if lex.Lookahead() == '{' && wasJustBareDollar {
			lex.Advance(false)
			wasJustBareDollar = false
			s.justReturnedBareDollar = false
			lex.SetResult(token.BraceStart)
			lex.MarkEnd()
			s.contextStack.Push(contextstack.Parameter)
			return true
		}
	}

	if (valid[token.OpeningParen] || valid[token.DoubleOpeningParen] || valid[token.ZshExtendedGlobFlags]) && !errorRecovery {
		for unicode.IsSpace(rune(lex.Lookahead())) {
			lex.Advance(true)
		}
		if lex.Lookahead() == '(' {
			lex.Advance(false)
			lex.MarkEnd()

			if wasJustBareDollar {
				if lex.Lookahead() == '(' && valid[token.DoubleOpeningParen] {
					lex.Advance(false)
					lex.MarkEnd()
					wasJustBareDollar = false
					s.justReturnedBareDollar = false
					s.contextStack.Push(contextstack.Arithmetic)
					lex.SetResult(token.DoubleOpeningParen)
					return true
				} else if valid[token.OpeningParen] {
					wasJustBareDollar = false
					s.justReturnedBareDollar = false
					s.contextStack.Push(contextstack.Command)
					lex.SetResult(token.OpeningParen)
					return true
				}
			} else if valid[token.OpeningParen] || valid[token.ZshExtendedGlobFlags] {
				if lex.Lookahead() == '#' && valid[token.ZshExtendedGlobFlags] {
					lex.Advance(false)
					foundFlags := false
					for lex.Lookahead() != 0 && isGlobFlagChar(lex.Lookahead()) {
						foundFlags = true
						lex.Advance(false)
					}
					if foundFlags && lex.Lookahead() == ')' {
						lex.Advance(false)
						lex.MarkEnd()
						lex.SetResult(token.ZshExtendedGlobFlags)
						return true
					}
					return false
				}
				if valid[token.OpeningParen] {
					wasJustBareDollar = false
					s.justReturnedBareDollar = false
					lex.SetResult(token.OpeningParen)
					return true
				}
			}
		}
	}

	if (valid[token.OpeningBracket] || valid[token.TestCommandStart]) && !errorRecovery {
		for unicode.IsSpace(rune(lex.Lookahead())) {
			lex.Advance(true)
		}
		if lex.Lookahead() == '[' {
			lex.Advance(false)
			if lex.Lookahead() == '[' && valid[token.TestCommandStart] {
				lex.Advance(false)
				wasJustBareDollar = false
				s.justReturnedBareDollar = false
				lex.SetResult(token.TestCommandStart)
				lex.MarkEnd()
				s.contextStack.Push(contextstack.Test)
				return true
			} else if wasJustBareDollar && valid[token.OpeningBracket] {
				wasJustBareDollar = false
				s.justReturnedBareDollar = false
				lex.SetResult(token.OpeningBracket)
				lex.MarkEnd()
				s.contextStack.Push(contextstack.Arithmetic)
				return true
			} else if valid[token.OpeningBracket] {
				wasJustBareDollar = false
				s.justReturnedBareDollar = false
				lex.SetResult(token.OpeningBracket)
				lex.MarkEnd()
				return true
			}
		}
	}

	if (valid[token.TestCommandEnd] || valid[token.ClosingBracket]) && !errorRecovery {
		for unicode.IsSpace(rune(lex.Lookahead())) {
			lex.Advance(true)
		}
		if lex.Lookahead() == ']' {
			lex.Advance(false)
			if lex.Lookahead() == ']' && valid[token.TestCommandEnd] {
				lex.Advance(false)
				lex.SetResult(token.TestCommandEnd)
				lex.MarkEnd()
				s.contextStack.PopExpect(contextstack.Test)
				return true
			} else if valid[token.ClosingBracket] {
				lex.SetResult(token.ClosingBracket)
				lex.MarkEnd()
				return true
			}
			return false
		}
	}

	if (valid[token.ClosingParen] || valid[token.ClosingDoubleParen]) && !errorRecovery {
		for unicode.IsSpace(rune(lex.Lookahead())) {
			lex.Advance(true)
		}
		if lex.Lookahead() == ')' {
			lex.Advance(false)
			if lex.Lookahead() == ')' && valid[token.ClosingDoubleParen] {
				lex.Advance(false)
				lex.SetResult(token.ClosingDoubleParen)
				lex.MarkEnd()
				s.contextStack.PopExpect(contextstack.Arithmetic)
				return true
			} else if valid[token.ClosingParen] {
				lex.SetResult(token.ClosingParen)
				lex.MarkEnd()
				s.contextStack.PopExpect(contextstack.Arithmetic)
				return true
			}
			return false
		}
	}

	if valid[token.PatternStart] && !errorRecovery {
		if s.contextStack.Top() == contextstack.Parameter && lex.Lookahead() != '}' {
			s.contextStack.Push(contextstack.ParamPatternSubstitute)
			lex.SetResult(token.PatternStart)
			lex.MarkEnd()
			return true
		}
	}

	if valid[token.PatternSuffixStart] && !errorRecovery {
		if s.contextStack.Top() == contextstack.Parameter && lex.Lookahead() != '}' {
			s.contextStack.Push(contextstack.ParamPatternSuffix)
			lex.SetResult(token.PatternSuffixStart)
			lex.MarkEnd()
			return true
		}
	}

	if s.contextStack.InParameterExpansion() && lex.Lookahead() == ':' && !errorRecovery {
		lex.Advance(false)
		return false
	}

	if s.contextStack.InParameterExpansion() && lex.Lookahead() == '#' && !errorRecovery {
		lex.Advance(false)
		if lex.Lookahead() == '#' {
			if valid[token.DoubleHashPattern] {
				lex.Advance(false)
				lex.SetResult(token.DoubleHashPattern)
				lex.MarkEnd()
				return true
			}
		} else if valid[token.HashPattern] {
			lex.SetResult(token.HashPattern)
			lex.MarkEnd()
			return true
		}
		return false
	}

	if valid[token.ImmediateDoubleHash] && !errorRecovery {
		if lex.Lookahead() == '#' {
			lex.MarkEnd()
			lex.Advance(false)
			if lex.Lookahead() == '#' {
				lex.Advance(false)
				if lex.Lookahead() != '}' {
					lex.SetResult(token.ImmediateDoubleHash)
					lex.MarkEnd()
					return true
				}
			}
		}
	}

	if (valid[token.ArrayStarToken] || valid[token.ArrayAtToken]) && !errorRecovery {
		if lex.Lookahead() == '*' && valid[token.ArrayStarToken] &&
			!valid[token.Regex] && !valid[token.RegexNoSlash] && !valid[token.RegexNoSpace] {
			lex.SetResult(token.ArrayStarToken)
			lex.Advance(false)
			lex.MarkEnd()
			return true
		}
		if lex.Lookahead() == '@' && valid[token.ArrayAtToken] {
			lex.SetResult(token.ArrayAtToken)
			lex.Advance(false)
			lex.MarkEnd()
			return true
		}
	}

	if valid[token.EmptyValue] {
		la := lex.Lookahead()
		if unicode.IsSpace(rune(la)) || lex.EOF() || la == ';' || la == '&' {
			lex.SetResult(token.EmptyValue)
			return true
		}
	}

	if (valid[token.HeredocBodyBeginning] || valid[token.SimpleHeredocBody]) &&
		s.heredocs.Len() > 0 && !s.heredocs.Back().Started && !errorRecovery {
		return heredoc.ScanContent(&s.heredocs, lex, token.HeredocBodyBeginning, token.SimpleHeredocBody)
	}

	if valid[token.HeredocEnd] && s.heredocs.Len() > 0 {
		rec := s.heredocs.Back()
		if heredoc.ScanEndIdentifier(rec, lex) {
			s.heredocs.Pop()
			lex.SetResult(token.HeredocEnd)
			return true
		}
	}

	if valid[token.HeredocContent] && s.heredocs.Len() > 0 && s.heredocs.Back().Started && !errorRecovery {
		return heredoc.ScanContent(&s.heredocs, lex, token.HeredocContent, token.HeredocEnd)
	}

	if valid[token.HeredocStart] && !errorRecovery && s.heredocs.Len() > 0 {
		return heredoc.ScanStart(s.heredocs.Back(), lex)
	}

	if valid[token.TestOperator] && !valid[token.ExpansionWord] {
		if done, result := s.scanTestOperator(lex, valid, wasJustBareDollar); done {
			return result
		}
	}

	if valid[token.SimpleVariableName] && !errorRecovery {
		for unicode.IsSpace(rune(lex.Lookahead())) {
			lex.Advance(true)
		}
		if unicode.IsLetter(rune(lex.Lookahead())) || lex.Lookahead() == '_' {
			consumed := 0
			for unicode.IsLetter(rune(lex.Lookahead())) || unicode.IsDigit(rune(lex.Lookahead())) || lex.Lookahead() == '_' {
				lex.Advance(false)
				consumed++
			}
			if consumed > 0 {
				lex.MarkEnd()
				wasJustBareDollar = false
				s.justReturnedBareDollar = false
				lex.SetResult(token.SimpleVariableName)
				return true
			}
		}
	}

	if valid[token.SpecialVariableName] && !errorRecovery {
		for unicode.IsSpace(rune(lex.Lookahead())) {
			lex.Advance(true)
		}
		inParamExpand := s.contextStack.InParameterExpansion()
		la := lex.Lookahead()
		if isSpecialVarChar(la) {
			flagChar := la == '#' || la == '!'
			lex.Advance(false)
			if !(inParamExpand && flagChar) {
				lex.MarkEnd()
				wasJustBareDollar = false
				s.justReturnedBareDollar = false
				lex.SetResult(token.SpecialVariableName)
				return true
			}
			return false
		}
	}

	if (valid[token.VariableName] || valid[token.FileDescriptor] || valid[token.HeredocArrow]) &&
		!valid[token.RegexNoSlash] && !errorRecovery {
		if done, result := s.scanVariableNameFamily(lex, valid, wasJustVariableName); done {
			return result
		}
	}

	if valid[token.BareDollar] && !errorRecovery && scanRawDollar(lex) {
		return true
	}

	if done, result := s.scanRegex(lex, valid); done {
		return result
	}

	if done, result := s.scanExtglob(lex, valid); done {
		return result
	}

	if done, result := s.scanExpansionWord(lex, valid, wasJustVariableName); done {
		return result
	}

	if done, result := s.scanBraceRange(lex, valid); done {
		return result
	}
	return false
}

func isGlobFlagChar(b byte) bool {
	if unicode.IsDigit(rune(b)) || b == '.' {
		return true
	}
	switch b {
	case 'i', 'q', 'b', 'm', 'n', 's', 'B', 'I', 'N', 'U', 'X', 'c', 'e', 'l', 'f', 'a', 'C', 'o':
		return true
	}
	return false
}

func isSpecialVarChar(b byte) bool {
	switch b {
	case '*', '@', '?', '!', '#', '-', '$', '_':
		return true
	}
	return unicode.IsDigit(rune(b))
}

// scanRawDollar recognizes a bare "$" used as a placeholder token: for
// example as the value of an empty string expansion.
func scanRawDollar(lex lexhandle.LexerHandle) bool {
	for unicode.IsSpace(rune(lex.Lookahead())) && lex.Lookahead() != '\n' && !lex.EOF() {
		lex.Advance(true)
	}
	if lex.Lookahead() == '$' {
		lex.Advance(false)
		lex.SetResult(token.BareDollar)
		lex.MarkEnd()
		return unicode.IsSpace(rune(lex.Lookahead())) || lex.EOF() || lex.Lookahead() == '"'
	}
	return false
}

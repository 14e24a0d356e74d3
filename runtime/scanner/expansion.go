package scanner

import (
	"unicode"

	"github.com/zshscan/zshscan/core/token"
)

// scanExpansionWord recognizes the bare word that forms the body of a
// command-line expansion (e.g. the replacement text in `${var/pat/rep}`
// or an unquoted argument word). The word ends before a `$` that opens a
// nested expansion and at the boundaries parameter expansion contexts
// impose: `}` and `]`, and `/` when the active context is a substitute
// pattern. `#`, `%` and `:` end it only inside a parenthesised group within
// the word. Reaching a quote or end of input first produces no token.
func (s *Scanner) scanExpansionWord(lex lexerHandle, valid token.ValidSymbols, wasJustVariableName bool) (bool, bool) {
	if !valid[token.ExpansionWord] {
		return s.scanBraceRange(lex, valid)
	}

	if wasJustVariableName && (lex.Lookahead() == '#' || lex.Lookahead() == '%') {
		return true, false
	}

	advancedOnce := false
	advanceOnceSpace := false

	for {
		if lex.Lookahead() == '"' {
			return true, false
		}
		if lex.Lookahead() == '$' {
			lex.MarkEnd()
			lex.Advance(false)
			la := lex.Lookahead()
			if la == '{' || la == '(' || la == '\'' || isAlnum(la) {
				lex.SetResult(token.ExpansionWord)
				return true, true
			}
			advancedOnce = true
		}

		if lex.Lookahead() == '/' && s.contextStack.ShouldStopAtPatternSlash() {
			lex.MarkEnd()
			lex.SetResult(token.ExpansionWord)
			return true, true
		}

		if lex.Lookahead() == '}' && s.contextStack.InParameterExpansion() {
			lex.MarkEnd()
			lex.SetResult(token.ExpansionWord)
			return true, true
		}

		if lex.Lookahead() == '(' && !(advancedOnce || advanceOnceSpace) {
			lex.MarkEnd()
			lex.Advance(false)
			for lex.Lookahead() != ')' && !lex.EOF() {
				if lex.Lookahead() == '$' {
					lex.MarkEnd()
					lex.Advance(false)
					la := lex.Lookahead()
					if la == '{' || la == '(' || la == '\'' || isAlnum(la) {
						lex.SetResult(token.ExpansionWord)
						return true, true
					}
					advancedOnce = true
					continue
				}
				if s.contextStack.InParameterExpansion() {
					switch lex.Lookahead() {
					case ']':
						lex.MarkEnd()
						lex.SetResult(token.ExpansionWord)
						return true, true
					case '#', '%', ':':
						lex.MarkEnd()
						lex.SetResult(token.ExpansionWord)
						return true, true
					}
				}
				advancedOnce = advancedOnce || !unicode.IsSpace(rune(lex.Lookahead()))
				advanceOnceSpace = advanceOnceSpace || unicode.IsSpace(rune(lex.Lookahead()))
				lex.Advance(false)
			}
			lex.MarkEnd()
			if lex.Lookahead() == ')' {
				advancedOnce = true
				lex.Advance(false)
				lex.MarkEnd()
			} else {
				return true, false
			}
		}

		if lex.Lookahead() == '\'' {
			return true, false
		}
		if lex.EOF() {
			return true, false
		}

		if s.contextStack.InParameterExpansion() {
			if lex.Lookahead() == ']' {
				lex.MarkEnd()
				lex.SetResult(token.ExpansionWord)
				return true, true
			}
			if lex.Lookahead() == '#' || lex.Lookahead() == '%' || lex.Lookahead() == '/' {
				if lex.Lookahead() == '/' && s.contextStack.ShouldStopAtPatternSlash() && !advancedOnce {
					lex.MarkEnd()
					lex.SetResult(token.ExpansionWord)
					return true, true
				}
			}
		}

		advancedOnce = advancedOnce || !unicode.IsSpace(rune(lex.Lookahead()))
		advanceOnceSpace = advanceOnceSpace || unicode.IsSpace(rune(lex.Lookahead()))
		lex.Advance(false)
	}
}

// scanBraceRange recognizes a numeric brace-expansion range head like
// `{1..10}` (either bound may be empty), the sole purpose of which is
// disambiguating it from a command-grouping `{`. Letter ranges such as
// `{a..z}` are not recognized.
func (s *Scanner) scanBraceRange(lex lexerHandle, valid token.ValidSymbols) (bool, bool) {
	if !valid[token.BraceStart] || isErrorRecovery(valid) {
		return false, false
	}

	for unicode.IsSpace(rune(lex.Lookahead())) {
		lex.Advance(true)
	}
	if lex.Lookahead() != '{' {
		return true, false
	}

	lex.Advance(false)
	lex.MarkEnd()

	for unicode.IsDigit(rune(lex.Lookahead())) {
		lex.Advance(false)
	}
	if lex.Lookahead() != '.' {
		return true, false
	}
	lex.Advance(false)
	if lex.Lookahead() != '.' {
		return true, false
	}
	lex.Advance(false)

	for unicode.IsDigit(rune(lex.Lookahead())) {
		lex.Advance(false)
	}
	if lex.Lookahead() != '}' {
		return true, false
	}

	lex.SetResult(token.BraceStart)
	return true, true
}

package scanner

import (
	"unicode"

	"github.com/zshscan/zshscan/core/token"
)

// scanTestOperator recognizes `[[ -f ... ]]`-style unary test operators,
// plus the escaped-newline and bare-newline skipping that precede them on
// a continuation line.
//
// The first return value reports whether the cascade should stop here
// (true means the caller should return the second value immediately);
// false means fall through to the next cascade arm.
func (s *Scanner) scanTestOperator(lex lexerHandle, valid token.ValidSymbols, _ bool) (bool, bool) {
	for unicode.IsSpace(rune(lex.Lookahead())) && lex.Lookahead() != '\n' {
		lex.Advance(true)
	}

	if lex.Lookahead() == '\\' {
		if valid[token.ExtglobPattern] {
			return s.scanExtglob(lex, valid)
		}
		if valid[token.RegexNoSpace] {
			return s.scanRegex(lex, valid)
		}
		lex.Advance(true)

		if lex.EOF() {
			return true, false
		}

		switch lex.Lookahead() {
		case '\r':
			lex.Advance(true)
			if lex.Lookahead() == '\n' {
				lex.Advance(true)
			}
		case '\n':
			lex.Advance(true)
		default:
			return true, false
		}

		for unicode.IsSpace(rune(lex.Lookahead())) {
			lex.Advance(true)
		}
	}

	if lex.Lookahead() == '\n' && !valid[token.Newline] {
		lex.Advance(true)
		for unicode.IsSpace(rune(lex.Lookahead())) {
			lex.Advance(true)
		}
	}

	if lex.Lookahead() == '-' {
		lex.Advance(false)

		advancedOnce := false
		for unicode.IsLetter(rune(lex.Lookahead())) {
			advancedOnce = true
			lex.Advance(false)
		}

		if unicode.IsSpace(rune(lex.Lookahead())) && advancedOnce {
			lex.MarkEnd()
			lex.Advance(false)
			if lex.Lookahead() == '}' && s.contextStack.InParameterExpansion() {
				if valid[token.ExpansionWord] {
					lex.MarkEnd()
					lex.SetResult(token.ExpansionWord)
					return true, true
				}
				return true, false
			}
			lex.SetResult(token.TestOperator)
			return true, true
		}
		if unicode.IsSpace(rune(lex.Lookahead())) && valid[token.ExtglobPattern] {
			lex.SetResult(token.ExtglobPattern)
			return true, true
		}
	}

	if valid[token.RawDollar] && scanRawDollar(lex) {
		return true, true
	}

	return false, false
}

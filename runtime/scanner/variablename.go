package scanner

import (
	"unicode"

	"github.com/zshscan/zshscan/core/contextstack"
	"github.com/zshscan/zshscan/core/token"
)

// scanVariableNameFamily recognizes FILE_DESCRIPTOR (a bare number before
// < or >), HEREDOC_ARROW(_DASH), and VARIABLE_NAME (the token that closes
// a `$name` reference once an operator or terminator follows), the
// largest single arm of the cascade.
//
// The first return reports whether the cascade should stop here.
func (s *Scanner) scanVariableNameFamily(lex lexerHandle, valid token.ValidSymbols, _ bool) (bool, bool) {
	for {
		la := lex.Lookahead()
		switch {
		case (la == ' ' || la == '\t' || la == '\r' || (la == '\n' && !valid[token.Newline])) && !valid[token.ExpansionWord]:
			lex.Advance(true)
		case la == '\\':
			lex.Advance(true)
			if lex.EOF() {
				lex.MarkEnd()
				s.justReturnedBareDollar = false
				lex.SetResult(token.VariableName)
				s.justReturnedVariableName = true
				return true, true
			}
			if lex.Lookahead() == '\r' {
				lex.Advance(true)
			}
			if lex.Lookahead() == '\n' {
				lex.Advance(true)
			} else {
				if lex.Lookahead() == '\\' && valid[token.ExpansionWord] {
					return s.scanExpansionWord(lex, valid, false)
				}
				return true, false
			}
		default:
			goto afterWhitespace
		}
	}

afterWhitespace:
	la := lex.Lookahead()
	if !valid[token.ExpansionWord] && (la == '*' || la == '@' || la == '?' || la == '-' || la == '0' || la == '_' || la == '#') {
		lex.MarkEnd()
		lex.Advance(false)
		switch lex.Lookahead() {
		case '=', '[', ':', '-', '%', '/':
			return true, false
		}
		if valid[token.ExtglobPattern] && unicode.IsSpace(rune(lex.Lookahead())) {
			lex.MarkEnd()
			lex.SetResult(token.ExtglobPattern)
			return true, true
		}
	}

	if valid[token.HeredocArrow] && lex.Lookahead() == '<' {
		lex.Advance(false)
		if lex.Lookahead() == '<' {
			lex.Advance(false)
			switch {
			case lex.Lookahead() == '-':
				lex.Advance(false)
				rec := s.heredocs.Push()
				rec.AllowsIndent = true
				lex.SetResult(token.HeredocArrowDash)
			case lex.Lookahead() == '<' || lex.Lookahead() == '=':
				return true, false
			default:
				s.heredocs.Push()
				lex.SetResult(token.HeredocArrow)
			}
			return true, true
		}
		return true, false
	}

	isNumber := true
	switch {
	case unicode.IsDigit(rune(lex.Lookahead())):
		lex.Advance(false)
	case unicode.IsLetter(rune(lex.Lookahead())) || lex.Lookahead() == '_':
		isNumber = false
		lex.Advance(false)
	default:
		if lex.Lookahead() == '{' {
			return s.scanBraceRange(lex, valid)
		}
		if valid[token.ExpansionWord] {
			return s.scanExpansionWord(lex, valid, false)
		}
		if valid[token.ExtglobPattern] {
			return s.scanExtglob(lex, valid)
		}
		return true, false
	}

	for {
		switch {
		case unicode.IsDigit(rune(lex.Lookahead())):
			lex.Advance(false)
		case unicode.IsLetter(rune(lex.Lookahead())) || lex.Lookahead() == '_':
			isNumber = false
			lex.Advance(false)
		default:
			goto afterDigits
		}
	}

afterDigits:
	if isNumber && valid[token.FileDescriptor] && (lex.Lookahead() == '>' || lex.Lookahead() == '<') {
		lex.SetResult(token.FileDescriptor)
		return true, true
	}

	if valid[token.VariableName] {
		if lex.Lookahead() == '+' {
			lex.MarkEnd()
			lex.Advance(false)
			ctx := s.contextStack.Top()
			inPattern := ctx == contextstack.Parameter || ctx == contextstack.ParamPatternSuffix || ctx == contextstack.ParamPatternSubstitute
			if lex.Lookahead() == '=' || lex.Lookahead() == ':' || inPattern {
				lex.SetResult(token.VariableName)
				s.justReturnedBareDollar = false
				s.justReturnedVariableName = true
				return true, true
			}
			return true, false
		}
		if lex.Lookahead() == '/' {
			return true, false
		}
		ctx := s.contextStack.Top()
		inPattern := ctx == contextstack.Parameter || ctx == contextstack.ParamPatternSuffix || ctx == contextstack.ParamPatternSubstitute
		la := lex.Lookahead()
		if la == '=' || la == '[' || la == '%' || (la == '#' && !isNumber) || la == '@' || (la == '-' && inPattern) {
			lex.MarkEnd()
			lex.SetResult(token.VariableName)
			s.justReturnedBareDollar = false
			s.justReturnedVariableName = true
			return true, true
		}
		if la == '?' {
			lex.MarkEnd()
			lex.Advance(false)
			lex.SetResult(token.VariableName)
			s.justReturnedBareDollar = false
			s.justReturnedVariableName = true
			return true, unicode.IsLetter(rune(lex.Lookahead()))
		}
	}

	return true, false
}

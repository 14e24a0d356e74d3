package scanner

import (
	"unicode"

	"github.com/zshscan/zshscan/core/token"
)

// scanExtglob recognizes a zsh extended-glob pattern like `*(foo|bar)` or
// a case-item pattern like `-)`/`*)`. It tracks last_glob_paren_depth
// across invocations so a pattern spanning a parenthesized alternation
// that itself contains further scanner calls doesn't lose its place.
func (s *Scanner) scanExtglob(lex lexerHandle, valid token.ValidSymbols) (bool, bool) {
	if s.contextStack.InParameterExpansion() && valid[token.ExtglobPattern] {
		return true, false
	}
	if !(valid[token.ExtglobPattern] && !isErrorRecovery(valid) &&
		!valid[token.Regex] && !valid[token.RegexNoSlash] && !valid[token.RegexNoSpace]) {
		return false, false
	}

	for unicode.IsSpace(rune(lex.Lookahead())) {
		lex.Advance(true)
	}

	la := lex.Lookahead()
	if !(la == '?' || la == '*' || la == '+' || la == '@' || la == '!' || la == '-' ||
		la == ')' || la == '\\' || la == '.' || la == '[' || unicode.IsLetter(rune(la))) {
		s.lastGlobParenDepth = 0
		return true, false
	}

	if lex.Lookahead() == '\\' {
		lex.Advance(false)
		nxt := lex.Lookahead()
		if (unicode.IsSpace(rune(nxt)) || nxt == '"') && nxt != '\r' && nxt != '\n' {
			lex.Advance(false)
		} else {
			return true, false
		}
	}

	if lex.Lookahead() == ')' && s.lastGlobParenDepth == 0 {
		lex.MarkEnd()
		lex.Advance(false)
		if unicode.IsSpace(rune(lex.Lookahead())) {
			return true, false
		}
	}

	lex.MarkEnd()
	wasNonAlpha := !unicode.IsLetter(rune(lex.Lookahead()))
	if lex.Lookahead() != '[' {
		if lex.Lookahead() == 'e' {
			lex.MarkEnd()
			lex.Advance(false)
			if lex.Lookahead() == 's' {
				lex.Advance(false)
				if lex.Lookahead() == 'a' {
					lex.Advance(false)
					if lex.Lookahead() == 'c' {
						lex.Advance(false)
						if unicode.IsSpace(rune(lex.Lookahead())) {
							return true, false
						}
					}
				}
			}
		} else {
			lex.Advance(false)
		}
	}

	if lex.Lookahead() == '-' {
		lex.MarkEnd()
		lex.Advance(false)
		for isAlnum(lex.Lookahead()) {
			lex.Advance(false)
		}
		if lex.Lookahead() == ')' || lex.Lookahead() == '\\' || lex.Lookahead() == '.' {
			return true, false
		}
		lex.MarkEnd()
	}

	if lex.Lookahead() == ')' && s.lastGlobParenDepth == 0 {
		lex.MarkEnd()
		lex.Advance(false)
		if unicode.IsSpace(rune(lex.Lookahead())) {
			lex.SetResult(token.ExtglobPattern)
			return true, wasNonAlpha
		}
	}

	if unicode.IsSpace(rune(lex.Lookahead())) {
		lex.MarkEnd()
		lex.SetResult(token.ExtglobPattern)
		s.lastGlobParenDepth = 0
		return true, true
	}

	if lex.Lookahead() == '$' {
		lex.MarkEnd()
		lex.Advance(false)
		if lex.Lookahead() == '{' || lex.Lookahead() == '(' {
			lex.SetResult(token.ExtglobPattern)
			return true, true
		}
	}

	if lex.Lookahead() == '|' {
		lex.MarkEnd()
		lex.Advance(false)
		lex.SetResult(token.ExtglobPattern)
		return true, true
	}

	if !isAlnum(lex.Lookahead()) && lex.Lookahead() != '(' && lex.Lookahead() != '"' &&
		lex.Lookahead() != '[' && lex.Lookahead() != '?' && lex.Lookahead() != '/' &&
		lex.Lookahead() != '\\' && lex.Lookahead() != '_' && lex.Lookahead() != '*' {
		return true, false
	}

	state := extglobTailState{sawNonAlphadot: wasNonAlpha, parenDepth: s.lastGlobParenDepth}
	for !state.done {
		switch lex.Lookahead() {
		case 0:
			return true, false
		case '(':
			state.parenDepth++
		case '[':
			state.bracketDepth++
		case '{':
			state.braceDepth++
		case ')':
			if state.parenDepth == 0 {
				state.done = true
			}
			state.parenDepth--
		case ']':
			if state.bracketDepth == 0 {
				state.done = true
			}
			state.bracketDepth--
		case '}':
			if state.braceDepth == 0 {
				state.done = true
			}
			state.braceDepth--
		}

		if lex.Lookahead() == '|' {
			lex.MarkEnd()
			lex.Advance(false)
			if state.parenDepth == 0 && state.bracketDepth == 0 && state.braceDepth == 0 {
				lex.SetResult(token.ExtglobPattern)
				return true, true
			}
		}

		if state.done {
			break
		}

		wasSpace := unicode.IsSpace(rune(lex.Lookahead()))
		if lex.Lookahead() == '$' {
			lex.MarkEnd()
			if !unicode.IsLetter(rune(lex.Lookahead())) && lex.Lookahead() != '.' && lex.Lookahead() != '\\' {
				state.sawNonAlphadot = true
			}
			lex.Advance(false)
			if lex.Lookahead() == '(' || lex.Lookahead() == '{' {
				lex.SetResult(token.ExtglobPattern)
				s.lastGlobParenDepth = uint8(state.parenDepth)
				return true, state.sawNonAlphadot
			}
		}
		if wasSpace {
			lex.MarkEnd()
			lex.SetResult(token.ExtglobPattern)
			s.lastGlobParenDepth = 0
			return true, state.sawNonAlphadot
		}
		if lex.Lookahead() == '"' {
			lex.MarkEnd()
			lex.SetResult(token.ExtglobPattern)
			s.lastGlobParenDepth = 0
			return true, state.sawNonAlphadot
		}
		if lex.Lookahead() == '\\' {
			if !unicode.IsLetter(rune(lex.Lookahead())) && lex.Lookahead() != '.' && lex.Lookahead() != '\\' {
				state.sawNonAlphadot = true
			}
			lex.Advance(false)
			if unicode.IsSpace(rune(lex.Lookahead())) || lex.Lookahead() == '"' {
				lex.Advance(false)
			}
		} else {
			if !unicode.IsLetter(rune(lex.Lookahead())) && lex.Lookahead() != '.' && lex.Lookahead() != '\\' {
				state.sawNonAlphadot = true
			}
			lex.Advance(false)
		}
		if !wasSpace {
			lex.MarkEnd()
		}
	}

	lex.SetResult(token.ExtglobPattern)
	s.lastGlobParenDepth = 0
	return true, state.sawNonAlphadot
}

type extglobTailState struct {
	done           bool
	sawNonAlphadot bool
	parenDepth     uint8
	bracketDepth   int
	braceDepth     int
}

// Package token defines the closed set of token kinds the external scanner
// can produce, and the valid-symbol bitmap the host parser uses to tell the
// scanner which of them it would accept at the current position.
package token

// Kind is one of the token kinds the scanner may return. It is a closed
// tagged variant: no open extension is supported.
type Kind int

const (
	HeredocStart Kind = iota
	SimpleHeredocBody
	HeredocBodyBeginning
	HeredocContent
	HeredocEnd
	FileDescriptor
	EmptyValue
	Concat
	VariableName
	SimpleVariableName
	SpecialVariableName
	TestOperator
	Regex
	RegexNoSlash
	RegexNoSpace
	ExpansionWord
	ExtglobPattern
	RawDollar      // consumes spaces, only if $ alone for strings / commands
	BareDollar     // consumes spaces
	PeekBareDollar // just determines if immediate $ is present
	BraceStart
	ImmediateDoubleHash
	ArrayStarToken
	ArrayAtToken
	ClosingBrace
	ClosingBracket
	ClosingParen
	ClosingDoubleParen
	HeredocArrow
	HeredocArrowDash
	HashPattern       // #pattern
	DoubleHashPattern // ##pattern
	EnterPattern      // implicit / etc
	PatternStart      // after pattern operators, before pattern content
	PatternSuffixStart
	Newline
	OpeningParen
	DoubleOpeningParen
	OpeningBracket
	TestCommandStart // [[
	TestCommandEnd   // ]]
	Esac
	ZshExtendedGlobFlags
	ErrorRecovery

	// Count is the number of distinguished token kinds; keep it last.
	Count
)

var names = [Count]string{
	HeredocStart:         "HEREDOC_START",
	SimpleHeredocBody:    "SIMPLE_HEREDOC_BODY",
	HeredocBodyBeginning: "HEREDOC_BODY_BEGINNING",
	HeredocContent:       "HEREDOC_CONTENT",
	HeredocEnd:           "HEREDOC_END",
	FileDescriptor:       "FILE_DESCRIPTOR",
	EmptyValue:           "EMPTY_VALUE",
	Concat:               "CONCAT",
	VariableName:         "VARIABLE_NAME",
	SimpleVariableName:   "SIMPLE_VARIABLE_NAME",
	SpecialVariableName:  "SPECIAL_VARIABLE_NAME",
	TestOperator:         "TEST_OPERATOR",
	Regex:                "REGEX",
	RegexNoSlash:         "REGEX_NO_SLASH",
	RegexNoSpace:         "REGEX_NO_SPACE",
	ExpansionWord:        "EXPANSION_WORD",
	ExtglobPattern:       "EXTGLOB_PATTERN",
	RawDollar:            "RAW_DOLLAR",
	BareDollar:           "BARE_DOLLAR",
	PeekBareDollar:       "PEEK_BARE_DOLLAR",
	BraceStart:           "BRACE_START",
	ImmediateDoubleHash:  "IMMEDIATE_DOUBLE_HASH",
	ArrayStarToken:       "ARRAY_STAR_TOKEN",
	ArrayAtToken:         "ARRAY_AT_TOKEN",
	ClosingBrace:         "CLOSING_BRACE",
	ClosingBracket:       "CLOSING_BRACKET",
	ClosingParen:         "CLOSING_PAREN",
	ClosingDoubleParen:   "CLOSING_DOUBLE_PAREN",
	HeredocArrow:         "HEREDOC_ARROW",
	HeredocArrowDash:     "HEREDOC_ARROW_DASH",
	HashPattern:          "HASH_PATTERN",
	DoubleHashPattern:    "DOUBLE_HASH_PATTERN",
	EnterPattern:         "ENTER_PATTERN",
	PatternStart:         "PATTERN_START",
	PatternSuffixStart:   "PATTERN_SUFFIX_START",
	Newline:              "NEWLINE",
	OpeningParen:         "OPENING_PAREN",
	DoubleOpeningParen:   "DOUBLE_OPENING_PAREN",
	OpeningBracket:       "OPENING_BRACKET",
	TestCommandStart:     "TEST_COMMAND_START",
	TestCommandEnd:       "TEST_COMMAND_END",
	Esac:                 "ESAC",
	ZshExtendedGlobFlags: "ZSH_EXTENDED_GLOB_FLAGS",
	ErrorRecovery:        "ERROR_RECOVERY",
}

// String renders the debug token name, used by debug logging and the
// tokens CLI subcommand's human-readable output.
func (k Kind) String() string {
	if k < 0 || k >= Count {
		return "UNKNOWN"
	}
	return names[k]
}

// ValidSymbols is the bitmap the host parser supplies on each Scan call,
// enumerating which kinds it would accept at the current position.
type ValidSymbols [Count]bool

// All returns a bitmap accepting every kind except ErrorRecovery, the
// bitmap a standalone driver (no real grammar) uses to exhaust every arm
// of the dispatch cascade at each position.
func All() ValidSymbols {
	var v ValidSymbols
	for i := range v {
		v[i] = true
	}
	v[ErrorRecovery] = false
	return v
}

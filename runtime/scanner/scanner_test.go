package scanner_test

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zshscan/zshscan/core/lexhandle"
	"github.com/zshscan/zshscan/core/token"
	"github.com/zshscan/zshscan/runtime/driver"
	"github.com/zshscan/zshscan/runtime/scanner"
)

// step is one simulated parser invocation: the valid-symbol bitmap the
// grammar would offer, the token kind the scanner must produce, and
// optionally the exact text it must consume. skip simulates bytes the
// context-free grammar lexes itself between scanner invocations.
type step struct {
	skip  int
	valid []token.Kind
	want  token.Kind
	text  string
}

func runSteps(t *testing.T, src string, steps []step) (*scanner.Scanner, *lexhandle.StringLexer) {
	t.Helper()
	sc := scanner.New()
	lex := lexhandle.NewStringLexer([]byte(src))

	for i, st := range steps {
		for j := 0; j < st.skip; j++ {
			lex.Advance(false)
		}
		lex.StartToken()

		var valid token.ValidSymbols
		for _, k := range st.valid {
			valid[k] = true
		}

		if !sc.Scan(lex, valid) {
			t.Fatalf("step %d: Scan(valid=%v) = false, want token %s", i, st.valid, st.want)
		}
		if got := lex.Result(); got != st.want {
			t.Fatalf("step %d: token = %s, want %s", i, got, st.want)
		}
		if st.text != "" {
			if got := string(lex.Text()); got != st.text {
				t.Fatalf("step %d: %s text = %q, want %q", i, st.want, got, st.text)
			}
		}
		lex.SeekEnd()
	}
	return sc, lex
}

func TestScanScenarios(t *testing.T) {
	tests := []struct {
		name  string
		input string
		steps []step
	}{
		{
			name:  "bare_variable_reference",
			input: "$foo",
			steps: []step{
				{valid: []token.Kind{token.BareDollar}, want: token.BareDollar, text: "$"},
				{valid: []token.Kind{token.SimpleVariableName}, want: token.SimpleVariableName, text: "foo"},
			},
		},
		{
			name:  "parameter_expansion_suffix_pattern",
			input: "${foo#bar}",
			steps: []step{
				{valid: []token.Kind{token.BareDollar}, want: token.BareDollar, text: "$"},
				{valid: []token.Kind{token.BraceStart}, want: token.BraceStart, text: "{"},
				{valid: []token.Kind{token.VariableName}, want: token.VariableName, text: "foo"},
				{valid: []token.Kind{token.HashPattern, token.DoubleHashPattern}, want: token.HashPattern, text: "#"},
				{valid: []token.Kind{token.PatternSuffixStart}, want: token.PatternSuffixStart},
				{valid: []token.Kind{token.ExpansionWord}, want: token.ExpansionWord, text: "bar"},
				{valid: []token.Kind{token.ClosingBrace}, want: token.ClosingBrace, text: "}"},
			},
		},
		{
			name:  "parameter_expansion_subscript",
			input: "${arr[0]}",
			steps: []step{
				{valid: []token.Kind{token.BareDollar}, want: token.BareDollar, text: "$"},
				{valid: []token.Kind{token.BraceStart}, want: token.BraceStart, text: "{"},
				{valid: []token.Kind{token.VariableName}, want: token.VariableName, text: "arr"},
				// The grammar consumes the subscript brackets itself; the
				// word between them stops at the closing ']'.
				{skip: 1, valid: []token.Kind{token.ExpansionWord}, want: token.ExpansionWord, text: "0"},
				{skip: 1, valid: []token.Kind{token.ClosingBrace}, want: token.ClosingBrace, text: "}"},
			},
		},
		{
			name:  "parameter_expansion_substitution",
			input: "${a/b/c}",
			steps: []step{
				{valid: []token.Kind{token.BareDollar}, want: token.BareDollar, text: "$"},
				{valid: []token.Kind{token.BraceStart}, want: token.BraceStart, text: "{"},
				{valid: []token.Kind{token.SimpleVariableName}, want: token.SimpleVariableName, text: "a"},
				{valid: []token.Kind{token.PatternStart}, want: token.PatternStart},
				// The grammar consumes the '/' separators itself.
				{skip: 1, valid: []token.Kind{token.ExpansionWord}, want: token.ExpansionWord, text: "b"},
				{skip: 1, valid: []token.Kind{token.ExpansionWord}, want: token.ExpansionWord, text: "c"},
				{valid: []token.Kind{token.ClosingBrace}, want: token.ClosingBrace, text: "}"},
			},
		},
		{
			name:  "indented_heredoc",
			input: "<<-EOF\n\thello\n\tEOF\n",
			steps: []step{
				{valid: []token.Kind{token.HeredocArrow, token.HeredocArrowDash}, want: token.HeredocArrowDash},
				{valid: []token.Kind{token.HeredocStart}, want: token.HeredocStart, text: "EOF"},
				{valid: []token.Kind{token.HeredocBodyBeginning, token.SimpleHeredocBody}, want: token.SimpleHeredocBody},
				{valid: []token.Kind{token.HeredocEnd}, want: token.HeredocEnd, text: "EOF"},
			},
		},
		{
			name:  "test_command",
			input: "[[ -f x ]]",
			steps: []step{
				{valid: []token.Kind{token.TestCommandStart}, want: token.TestCommandStart, text: "[["},
				{valid: []token.Kind{token.TestOperator}, want: token.TestOperator, text: "-f"},
				// "x" is an ordinary word the grammar lexes itself.
				{skip: 2, valid: []token.Kind{token.TestCommandEnd}, want: token.TestCommandEnd, text: "]]"},
			},
		},
		{
			name:  "arithmetic_expansion",
			input: "$((1+2))",
			steps: []step{
				{valid: []token.Kind{token.BareDollar}, want: token.BareDollar, text: "$"},
				{valid: []token.Kind{token.OpeningParen, token.DoubleOpeningParen}, want: token.DoubleOpeningParen},
				{skip: 3, valid: []token.Kind{token.ClosingParen, token.ClosingDoubleParen}, want: token.ClosingDoubleParen, text: "))"},
			},
		},
		{
			name:  "command_substitution",
			input: "$(ls)",
			steps: []step{
				{valid: []token.Kind{token.BareDollar}, want: token.BareDollar, text: "$"},
				{valid: []token.Kind{token.OpeningParen, token.DoubleOpeningParen}, want: token.OpeningParen, text: "("},
				{skip: 2, valid: []token.Kind{token.ClosingParen}, want: token.ClosingParen, text: ")"},
			},
		},
		{
			name:  "raw_heredoc_body_is_one_literal_chunk",
			input: "<<'EOF'\nhi $there\nEOF\n",
			steps: []step{
				{valid: []token.Kind{token.HeredocArrow, token.HeredocArrowDash}, want: token.HeredocArrow},
				{valid: []token.Kind{token.HeredocStart}, want: token.HeredocStart},
				{valid: []token.Kind{token.HeredocBodyBeginning, token.SimpleHeredocBody}, want: token.SimpleHeredocBody},
				{valid: []token.Kind{token.HeredocEnd}, want: token.HeredocEnd, text: "EOF"},
			},
		},
		{
			name:  "heredoc_body_with_expansion",
			input: "<<EOF\na $x b\nEOF\n",
			steps: []step{
				{valid: []token.Kind{token.HeredocArrow, token.HeredocArrowDash}, want: token.HeredocArrow},
				{valid: []token.Kind{token.HeredocStart}, want: token.HeredocStart, text: "EOF"},
				{valid: []token.Kind{token.HeredocBodyBeginning, token.SimpleHeredocBody}, want: token.HeredocBodyBeginning},
				// The grammar lexes the $x expansion itself.
				{skip: 2, valid: []token.Kind{token.HeredocContent, token.HeredocEnd}, want: token.HeredocContent},
				{valid: []token.Kind{token.HeredocEnd}, want: token.HeredocEnd, text: "EOF"},
			},
		},
		{
			name:  "test_operator_before_expansion",
			input: "[[ -n $x ]]",
			steps: []step{
				{valid: []token.Kind{token.TestCommandStart}, want: token.TestCommandStart, text: "[["},
				{valid: []token.Kind{token.TestOperator}, want: token.TestOperator, text: "-n"},
				{valid: []token.Kind{token.BareDollar}, want: token.BareDollar, text: "$"},
				{valid: []token.Kind{token.SimpleVariableName}, want: token.SimpleVariableName, text: "x"},
				{valid: []token.Kind{token.TestCommandEnd}, want: token.TestCommandEnd, text: "]]"},
			},
		},
		{
			name:  "special_variable_name",
			input: "$?",
			steps: []step{
				{valid: []token.Kind{token.BareDollar}, want: token.BareDollar, text: "$"},
				{valid: []token.Kind{token.SpecialVariableName}, want: token.SpecialVariableName, text: "?"},
			},
		},
		{
			name:  "file_descriptor_redirect",
			input: "2>err",
			steps: []step{
				{valid: []token.Kind{token.FileDescriptor, token.VariableName}, want: token.FileDescriptor, text: "2"},
			},
		},
		{
			name:  "zsh_extended_glob_flags",
			input: "(#i)pattern",
			steps: []step{
				{valid: []token.Kind{token.ZshExtendedGlobFlags, token.OpeningParen}, want: token.ZshExtendedGlobFlags, text: "(#i)"},
			},
		},
		{
			name:  "brace_range",
			input: "{1..10}",
			steps: []step{
				{valid: []token.Kind{token.BraceStart}, want: token.BraceStart, text: "{"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSteps(t, tt.input, tt.steps)
		})
	}
}

func TestContextStackDepthTracksOpeners(t *testing.T) {
	// ${foo leaves PARAMETER open; depth is visible at serialized byte 3.
	sc, _ := runSteps(t, "${foo", []step{
		{valid: []token.Kind{token.BareDollar}, want: token.BareDollar},
		{valid: []token.Kind{token.BraceStart}, want: token.BraceStart},
	})
	buf := sc.Serialize()
	if buf[3] != 1 {
		t.Errorf("context stack depth = %d after unclosed ${, want 1", buf[3])
	}

	sc2, _ := runSteps(t, "${foo}", []step{
		{valid: []token.Kind{token.BareDollar}, want: token.BareDollar},
		{valid: []token.Kind{token.BraceStart}, want: token.BraceStart},
		{valid: []token.Kind{token.SimpleVariableName}, want: token.SimpleVariableName},
		{valid: []token.Kind{token.ClosingBrace}, want: token.ClosingBrace},
	})
	if buf2 := sc2.Serialize(); buf2[3] != 0 {
		t.Errorf("context stack depth = %d after balanced ${...}, want 0", buf2[3])
	}
}

func TestJustReturnedVariableNameFlagLifetime(t *testing.T) {
	// Serialized byte 5 is just_returned_variable_name. It must be set in
	// the invocation right after VARIABLE_NAME and cleared by the next scan.
	sc, lex := runSteps(t, "${foo#bar}", []step{
		{valid: []token.Kind{token.BareDollar}, want: token.BareDollar},
		{valid: []token.Kind{token.BraceStart}, want: token.BraceStart},
		{valid: []token.Kind{token.VariableName}, want: token.VariableName},
	})
	if buf := sc.Serialize(); buf[5] != 1 {
		t.Fatal("just_returned_variable_name not set after VARIABLE_NAME")
	}

	lex.StartToken()
	var valid token.ValidSymbols
	valid[token.HashPattern] = true
	valid[token.DoubleHashPattern] = true
	if !sc.Scan(lex, valid) {
		t.Fatal("HashPattern scan failed")
	}
	if buf := sc.Serialize(); buf[5] != 0 {
		t.Error("just_returned_variable_name still set one invocation later")
	}
}

func TestHeredocArrowVariants(t *testing.T) {
	// <<EOF vs <<-EOF: serialized heredoc allows_indent byte differs.
	for _, tt := range []struct {
		input       string
		want        token.Kind
		allowIndent byte
	}{
		{"<<EOF", token.HeredocArrow, 0},
		{"<<-EOF", token.HeredocArrowDash, 1},
	} {
		sc, _ := runSteps(t, tt.input, []step{
			{valid: []token.Kind{token.HeredocArrow, token.HeredocArrowDash}, want: tt.want},
		})
		buf := sc.Serialize()
		if buf[4] != 1 {
			t.Fatalf("%s: heredoc count = %d, want 1", tt.input, buf[4])
		}
		// Heredoc records start after the 7 fixed bytes + context stack.
		rec := buf[7+int(buf[3]):]
		if rec[2] != tt.allowIndent {
			t.Errorf("%s: allows_indent = %d, want %d", tt.input, rec[2], tt.allowIndent)
		}
	}
}

func TestHeredocStartRequiresDelimiter(t *testing.T) {
	sc := scanner.New()
	lex := lexhandle.NewStringLexer([]byte("<<\n"))

	var valid token.ValidSymbols
	valid[token.HeredocArrow] = true
	lex.StartToken()
	if !sc.Scan(lex, valid) {
		t.Fatal("HEREDOC_ARROW scan failed")
	}
	lex.SeekEnd()

	valid = token.ValidSymbols{}
	valid[token.HeredocStart] = true
	lex.StartToken()
	if sc.Scan(lex, valid) {
		t.Error("Scan produced HEREDOC_START with an empty delimiter, want false")
	}
}

func TestUnterminatedHeredocEndsAtEOF(t *testing.T) {
	runSteps(t, "<<EOF\nhello", []step{
		{valid: []token.Kind{token.HeredocArrow, token.HeredocArrowDash}, want: token.HeredocArrow},
		{valid: []token.Kind{token.HeredocStart}, want: token.HeredocStart, text: "EOF"},
		{valid: []token.Kind{token.HeredocBodyBeginning, token.SimpleHeredocBody}, want: token.SimpleHeredocBody},
	})
}

func TestScanFailureLeavesNoToken(t *testing.T) {
	sc := scanner.New()
	src := []byte("plainword")
	lex := lexhandle.NewStringLexer(src)
	lex.StartToken()

	var valid token.ValidSymbols
	valid[token.ClosingBrace] = true
	valid[token.TestCommandEnd] = true

	if sc.Scan(lex, valid) {
		t.Fatal("Scan = true for a word no requested kind matches")
	}
	lex.Rewind(0)
	if lex.Pos() != 0 {
		t.Errorf("cursor at %d after failed scan and rewind, want 0", lex.Pos())
	}
}

func TestMismatchedClosersNeverDiverge(t *testing.T) {
	// Closing tokens with nothing open must not panic and must leave the
	// stack empty; the parser probes speculatively during error recovery.
	sc := scanner.New()
	lex := lexhandle.NewStringLexer([]byte("))"))
	lex.StartToken()

	var valid token.ValidSymbols
	valid[token.ClosingDoubleParen] = true
	if !sc.Scan(lex, valid) {
		t.Fatal("CLOSING_DOUBLE_PAREN scan failed")
	}
	if buf := sc.Serialize(); buf[3] != 0 {
		t.Errorf("context depth = %d after mismatched pop, want 0", buf[3])
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	// Build a scanner with a nested context and an open heredoc, then check
	// deserialize(serialize(S)) = S by comparing re-serialized bytes.
	sc, _ := runSteps(t, "${foo#<<-DELIM", []step{
		{valid: []token.Kind{token.BareDollar}, want: token.BareDollar},
		{valid: []token.Kind{token.BraceStart}, want: token.BraceStart},
		{valid: []token.Kind{token.VariableName}, want: token.VariableName},
	})

	before := sc.Serialize()
	if before == nil {
		t.Fatal("Serialize returned nil for a small state")
	}

	restored := scanner.New()
	restored.Deserialize(before)
	after := restored.Serialize()

	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("serialize/deserialize not identity (-before +after):\n%s", diff)
	}
}

func TestSerializeRoundTripWithHeredocs(t *testing.T) {
	sc, _ := runSteps(t, "<<-STOP\n", []step{
		{valid: []token.Kind{token.HeredocArrow, token.HeredocArrowDash}, want: token.HeredocArrowDash},
		{valid: []token.Kind{token.HeredocStart}, want: token.HeredocStart, text: "STOP"},
	})

	before := sc.Serialize()
	restored := scanner.New()
	restored.Deserialize(before)
	after := restored.Serialize()

	if !bytes.Equal(before, after) {
		t.Errorf("heredoc state did not survive round trip:\nbefore %v\nafter  %v", before, after)
	}
	if got := restored.PendingHeredocDelimiters(); len(got) != 1 || got[0] != "STOP" {
		t.Errorf("restored delimiters = %v, want [STOP]", got)
	}
}

func TestDeserializeEmptyResets(t *testing.T) {
	sc, _ := runSteps(t, "${x", []step{
		{valid: []token.Kind{token.BareDollar}, want: token.BareDollar},
		{valid: []token.Kind{token.BraceStart}, want: token.BraceStart},
	})

	sc.Deserialize(nil)

	fresh := scanner.New()
	if diff := cmp.Diff(fresh.Serialize(), sc.Serialize()); diff != "" {
		t.Errorf("deserialize(empty) != fresh scanner (-fresh +reset):\n%s", diff)
	}
}

func TestSerializeOverflowReturnsNil(t *testing.T) {
	// A heredoc delimiter longer than the serialization buffer cannot fit;
	// Serialize must decline rather than truncate.
	big := make([]byte, 1100)
	for i := range big {
		big[i] = 'A'
	}
	src := append([]byte("<<"), big...)
	src = append(src, '\n')

	sc, _ := runSteps(t, string(src), []step{
		{valid: []token.Kind{token.HeredocArrow, token.HeredocArrowDash}, want: token.HeredocArrow},
		{valid: []token.Kind{token.HeredocStart}, want: token.HeredocStart},
	})
	if got := sc.Serialize(); got != nil {
		t.Errorf("Serialize returned %d bytes for oversized state, want nil", len(got))
	}
}

// FuzzSerializeRoundTrip drives the scanner over arbitrary bytes with the
// standalone driver, then checks that whatever state it reached survives a
// serialize/deserialize/serialize cycle bit-exactly.
func FuzzSerializeRoundTrip(f *testing.F) {
	f.Add([]byte("$foo"))
	f.Add([]byte("${a/b/c}"))
	f.Add([]byte("<<-EOF\n\thello\n\tEOF\n"))
	f.Add([]byte("[[ -f x ]] && echo ${y#z}"))
	f.Add([]byte("cat <<'RAW'\n$not expanded\nRAW\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 4096 {
			return
		}
		fs := driver.ScanFile(data)
		if fs.FinalState == nil {
			// State too large for the host buffer; nothing to round-trip.
			return
		}
		restored := scanner.New()
		restored.Deserialize(fs.FinalState)
		again := restored.Serialize()
		if !bytes.Equal(fs.FinalState, again) {
			t.Errorf("round trip mismatch:\nfirst  %v\nsecond %v", fs.FinalState, again)
		}
	})
}

package lexhandle

import "testing"

func TestScanWord(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantOK  bool
		restPos int
	}{
		{"bare_word", "EOF rest", "EOF", true, 3},
		{"stops_at_tab", "word\tmore", "word", true, 4},
		{"single_quoted", "'hello world' x", "hello world", true, 13},
		{"double_quoted", `"two words" x`, "two words", true, 11},
		{"escape_includes_next", `a\ b c`, "a b", true, 4},
		{"empty_input", "", "", false, 0},
		{"only_whitespace", " ", "", false, 0},
		{"quoted_empty", "''", "", false, 2},
		{"quote_stops_at_newline", "'ab\ncd'", "ab", true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lex := NewStringLexer([]byte(tt.input))
			got, ok := ScanWord(lex)
			if ok != tt.wantOK {
				t.Fatalf("ScanWord(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ScanWord(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if tt.wantOK && lex.Pos() != tt.restPos {
				t.Errorf("ScanWord(%q) left cursor at %d, want %d", tt.input, lex.Pos(), tt.restPos)
			}
		})
	}
}

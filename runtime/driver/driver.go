// Package driver runs the external scanner to exhaustion over in-memory
// source bytes, without a real parser attached. A grammar supplies a
// precise valid-symbol bitmap on every invocation; this standalone driver
// approximates one well enough to produce a useful token stream: it
// withholds the kinds only specific grammar rules ever request, sequences
// the heredoc kinds the way the grammar would, and suppresses, per
// position, zero-width kinds already produced there so the cascade keeps
// making progress. The tokens CLI subcommand, the watch subcommand's
// incremental rescan, and the snapshot golden files are all built on it.
package driver

import (
	"bytes"

	"github.com/zshscan/zshscan/core/lexhandle"
	"github.com/zshscan/zshscan/core/token"
	"github.com/zshscan/zshscan/runtime/scanner"
)

// Token is one scanner-produced token with its byte range in the source.
type Token struct {
	Kind  token.Kind
	Start int
	End   int
	Text  string
}

// Checkpoint is the scanner's serialized state at a line boundary, the
// granularity the watch subcommand resumes incremental rescans from.
type Checkpoint struct {
	Offset int
	State  []byte
}

// FileScan is the result of driving the scanner over a whole file: the
// token stream, the per-line state checkpoints collected along the way, and
// the heredocs left dangling at EOF.
type FileScan struct {
	Source          []byte
	Tokens          []Token
	Checkpoints     []Checkpoint
	FinalState      []byte
	PendingHeredocs []string
}

// ScanFile drives a fresh scanner over src from the beginning.
func ScanFile(src []byte) *FileScan {
	sc := scanner.New()
	toks, cps, pending := run(sc, src, 0)
	return &FileScan{
		Source:          src,
		Tokens:          toks,
		Checkpoints:     cps,
		FinalState:      sc.Serialize(),
		PendingHeredocs: pending,
	}
}

// Rescan re-scans an edited version of the file, resuming from the latest
// checkpoint at or before the first line that changed instead of starting
// over. It returns the stitched full-file result and the tokens produced by
// the resumed suffix scan alone. This is the serialize/deserialize contract
// exercised the way an embedding incremental parser would use it.
func (f *FileScan) Rescan(src []byte) (*FileScan, []Token) {
	off := commonLinePrefix(f.Source, src)

	cp := Checkpoint{}
	for _, c := range f.Checkpoints {
		if c.Offset <= off && c.Offset > cp.Offset {
			cp = c
		}
	}

	sc := scanner.New()
	sc.Deserialize(cp.State)
	suffixToks, suffixCps, pending := run(sc, src[cp.Offset:], cp.Offset)

	next := &FileScan{
		Source:          src,
		FinalState:      sc.Serialize(),
		PendingHeredocs: pending,
	}
	// Tokens at or past the checkpoint offset belong to the resumed scan,
	// which re-produces them.
	for _, t := range f.Tokens {
		if t.Start < cp.Offset && t.End <= cp.Offset {
			next.Tokens = append(next.Tokens, t)
		}
	}
	next.Tokens = append(next.Tokens, suffixToks...)
	for _, c := range f.Checkpoints {
		if c.Offset <= cp.Offset {
			next.Checkpoints = append(next.Checkpoints, c)
		}
	}
	for _, c := range suffixCps {
		if c.Offset > cp.Offset {
			next.Checkpoints = append(next.Checkpoints, c)
		}
	}
	return next, suffixToks
}

// validFor builds the per-invocation bitmap. Kinds that only make sense
// when a specific grammar rule requests them are withheld: offering CONCAT,
// EXPANSION_WORD, or the regex variants everywhere would shadow the arms an
// ordinary position reaches. The heredoc kinds are sequenced the way a
// grammar would: HEREDOC_START until the delimiter is captured, the body
// kinds after.
func validFor(sc *scanner.Scanner) token.ValidSymbols {
	v := token.All()
	v[token.Concat] = false
	v[token.ExpansionWord] = false
	v[token.Regex] = false
	v[token.RegexNoSlash] = false
	v[token.RegexNoSpace] = false

	if delims := sc.PendingHeredocDelimiters(); len(delims) > 0 {
		if delims[len(delims)-1] == "" {
			v[token.SimpleHeredocBody] = false
			v[token.HeredocBodyBeginning] = false
			v[token.HeredocContent] = false
			v[token.HeredocEnd] = false
		} else {
			v[token.HeredocStart] = false
		}
	}
	return v
}

// run drives sc over src, reporting token offsets shifted by base. A
// checkpoint is recorded whenever a token starts directly after a newline.
// The returned pending list holds delimiters of heredocs opened but never
// closed, which survive even though the scanner drops an unterminated
// record from its registry at EOF.
func run(sc *scanner.Scanner, src []byte, base int) ([]Token, []Checkpoint, []string) {
	lex := lexhandle.NewStringLexer(src)
	var toks []Token
	var cps []Checkpoint
	pending := append([]string(nil), sc.PendingHeredocDelimiters()...)

	// Zero-width kinds already emitted at the current position; offering
	// them again would loop forever. zeroWidthAt remembers where each kind
	// last produced a zero-width token, so a re-scan reaching the same
	// offset from an earlier position doesn't duplicate it.
	var suppress token.ValidSymbols
	zeroWidthAt := make(map[token.Kind]int)

	for {
		start := lex.Pos()
		stateBefore := sc.Serialize()
		lex.StartToken()

		valid := validFor(sc)
		for k := range valid {
			if suppress[k] {
				valid[k] = false
			}
		}

		if !sc.Scan(lex, valid) {
			lex.Rewind(start)
			suppress = token.ValidSymbols{}
			if lex.EOF() {
				break
			}
			// No arm claimed this byte; it belongs to the context-free
			// grammar. Step over it and keep going.
			lex.Advance(false)
			continue
		}

		end := lex.End()
		kind := lex.Result()
		tokStart := lex.Start()
		if tokStart > end {
			tokStart = end
		}
		// NEWLINE consumes its newlines as skipped bytes; report the token
		// as spanning them rather than as an empty token after them.
		if kind == token.Newline && tokStart > start {
			tokStart = start
		}

		if end == tokStart {
			if prev, ok := zeroWidthAt[kind]; !ok || prev != base+tokStart {
				zeroWidthAt[kind] = base + tokStart
				toks = append(toks, Token{Kind: kind, Start: base + tokStart, End: base + end})
			}
			suppress[kind] = true
			// The first-chunk heredoc arm runs when either of its two kinds
			// is valid, so a zero-width result withholds both.
			if kind == token.SimpleHeredocBody || kind == token.HeredocBodyBeginning {
				suppress[token.SimpleHeredocBody] = true
				suppress[token.HeredocBodyBeginning] = true
			}
			lex.Rewind(start)
			continue
		}

		toks = append(toks, Token{Kind: kind, Start: base + tokStart, End: base + end, Text: string(src[tokStart:end])})
		suppress = token.ValidSymbols{}
		lex.SeekEnd()

		switch kind {
		case token.HeredocStart:
			if d := sc.PendingHeredocDelimiters(); len(d) > 0 {
				pending = append(pending, d[len(d)-1])
			}
		case token.HeredocEnd:
			if len(pending) > 0 {
				pending = pending[:len(pending)-1]
			}
		}

		if tokStart > 0 && src[tokStart-1] == '\n' && stateBefore != nil {
			if len(cps) == 0 || cps[len(cps)-1].Offset < base+tokStart {
				cps = append(cps, Checkpoint{Offset: base + tokStart, State: stateBefore})
			}
		}
	}
	return toks, cps, pending
}

// Column returns the 0-based byte column of offset within src: bytes since
// the last newline, matching the lexer handle's column contract.
func Column(src []byte, offset int) int {
	col := 0
	for i := offset - 1; i >= 0 && src[i] != '\n'; i-- {
		col++
	}
	return col
}

// commonLinePrefix returns the offset of the start of the first line on
// which a and b differ.
func commonLinePrefix(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return bytes.LastIndexByte(a[:i], '\n') + 1
}

// Package heredoc implements the here-document state machine that spans
// parser invocations: a FIFO-ish registry of pending/in-body heredocs, and
// the body/end-delimiter scanning that drives HEREDOC_START, the two
// first-chunk token kinds, and the two continuation-chunk token kinds.
package heredoc

import (
	"unicode"

	"github.com/zshscan/zshscan/core/lexhandle"
	"github.com/zshscan/zshscan/core/token"
)

// Record is one pending or open here-document.
type Record struct {
	IsRaw        bool // delimiter was quoted: no expansions permitted inside body
	Started      bool // body has begun
	AllowsIndent bool // <<- form: leading whitespace stripped before delimiter comparison
	delimiter    buffer
	leadingWord  buffer // scratch buffer used during end-of-heredoc detection
}

// Delimiter returns the captured terminator word.
func (r *Record) Delimiter() string {
	return r.delimiter.String()
}

// SetDelimiter restores the terminator word, used by Scanner.Deserialize.
func (r *Record) SetDelimiter(s string) {
	r.delimiter.set(s)
}

func (r *Record) reset() {
	r.IsRaw = false
	r.Started = false
	r.AllowsIndent = false
	r.delimiter.reset()
	r.leadingWord.reset()
}

// Registry is the queue of pending here-documents. New records are appended
// each time the scanner emits HEREDOC_ARROW or HEREDOC_ARROW_DASH; the back
// of the queue is the active one for body scanning. Real shells process
// multiple heredocs on one line in the order they were opened (FIFO); this
// scanner simplifies to always targeting the most recently opened record.
type Registry struct {
	records []*Record
}

// Push appends a new pending record (AllowsIndent set by the caller before
// or after, per which arrow token was emitted) and returns it.
func (r *Registry) Push() *Record {
	rec := &Record{}
	r.records = append(r.records, rec)
	return rec
}

// Back returns the most recently opened record, or nil if none are pending.
func (r *Registry) Back() *Record {
	if len(r.records) == 0 {
		return nil
	}
	return r.records[len(r.records)-1]
}

// At returns the i-th pending record in insertion order, used when
// serializing the registry.
func (r *Registry) At(i int) *Record {
	return r.records[i]
}

// Len reports the number of pending/open heredocs.
func (r *Registry) Len() int {
	return len(r.records)
}

// Pop removes the most recently opened record once its end delimiter has
// been matched.
func (r *Registry) Pop() {
	if len(r.records) == 0 {
		return
	}
	r.records = r.records[:len(r.records)-1]
}

// Reset clears every pending record back to zero, used by Scanner.Reset and
// deserialize(length=0).
func (r *Registry) Reset() {
	for _, rec := range r.records {
		rec.reset()
	}
	r.records = r.records[:0]
}

// ScanStart captures the delimiter word for a newly opened heredoc.
func ScanStart(rec *Record, lex lexhandle.LexerHandle) bool {
	for unicode.IsSpace(rune(lex.Lookahead())) {
		lex.Advance(true)
	}

	lex.SetResult(token.HeredocStart)
	la := lex.Lookahead()
	rec.IsRaw = la == '\'' || la == '"' || la == '\\'

	word, found := lexhandle.ScanWord(lex)
	if !found {
		rec.delimiter.reset()
		return false
	}
	rec.delimiter.set(word)
	return true
}

// scanEndIdentifier scans the first N bytes on the current line, where N is
// the delimiter's length, and reports whether they match it exactly.
func scanEndIdentifier(rec *Record, lex lexhandle.LexerHandle) bool {
	rec.leadingWord.reset()
	delim := rec.delimiter.bytes()
	if len(delim) > 0 {
		for lex.Lookahead() != 0 && lex.Lookahead() != '\n' &&
			rec.leadingWord.len() < len(delim) &&
			delim[rec.leadingWord.len()] == lex.Lookahead() {
			rec.leadingWord.push(lex.Lookahead())
			lex.Advance(false)
		}
	}
	if len(delim) == 0 {
		return false
	}
	return rec.leadingWord.equalString(rec.Delimiter())
}

// ScanEndIdentifier is the exported form used directly by the dispatch arm
// that checks HEREDOC_END independent of whether the body scan is active.
func ScanEndIdentifier(rec *Record, lex lexhandle.LexerHandle) bool {
	return scanEndIdentifier(rec, lex)
}

// ScanContent scans one chunk of a heredoc body: either the first chunk
// (middleType=HeredocBodyBeginning, endType=SimpleHeredocBody) or a
// continuation chunk (middleType=HeredocContent, endType=HeredocEnd).
func ScanContent(reg *Registry, lex lexhandle.LexerHandle, middleType, endType token.Kind) bool {
	rec := reg.Back()
	if rec == nil {
		return false
	}
	didAdvance := false

	for {
		switch lex.Lookahead() {
		case 0:
			if lex.EOF() && didAdvance {
				rec.reset()
				reg.Pop()
				lex.SetResult(endType)
				return true
			}
			return false

		case '\\':
			didAdvance = true
			lex.Advance(false)
			lex.Advance(false)

		case '$':
			if rec.IsRaw {
				didAdvance = true
				lex.Advance(false)
				continue
			}
			if didAdvance {
				lex.MarkEnd()
				lex.SetResult(middleType)
				rec.Started = true
				lex.Advance(false)
				la := lex.Lookahead()
				if unicode.IsLetter(rune(la)) || la == '{' || la == '(' {
					return true
				}
				continue
			}
			if middleType == token.HeredocBodyBeginning && lex.Column() == 0 {
				lex.SetResult(middleType)
				rec.Started = true
				return true
			}
			return false

		case '\n':
			if !didAdvance {
				lex.Advance(true)
			} else {
				lex.Advance(false)
			}
			didAdvance = true
			if rec.AllowsIndent {
				for unicode.IsSpace(rune(lex.Lookahead())) {
					lex.Advance(false)
				}
			}
			var resolved token.Kind
			if rec.Started {
				resolved = middleType
			} else {
				resolved = endType
			}
			lex.SetResult(resolved)
			lex.MarkEnd()
			if scanEndIdentifier(rec, lex) {
				if resolved == token.HeredocEnd {
					reg.Pop()
				}
				return true
			}

		default:
			if lex.Column() == 0 {
				for unicode.IsSpace(rune(lex.Lookahead())) {
					if didAdvance {
						lex.Advance(false)
					} else {
						lex.Advance(true)
					}
				}
				if endType != token.SimpleHeredocBody {
					lex.SetResult(middleType)
					if scanEndIdentifier(rec, lex) {
						return true
					}
				}
				if endType == token.SimpleHeredocBody {
					lex.SetResult(endType)
					lex.MarkEnd()
					if scanEndIdentifier(rec, lex) {
						return true
					}
				}
			}
			didAdvance = true
			lex.Advance(false)
		}
	}
}

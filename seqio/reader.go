/*
Package seqio reads sequence records from FASTA-like input streams and
normalizes their sequences for folding.
*/
package seqio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tsjzz/rnafold/checks"
)

// Record is one input unit: an optional header, the raw sequence, and any
// trailing lines (structure constraints when constraint mode is active).
// A record is owned by the iteration that read it.
type Record struct {
	// ID is the free-text header without the leading marker, empty when the
	// record had no header.
	ID string
	// HasHeader distinguishes an empty header from a missing one.
	HasHeader bool
	// Sequence is the raw sequence as read, case preserved.
	Sequence string
	// Rest holds the trailing lines following the sequence, in input order.
	Rest []string
}

// ParseError reports a malformed record unit. It is recoverable: the caller
// may skip the unit and read on.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("skipping %q: %s", e.Line, e.Reason)
}

// Reader parses a stream of records. When CollectRest is set, lines between
// a sequence and the next record are collected into Record.Rest; otherwise
// they terminate the record and are skipped.
type Reader struct {
	scanner     *bufio.Scanner
	collectRest bool
	pending     *string
	err         error
}

// NewReader returns a reader over r. collectRest enables trailing-line
// collection for constraint mode.
func NewReader(r io.Reader, collectRest bool) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{scanner: sc, collectRest: collectRest}
}

func (r *Reader) nextLine() (string, bool) {
	if r.pending != nil {
		line := *r.pending
		r.pending = nil
		return line, true
	}
	if r.err != nil {
		return "", false
	}
	if !r.scanner.Scan() {
		r.err = r.scanner.Err()
		if r.err == nil {
			r.err = io.EOF
		}
		return "", false
	}
	return r.scanner.Text(), true
}

func (r *Reader) unreadLine(line string) {
	r.pending = &line
}

// Next returns the next record, or io.EOF when the stream is exhausted.
// Malformed units are reported as errors the caller may choose to skip.
func (r *Reader) Next() (*Record, error) {
	rec := &Record{}

	// skip blank lines between records
	var line string
	var ok bool
	for {
		line, ok = r.nextLine()
		if !ok {
			return nil, r.sourceErr()
		}
		if strings.TrimSpace(line) != "" {
			break
		}
	}

	if strings.HasPrefix(line, ">") {
		rec.HasHeader = true
		rec.ID = strings.TrimSpace(line[1:])
		line, ok = r.nextLine()
		if !ok {
			return nil, &ParseError{Line: rec.ID, Reason: "record has no sequence line"}
		}
	}

	seq := strings.TrimSpace(line)
	if !checks.IsNucleotideSequence(seq) {
		return nil, &ParseError{Line: seq, Reason: "not a nucleotide sequence"}
	}
	rec.Sequence = seq

	// gather trailing lines up to the next record
	for {
		line, ok = r.nextLine()
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, ">") {
			r.unreadLine(line)
			break
		}
		if trimmed == "" {
			break
		}
		// an additional sequence line extends the sequence of a headered
		// record; anything else belongs to the rest
		if rec.HasHeader && len(rec.Rest) == 0 && checks.IsNucleotideSequence(trimmed) &&
			!checks.IsConstraintLine(trimmed) {
			rec.Sequence += trimmed
			continue
		}
		if !r.collectRest {
			if checks.IsNucleotideSequence(trimmed) && !checks.IsConstraintLine(trimmed) {
				// start of the next headerless record
				r.unreadLine(line)
				break
			}
			// rest collection is off, drop the line
			continue
		}
		rec.Rest = append(rec.Rest, trimmed)
	}

	return rec, nil
}

func (r *Reader) sourceErr() error {
	if r.err != nil {
		return r.err
	}
	return io.EOF
}

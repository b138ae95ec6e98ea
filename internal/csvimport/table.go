package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoDelimiter is returned when no candidate delimiter splits the sample
// into a consistent table.
var ErrNoDelimiter = errors.New("csvimport: could not detect a delimiter")

const sniffBytes = 4096

var candidates = []rune{',', ';', '\t', '|'}

// TableError is a problem with the shape of the table or a single cell.
type TableError struct {
	Line    int
	Column  string
	Message string
}

func (e TableError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// TableErrors collects every table problem found in one pass.
type TableErrors []TableError

func (es TableErrors) Error() string {
	switch len(es) {
	case 0:
		return "no table errors"
	case 1:
		return "csvimport: " + es[0].Error()
	}
	return fmt.Sprintf("csvimport: %s (and %d more)", es[0].Error(), len(es)-1)
}

// SniffDelimiter picks the candidate delimiter whose count on the header
// line is repeated on the most lines of the sample. Ties go to the higher
// count, then to candidate order.
func SniffDelimiter(data []byte) (rune, error) {
	sample := data
	truncated := false
	if len(sample) > sniffBytes {
		sample, truncated = sample[:sniffBytes], true
	}
	lines := strings.Split(strings.ReplaceAll(string(sample), "\r\n", "\n"), "\n")
	if truncated && len(lines) > 1 {
		lines = lines[:len(lines)-1]
	}
	var nonEmpty []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			nonEmpty = append(nonEmpty, l)
		}
	}
	if len(nonEmpty) == 0 {
		return 0, ErrNoDelimiter
	}

	var best rune
	bestCount, bestScore := 0, 0
	for _, c := range candidates {
		n := countOutsideQuotes(nonEmpty[0], c)
		if n == 0 {
			continue
		}
		score := 0
		for _, l := range nonEmpty {
			if countOutsideQuotes(l, c) == n {
				score++
			}
		}
		if score > bestScore || (score == bestScore && n > bestCount) {
			best, bestCount, bestScore = c, n, score
		}
	}
	if bestCount == 0 {
		return 0, ErrNoDelimiter
	}
	return best, nil
}

func countOutsideQuotes(line string, c rune) int {
	n, quoted := 0, false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == c && !quoted:
			n++
		}
	}
	return n
}

// record is one CSV record and the line it started on.
type record struct {
	line   int
	fields []string
}

// readTable splits data with delim and checks the table shape: non-empty
// header cells, the header's column count on every row and no line breaks
// inside cells.
func readTable(data []byte, delim rune) ([]record, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1

	var recs []record
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvimport: read: %w", err)
		}
		line, _ := r.FieldPos(0)
		recs = append(recs, record{line: line, fields: fields})
	}
	if len(recs) == 0 {
		return nil, TableErrors{{Line: 1, Message: "file is empty"}}
	}

	var errs TableErrors
	header := recs[0]
	for i, cell := range header.fields {
		if strings.TrimSpace(cell) == "" {
			errs = append(errs, TableError{Line: header.line, Message: fmt.Sprintf("header cell %d is empty", i+1)})
		}
	}
	for _, rec := range recs {
		for i, cell := range rec.fields {
			if strings.ContainsAny(cell, "\r\n") {
				errs = append(errs, TableError{Line: rec.line, Message: fmt.Sprintf("cell %d contains a new line character", i+1)})
			}
		}
		if len(rec.fields) != len(header.fields) {
			errs = append(errs, TableError{Line: rec.line,
				Message: fmt.Sprintf("row has %d columns, header has %d", len(rec.fields), len(header.fields))})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return recs, nil
}

// Package formulalist provides a streaming reader for batch formula lists
package formulalist

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ChrisMcGann/masscalc/pkg/core"
	"github.com/ChrisMcGann/masscalc/pkg/formula"
)

// Entry is one compound of a formula list.
type Entry struct {
	Line    int
	Name    string
	Formula core.Formula // neutral molecule, before any adduct
	Adduct  string       // optional adduct name, e.g. "[M+H]+"
}

// Reader provides streaming access to formula list files. The expected
// layout is a header line followed by "Name,Formula[,Adduct]" rows. Blank
// lines and lines starting with '#' are skipped.
type Reader struct {
	scanner *bufio.Scanner
	lineNum int
	header  bool
	current *Entry
	err     error
}

// NewReader creates a new formula list reader
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
	}
}

// Next advances to the next entry. Returns false when no more entries or error.
func (r *Reader) Next() bool {
	r.current = nil

	entry, err := r.readEntry()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.current = entry
	return true
}

// Entry returns the current entry
func (r *Reader) Entry() *Entry {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadAll drains the reader.
func (r *Reader) ReadAll() ([]*Entry, error) {
	var entries []*Entry
	for r.Next() {
		entries = append(entries, r.Entry())
	}
	return entries, r.Err()
}

func (r *Reader) readEntry() (*Entry, error) {
	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Skip header line
		if !r.header {
			r.header = true
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("line %d: expected at least 2 fields (Name,Formula), got %d", r.lineNum, len(parts))
		}

		name := strings.TrimSpace(parts[0])
		formulaStr := strings.TrimSpace(parts[1])
		if formulaStr == "" {
			return nil, fmt.Errorf("line %d: formula is required", r.lineNum)
		}

		f, err := formula.Parse(formulaStr)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
		}
		if name == "" {
			name = formula.Hill(f)
		}

		entry := &Entry{
			Line:    r.lineNum,
			Name:    name,
			Formula: f,
		}
		if len(parts) > 2 {
			entry.Adduct = strings.TrimSpace(parts[2])
		}
		return entry, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	return nil, io.EOF
}

package dataprocessing

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RowSource yields the header and then each data row of a log export.
// Next returns io.EOF once the rows are exhausted.
type RowSource interface {
	Header() []string
	Next() ([]string, error)
}

// Tokenizer reads comma-separated rows lazily, one line per row. Fields are
// trimmed and blank rows are skipped. It cannot be restarted.
type Tokenizer struct {
	reader  *bufio.Reader
	header  []string
	pending []string
	line    int
	done    bool
}

// NewTokenizer reads the header and peeks the first data row so that an
// empty or header-only input fails up front with a *MalformedInputError.
func NewTokenizer(r io.Reader) (*Tokenizer, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	t := &Tokenizer{reader: br}

	header, err := t.read()
	if err == io.EOF {
		return nil, newMalformed("no header row", nil)
	}
	if err != nil {
		return nil, err
	}
	t.header = header

	first, err := t.read()
	if err == io.EOF {
		return nil, &MalformedInputError{Reason: "no data rows", Line: t.line}
	}
	if err != nil {
		return nil, err
	}
	t.pending = first

	return t, nil
}

// Header returns the header row. Its content is not checked against a schema.
func (t *Tokenizer) Header() []string {
	return t.header
}

// Next returns the next data row or io.EOF.
func (t *Tokenizer) Next() ([]string, error) {
	if t.pending != nil {
		row := t.pending
		t.pending = nil
		return row, nil
	}
	if t.done {
		return nil, io.EOF
	}
	return t.read()
}

func (t *Tokenizer) read() ([]string, error) {
	for !t.done {
		line, err := t.reader.ReadString('\n')
		if err == io.EOF {
			t.done = true
			if line == "" {
				break
			}
		} else if err != nil {
			t.done = true
			return nil, err
		}
		t.line++

		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		return splitFields(line), nil
	}
	return nil, io.EOF
}

// splitFields splits one line on commas. A field opening with a quote runs
// to the next quote that is followed only by blanks and a comma or the end
// of the line; "" inside it is a literal quote. Any other quote is literal,
// and an unclosed quote takes the rest of the line. Fields are trimmed.
func splitFields(line string) []string {
	var fields []string
	i := 0
	for {
		for i < len(line) && isBlank(line[i]) {
			i++
		}

		var field string
		if i < len(line) && line[i] == '"' {
			field, i = quotedField(line, i+1)
		} else {
			end := strings.IndexByte(line[i:], ',')
			if end < 0 {
				end = len(line) - i
			}
			field = line[i : i+end]
			i += end
		}
		fields = append(fields, strings.TrimSpace(field))

		if i >= len(line) {
			return fields
		}
		i++ // comma
	}
}

// quotedField scans from just past the opening quote and returns the field
// and the index of the separating comma or len(line).
func quotedField(line string, i int) (string, int) {
	var b strings.Builder
	for i < len(line) {
		c := line[i]
		if c != '"' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(line) && line[i+1] == '"' {
			b.WriteByte('"')
			i += 2
			continue
		}
		j := i + 1
		for j < len(line) && isBlank(line[j]) {
			j++
		}
		if j == len(line) || line[j] == ',' {
			return b.String(), j
		}
		b.WriteByte('"')
		i++
	}
	return b.String(), len(line)
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

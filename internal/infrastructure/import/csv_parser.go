package csvimport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Parser reads a CSV file with a header row. Header names are matched case
// insensitively and fields are trimmed.
type Parser struct {
	delimiter  rune
	headers    []string
	headerMap  map[string]int
	currentRow int
	reader     *csv.Reader
}

// ParserOption is a functional option for Parser configuration
type ParserOption func(*Parser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) {
		p.delimiter = d
	}
}

// NewParser strips a UTF-8 BOM and rejects empty or non UTF-8 input
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		delimiter: ',',
		headerMap: make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}

	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	if err := validateUTF8(br); err != nil {
		return nil, err
	}

	p.reader = csv.NewReader(br)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1
	return p, nil
}

func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return ErrEmptyFile
	}
	// a multi-byte rune may be cut at the peek boundary
	if len(content) == checkSize {
		for i := 0; i < utf8.UTFMax && len(content) > 0 && !utf8.Valid(content); i++ {
			content = content[:len(content)-1]
		}
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}

// ParseHeader reads the header row
func (p *Parser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, 0, len(record))
	for i, h := range record {
		name := strings.ToLower(strings.TrimSpace(h))
		p.headers = append(p.headers, name)
		if name != "" {
			p.headerMap[name] = i
		}
	}
	if len(p.headerMap) == 0 {
		return ErrMissingHeader
	}
	p.currentRow = 1
	return nil
}

// Headers returns the normalized header names in file order
func (p *Parser) Headers() []string {
	return p.headers
}

// HasHeader checks if a column exists
func (p *Parser) HasHeader(name string) bool {
	_, ok := p.headerMap[name]
	return ok
}

// MissingHeaders returns the required columns absent from the header row
func (p *Parser) MissingHeaders(required ...string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// ReadRow returns the next record or io.EOF
func (p *Parser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}

	row := &Row{Line: p.currentRow, data: make(map[string]string, len(p.headers))}
	for i, header := range p.headers {
		if header == "" || i >= len(record) {
			continue
		}
		row.data[header] = strings.TrimSpace(record[i])
	}
	return row, nil
}

// ReadAll returns the remaining non-empty rows
func (p *Parser) ReadAll() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if !row.IsEmpty() {
			rows = append(rows, row)
		}
	}
}

// Row is one data record keyed by header name. Line is the 1-based line in
// the file, the header being line 1.
type Row struct {
	Line int
	data map[string]string
}

// Get returns the value of a column or ""
func (r *Row) Get(column string) string {
	return r.data[column]
}

// IsEmpty reports whether every field is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.data {
		if v != "" {
			return false
		}
	}
	return true
}

// Columns returns the columns of the row starting with prefix
func (r *Row) Columns(prefix string) []string {
	var cols []string
	for k := range r.data {
		if strings.HasPrefix(k, prefix) {
			cols = append(cols, k)
		}
	}
	return cols
}

// Bool parses a boolean column. Blank yields def.
func (r *Row) Bool(column string, def bool) (bool, *RowError) {
	v := r.Get(column)
	if v == "" {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "true", "yes", "y", "1":
		return true, nil
	case "false", "no", "n", "0":
		return false, nil
	}
	return def, r.invalid(column, "must be true or false")
}

// Int parses a non-negative integer column. Blank yields 0.
func (r *Row) Int(column string) (int, *RowError) {
	v := r.Get(column)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, r.invalid(column, "must be a non-negative integer")
	}
	return n, nil
}

// Decimal parses a non-negative amount. ok is false when the column is blank.
func (r *Row) Decimal(column string) (d decimal.Decimal, ok bool, rowErr *RowError) {
	v := r.Get(column)
	if v == "" {
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false, r.invalid(column, "must be a non-negative number")
	}
	return d, true, nil
}

// Required reports a missing value
func (r *Row) Required(column string) *RowError {
	if r.Get(column) != "" {
		return nil
	}
	e := NewRowError(r.Line, column, ErrCodeRequiredField, "is required")
	return &e
}

func (r *Row) invalid(column, message string) *RowError {
	e := NewRowErrorWithValue(r.Line, column, ErrCodeInvalidFormat, message, r.Get(column))
	return &e
}

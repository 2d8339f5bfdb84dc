// Package tsv decodes tab-separated dataset extracts into fixed-width records.
//
// The decoder streams physical lines: one record per Next call, fields split
// on tabs with no quoting or escaping. The first line is always a header and
// is dropped without inspection. The two-character token `\N` marks a null
// field.
package tsv

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/guregu/null"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NullToken is the dataset's textual null marker.
const NullToken = `\N`

// Record is one decoded line aligned to a table width. An invalid element is
// a null value.
type Record []null.String

// Values returns the record as driver arguments: string for present values,
// nil for nulls.
func (r Record) Values() []any {
	out := make([]any, len(r))
	for i, f := range r {
		if f.Valid {
			out[i] = f.String
		}
	}
	return out
}

// Normalize maps NullToken to null and reconciles len(fields) to width:
// longer rows are truncated, shorter rows are right-padded with nulls.
func Normalize(fields []string, width int) Record {
	if width < 0 {
		width = 0
	}
	rec := make(Record, width)
	n := len(fields)
	if n > width {
		n = width
	}
	for i := 0; i < n; i++ {
		if fields[i] == NullToken {
			continue
		}
		rec[i] = null.StringFrom(fields[i])
	}
	return rec
}

// Decoder reads Records from a TSV stream.
type Decoder struct {
	r          *bufio.Reader
	width      int
	line       int
	headerDone bool
}

// NewDecoder returns a Decoder producing records of the given width. A UTF-8
// byte order mark at the start of r is stripped.
func NewDecoder(r io.Reader, width int) *Decoder {
	br := bufio.NewReaderSize(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()), 4<<20)
	return &Decoder{r: br, width: width}
}

// Next returns the next data record or io.EOF when the input is exhausted.
// Every physical line is one record: quotes are ordinary characters and a
// blank line decodes to an all-null record.
func (d *Decoder) Next() (Record, error) {
	if !d.headerDone {
		d.headerDone = true
		if _, err := d.readLine(); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read header: %w", err)
		}
	}
	line, err := d.readLine()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("tsv line %d: %w", d.line+1, err)
	}
	if line == "" {
		return Normalize(nil, d.width), nil
	}
	return Normalize(strings.Split(line, "\t"), d.width), nil
}

// readLine returns the next line without its LF or CRLF terminator. A final
// line without a terminator is still returned; io.EOF means nothing is left.
func (d *Decoder) readLine() (string, error) {
	s, err := d.r.ReadString('\n')
	if err != nil && !(err == io.EOF && s != "") {
		return "", err
	}
	d.line++
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

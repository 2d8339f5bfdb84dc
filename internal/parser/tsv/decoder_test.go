package tsv

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/guregu/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) null.String { return null.StringFrom(s) }

var absent = null.String{}

func readAll(t *testing.T, d *Decoder) []Record {
	t.Helper()
	var out []Record
	for {
		rec, err := d.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, rec)
	}
}

func TestNormalize_NullRoundTrip(t *testing.T) {
	t.Parallel()

	in := []string{`\N`, "", "x", `\\N`, `N`, ` \N`, "日本"}
	rec := Normalize(in, len(in))

	require.Len(t, rec, len(in))
	for i, f := range in {
		if f == NullToken {
			assert.False(t, rec[i].Valid, "field %d should be null", i)
			continue
		}
		assert.True(t, rec[i].Valid, "field %d should be present", i)
		assert.Equal(t, f, rec[i].String)
	}
}

func TestNormalize_WidthReconciliation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields []string
		width  int
		want   Record
	}{
		{"exact", []string{"a", "b"}, 2, Record{str("a"), str("b")}},
		{"short is padded", []string{"a"}, 3, Record{str("a"), absent, absent}},
		{"long is truncated", []string{"a", "b", "c", "d"}, 2, Record{str("a"), str("b")}},
		{"empty row", nil, 2, Record{absent, absent}},
		{"null in truncated tail", []string{"a", `\N`, `\N`}, 1, Record{str("a")}},
		{"zero width", []string{"a"}, 0, Record{}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Normalize(tc.fields, tc.width)
			assert.Len(t, got, tc.width)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRecordValues(t *testing.T) {
	t.Parallel()

	got := Record{str("1"), absent, str("")}.Values()
	assert.Equal(t, []any{"1", nil, ""}, got)
}

func TestDecoder_SkipsHeaderAndDecodes(t *testing.T) {
	t.Parallel()

	src := "id\tname\tyear\n" +
		"1\tAlice\t2001\n" +
		"2\tBob\t\\N\n" +
		"3\n"
	d := NewDecoder(strings.NewReader(src), 3)

	got := readAll(t, d)
	want := []Record{
		{str("1"), str("Alice"), str("2001")},
		{str("2"), str("Bob"), absent},
		{str("3"), absent, absent},
	}
	assert.Equal(t, want, got)
}

func TestDecoder_HeaderNotValidated(t *testing.T) {
	t.Parallel()

	// Header has nothing to do with the schema width.
	d := NewDecoder(strings.NewReader("only_one_header_column\na\tb\tc\td\n"), 2)
	got := readAll(t, d)
	assert.Equal(t, []Record{{str("a"), str("b")}}, got)
}

func TestDecoder_StripsBOM(t *testing.T) {
	t.Parallel()

	// The BOM belongs to the header, which is dropped; the first data row must
	// be untouched and the header must not be mistaken for data.
	d := NewDecoder(strings.NewReader("\uFEFFid\tname\nx\ty\n"), 2)
	got := readAll(t, d)
	assert.Equal(t, []Record{{str("x"), str("y")}}, got)
}

func TestDecoder_EmptyInput(t *testing.T) {
	t.Parallel()

	d := NewDecoder(strings.NewReader(""), 3)
	_, err := d.Next()
	assert.Equal(t, io.EOF, err)

	d = NewDecoder(strings.NewReader("a\tb\n"), 2)
	_, err = d.Next()
	assert.Equal(t, io.EOF, err, "header only")
}

func TestDecoder_CRLFAndQuotes(t *testing.T) {
	t.Parallel()

	src := "h1\th2\r\n" +
		"The \"Quoted\" One\tx\r\n"
	got := readAll(t, NewDecoder(strings.NewReader(src), 2))
	require.Len(t, got, 1)
	assert.Equal(t, `The "Quoted" One`, got[0][0].String)
	assert.Equal(t, "x", got[0][1].String)
}

func TestDecoder_QuotesAreLiteral(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want []Record
	}{
		{
			name: "field starting with quote",
			src:  "h1\th2\n\"Quoted\"\tx\n",
			want: []Record{{str(`"Quoted"`), str("x")}},
		},
		{
			name: "text after closing quote",
			src:  "h1\th2\n\"Weird Al\" Yankovic\tx\n2\ty\n3\tz\n",
			want: []Record{
				{str(`"Weird Al" Yankovic`), str("x")},
				{str("2"), str("y")},
				{str("3"), str("z")},
			},
		},
		{
			name: "unterminated leading quote",
			src:  "h1\th2\n\"open\tx\n2\ty\n",
			want: []Record{
				{str(`"open`), str("x")},
				{str("2"), str("y")},
			},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := readAll(t, NewDecoder(strings.NewReader(tc.src), 2))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecoder_BlankLines(t *testing.T) {
	t.Parallel()

	got := readAll(t, NewDecoder(strings.NewReader("h1\th2\n1\ta\n\n2\tb\n"), 2))
	assert.Equal(t, []Record{
		{str("1"), str("a")},
		{absent, absent},
		{str("2"), str("b")},
	}, got, "a blank data line is an all-null record")

	got = readAll(t, NewDecoder(strings.NewReader("\nh1\th2\n1\ta\n"), 2))
	assert.Equal(t, []Record{
		{str("h1"), str("h2")},
		{str("1"), str("a")},
	}, got, "a blank first line is the header")
}

func TestDecoder_LastLineWithoutNewline(t *testing.T) {
	t.Parallel()

	got := readAll(t, NewDecoder(strings.NewReader("h\n1\n2"), 1))
	assert.Equal(t, []Record{{str("1")}, {str("2")}}, got)
}

type failingReader struct {
	data []byte
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if len(f.data) == 0 {
		return 0, f.err
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

func TestDecoder_ReadFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk gone")
	d := NewDecoder(&failingReader{data: []byte("h\na\n"), err: boom}, 1)

	var err error
	for err == nil {
		_, err = d.Next()
	}
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "tsv line 3")
}

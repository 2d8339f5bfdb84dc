package httpds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"KIV-PPA1", "KIV-PPA1"},
		{"ma.1.b", "ma.1.b"},
		{"../../etc/passwd", ".._.._etc_passwd"},
		{"a b/c", "a_b_c"},
		{"..", HashString("..")},
		{"", HashString("")},
		{"///", HashString("///")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeFilename(tt.in), tt.in)
	}
}

func TestHashStringStable(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", HashString("abc"))
}

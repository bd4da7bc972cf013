package helper

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestParseCommaSeparated(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "   ", want: nil},
		{in: ",,", want: nil},
		{in: "a", want: []string{"a"}},
		{in: " a , b ,, c ", want: []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCommaSeparated(tt.in))
		})
	}
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, "****", Mask("abc"))
	assert.Equal(t, "****6789", Mask("sk-123456789"))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", Snippet([]byte("  short \n")))

	long := Snippet([]byte(strings.Repeat("x", 300)))
	assert.True(t, strings.HasSuffix(long, "…"))
	assert.Len(t, []rune(long), 257)

	multiByte := Snippet([]byte(strings.Repeat("é", 300)))
	assert.True(t, utf8.ValidString(multiByte))
	assert.Equal(t, strings.Repeat("é", 256)+"…", multiByte)

	assert.True(t, utf8.ValidString(Snippet([]byte{'o', 'k', 0xff})))
}

func TestCalcElapsedSeconds(t *testing.T) {
	start := time.Unix(1000, 0)
	assert.Equal(t, int64(0), CalcElapsedSeconds(start, start))
	assert.Equal(t, int64(12), CalcElapsedSeconds(start, start.Add(11600*time.Millisecond)))
}

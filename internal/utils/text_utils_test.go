package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestProcessor() *TextProcessor {
	return NewTextProcessor(zap.NewNop())
}

func TestTruncateText(t *testing.T) {
	tp := newTestProcessor()

	assert.Equal(t, "short", tp.TruncateText("short", 100))
	assert.Equal(t, "unlimited", tp.TruncateText("unlimited", 0))
	assert.Equal(t, "abc", tp.TruncateText("abcdef", 3))
}

func TestTruncateTextKeepsValidUTF8(t *testing.T) {
	tp := newTestProcessor()

	// "héllo" with the cut landing inside the two-byte é
	got := tp.TruncateText("héllo", 2)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "h", got)
}

func TestSanitizeUTF8(t *testing.T) {
	tp := newTestProcessor()

	assert.Equal(t, "clean", tp.SanitizeUTF8("clean"))

	dirty := "bad" + string([]byte{0xff, 0xfe}) + "bytes"
	got := tp.SanitizeUTF8(dirty)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "badbytes", got)
}

func TestProcessText(t *testing.T) {
	tp := newTestProcessor()

	long := strings.Repeat("a", 300)
	got := tp.ProcessText(long, 256)
	assert.Len(t, got, 256)
	assert.True(t, utf8.ValidString(got))
}

func TestStripHTML(t *testing.T) {
	tp := newTestProcessor()

	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"simple", "<p>Hello <b>world</b></p>", "Hello world"},
		{"skips style and script", "<style>p{}</style><script>x()</script><p>visible</p>", "visible"},
		{"collapses whitespace", "<div>  a \n\t b  </div>", "a b"},
		{"plain text passthrough", "no markup here", "no markup here"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tp.StripHTML(tt.markup))
		})
	}
}

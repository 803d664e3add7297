package compress

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	payload := strings.Repeat("<TR><TD>obs-1</TD><TD>2</TD></TR>\n", 200)

	for _, enc := range []string{Identity, Zstd, Gzip} {
		t.Run("coding="+enc, func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(enc, &buf)
			require.NoError(t, err)
			_, err = io.WriteString(w, payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			if enc != Identity {
				assert.Less(t, buf.Len(), len(payload))
			}

			r, err := NewReader(enc, &buf)
			require.NoError(t, err)
			defer r.Close()
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, payload, string(got))
		})
	}
}

func TestUnsupported(t *testing.T) {
	_, err := NewReader("br", strings.NewReader(""))
	assert.Error(t, err)
	_, err = NewWriter("br", io.Discard)
	assert.Error(t, err)
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", Identity},
		{"gzip", Gzip},
		{"gzip, zstd", Zstd},
		{"zstd;q=0, gzip;q=0.5", Gzip},
		{"br, deflate", Identity},
		{"x-gzip", Gzip},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Negotiate(tt.in), tt.in)
	}
}

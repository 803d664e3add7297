// Package compress handles HTTP content codings for query responses.
// The client advertises zstd and gzip and decodes whichever the service
// picks; the archive HTTP handler encodes with the client's preference.
package compress

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Codings.
const (
	Identity = ""
	Zstd     = "zstd"
	Gzip     = "gzip"
	Deflate  = "deflate"
)

// AcceptEncoding is the Accept-Encoding header value sent by the client.
const AcceptEncoding = "zstd, gzip"

// NewReader wraps r to decode the given Content-Encoding. Identity returns r
// unchanged. The caller must close the returned reader.
func NewReader(encoding string, r io.Reader) (io.ReadCloser, error) {
	switch normalize(encoding) {
	case Identity:
		return io.NopCloser(r), nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "create zstd decoder")
		}
		return dec.IOReadCloser(), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "create gzip decoder")
		}
		return zr, nil
	case Deflate:
		return flate.NewReader(r), nil
	}
	return nil, errors.Newf("unsupported content encoding %q", encoding)
}

// NewWriter wraps w to encode with the given coding. Close flushes the
// encoder but does not close w.
func NewWriter(encoding string, w io.Writer) (io.WriteCloser, error) {
	switch normalize(encoding) {
	case Identity:
		return nopWriteCloser{w}, nil
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, errors.Wrap(err, "create zstd encoder")
		}
		return enc, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	}
	return nil, errors.Newf("unsupported content encoding %q", encoding)
}

// Negotiate picks the coding to answer an Accept-Encoding header with,
// preferring zstd over gzip. Quality values of 0 exclude a coding.
func Negotiate(acceptEncoding string) string {
	accepted := map[string]bool{}
	for _, part := range strings.Split(acceptEncoding, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if q := strings.ReplaceAll(params, " ", ""); q == "q=0" || q == "q=0.0" {
			continue
		}
		accepted[normalize(name)] = true
	}
	for _, c := range []string{Zstd, Gzip} {
		if accepted[c] {
			return c
		}
	}
	return Identity
}

func normalize(encoding string) string {
	e := strings.ToLower(strings.TrimSpace(encoding))
	switch e {
	case "", "identity":
		return Identity
	case "x-gzip":
		return Gzip
	}
	return e
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

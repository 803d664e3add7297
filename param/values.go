package param

import (
	"net/url"
	"strings"
)

// Entry is one keyword with its OR-ed values.
type Entry struct {
	Keyword string   `msgpack:"k"`
	Values  []string `msgpack:"v"`
}

// Values is an ordered keyword list as sent on the wire.
type Values []Entry

// Get returns the values of a keyword.
func (v Values) Get(keyword string) []string {
	for _, e := range v {
		if e.Keyword == keyword {
			return e.Values
		}
	}
	return nil
}

// Keys returns the keywords in order.
func (v Values) Keys() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.Keyword
	}
	return out
}

// Encode renders the values as a URL query string, keeping keyword order and
// repeating a keyword once per value.
func (v Values) Encode() string {
	var b strings.Builder
	for _, e := range v {
		k := url.QueryEscape(e.Keyword)
		for _, val := range e.Values {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(val))
		}
	}
	return b.String()
}

// URLValues converts to url.Values, for form-encoded POST bodies.
func (v Values) URLValues() url.Values {
	out := make(url.Values, len(v))
	for _, e := range v {
		out[e.Keyword] = append(out[e.Keyword], e.Values...)
	}
	return out
}

// Package param implements the typed, multi-valued constraint parameters of
// an SIA v2 query and the registry that keeps their wire serialization.
//
// Values added to one parameter are OR-ed by the service; distinct
// parameters are AND-ed. Values are kept in insertion order and repeated
// values are kept as given.
package param

import (
	"math"
	"strconv"
)

// Kind is the value shape accepted by a parameter.
type Kind int

const (
	KindInterval Kind = iota
	KindEnum
	KindStringSet
	KindPosition
)

func (k Kind) String() string {
	switch k {
	case KindInterval:
		return "interval"
	case KindEnum:
		return "enum"
	case KindStringSet:
		return "string set"
	case KindPosition:
		return "position"
	}
	return "unknown"
}

// Param is a single multi-valued constraint bound to one wire keyword.
type Param interface {
	// Keyword returns the wire keyword, fixed at creation.
	Keyword() string
	Kind() Kind
	// Add validates v and appends it. Invalid values leave the param
	// unchanged and return a *dalerr.ValidationError.
	Add(v any) error
	// Remove drops the first stored value equal to v. It does nothing when
	// v is not stored or not valid.
	Remove(v any)
	Len() int
	// Serialize returns one wire token per stored value in insertion order.
	Serialize() []string
	Clear()
}

// base carries the keyword, the serialized tokens and the change hook shared
// by all parameter kinds.
type base struct {
	keyword string
	tokens  []string
	notify  func(keyword string, tokens []string)
}

func (b *base) Keyword() string { return b.keyword }

func (b *base) Len() int { return len(b.tokens) }

func (b *base) Serialize() []string {
	out := make([]string, len(b.tokens))
	copy(out, b.tokens)
	return out
}

func (b *base) changed() {
	if b.notify != nil {
		b.notify(b.keyword, b.Serialize())
	}
}

func (b *base) push(token string) {
	b.tokens = append(b.tokens, token)
	b.changed()
}

// drop removes the first token equal to token and returns its index, or -1.
func (b *base) drop(token string) int {
	for i, t := range b.tokens {
		if t == token {
			b.tokens = append(b.tokens[:i], b.tokens[i+1:]...)
			b.changed()
			return i
		}
	}
	return -1
}

func (b *base) reset() {
	if len(b.tokens) == 0 {
		return
	}
	b.tokens = nil
	b.changed()
}

// FormatFloat renders a number in its shortest round-trip form, using the
// Infinity / -Infinity literals for open bounds.
func FormatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// toFloat converts Go numeric kinds to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

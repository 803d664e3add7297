package param

import (
	"fmt"
	"strings"

	"github.com/hugr-lab/sia-go/dalerr"
)

// StringSetParam holds free-form string values.
type StringSetParam struct {
	base
}

// NewStringSetParam creates a string-set parameter.
func NewStringSetParam(keyword string) *StringSetParam {
	return &StringSetParam{base: base{keyword: keyword}}
}

func (p *StringSetParam) Kind() Kind { return KindStringSet }

func (p *StringSetParam) Add(v any) error {
	s, err := p.token(v)
	if err != nil {
		return err
	}
	p.push(s)
	return nil
}

func (p *StringSetParam) Remove(v any) {
	if s, err := p.token(v); err == nil {
		p.drop(s)
	}
}

func (p *StringSetParam) Clear() { p.reset() }

// Values returns the stored strings.
func (p *StringSetParam) Values() []string { return p.Serialize() }

// Matches reports whether s equals one of the stored values. An empty
// parameter matches everything.
func (p *StringSetParam) Matches(s string) bool {
	if len(p.tokens) == 0 {
		return true
	}
	for _, t := range p.tokens {
		if t == s {
			return true
		}
	}
	return false
}

func (p *StringSetParam) token(v any) (string, error) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	case fmt.Stringer:
		s = x.String()
	default:
		return "", dalerr.Validationf(p.keyword, v, "expected a string, got %T", v)
	}
	if strings.TrimSpace(s) == "" {
		return "", dalerr.Validationf(p.keyword, v, "empty string")
	}
	return s, nil
}

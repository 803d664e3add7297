package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hugr-lab/sia-go/dalerr"
)

// Calibration levels accepted by CALIB.
const (
	CalibRaw = iota
	CalibInstrumental
	CalibScience
	CalibEnhanced
	CalibAnalysis
)

// CalibLevels is the CALIB vocabulary.
var CalibLevels = []string{"0", "1", "2", "3", "4"}

// PolStates is the POL vocabulary.
var PolStates = []string{
	"I", "Q", "U", "V",
	"RR", "LL", "RL", "LR",
	"XX", "YY", "XY", "YX",
	"POLI", "POLA",
}

// EnumParam holds values drawn from a fixed vocabulary.
type EnumParam struct {
	base
	allowed []string
	set     map[string]bool
}

// NewEnumParam creates an enumerated parameter over the allowed tokens.
func NewEnumParam(keyword string, allowed []string) *EnumParam {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}
	return &EnumParam{base: base{keyword: keyword}, allowed: allowed, set: set}
}

func (p *EnumParam) Kind() Kind { return KindEnum }

// Allowed returns the vocabulary.
func (p *EnumParam) Allowed() []string {
	out := make([]string, len(p.allowed))
	copy(out, p.allowed)
	return out
}

func (p *EnumParam) Add(v any) error {
	tok, err := p.token(v)
	if err != nil {
		return err
	}
	p.push(tok)
	return nil
}

func (p *EnumParam) Remove(v any) {
	if tok, err := p.token(v); err == nil {
		p.drop(tok)
	}
}

func (p *EnumParam) Clear() { p.reset() }

// Values returns the stored tokens.
func (p *EnumParam) Values() []string { return p.Serialize() }

// Matches reports whether token is one of the stored values. An empty
// parameter matches everything.
func (p *EnumParam) Matches(token string) bool {
	if len(p.tokens) == 0 {
		return true
	}
	for _, t := range p.tokens {
		if t == token {
			return true
		}
	}
	return false
}

func (p *EnumParam) token(v any) (string, error) {
	var tok string
	switch x := v.(type) {
	case string:
		tok = strings.TrimSpace(x)
	case fmt.Stringer:
		tok = strings.TrimSpace(x.String())
	case float64, float32:
		f, _ := toFloat(x)
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return "", p.invalid(v)
		}
		tok = strconv.FormatInt(int64(f), 10)
	default:
		f, ok := toFloat(v)
		if !ok {
			return "", p.invalid(v)
		}
		tok = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if !p.set[tok] {
		return "", p.invalid(v)
	}
	return tok, nil
}

func (p *EnumParam) invalid(v any) error {
	return dalerr.Validationf(p.keyword, v, "not one of %v", p.allowed)
}

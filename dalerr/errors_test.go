package dalerr

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", Validationf("EXPTIME", 3, "bad"), ErrValidation},
		{"configuration", &ConfigurationError{Reason: "none"}, ErrConfiguration},
		{"service", &ServiceError{URL: "http://x", Err: errors.New("refused")}, ErrService},
		{"query", &QueryError{URL: "http://x", Reason: "syntax"}, ErrQuery},
		{"format", Formatf("votable", "broken %d", 1), ErrFormat},
		{"missing", &MissingFieldError{Column: "access_url"}, ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))

			wrapped := errors.Wrap(tt.err, "context")
			assert.True(t, errors.Is(wrapped, tt.sentinel))
			assert.False(t, errors.Is(wrapped, errors.New("other")))
		})
	}
}

func TestAsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", errors.Wrap(&MissingFieldError{Column: "calib_level"}, "inner"))

	var mf *MissingFieldError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, "calib_level", mf.Column)
}

func TestMessages(t *testing.T) {
	assert.Equal(t, `invalid CALIB value 7: not one of [0 1 2 3 4]`,
		Validationf("CALIB", 7, "not one of %v", []int{0, 1, 2, 3, 4}).Error())
	assert.Equal(t, `mandatory field "obs_id" is missing`, (&MissingFieldError{Column: "obs_id"}).Error())
	assert.Equal(t, `mandatory field "obs_id" is null`, (&MissingFieldError{Column: "obs_id", Null: true}).Error())
	assert.Equal(t, "query rejected by http://x (HTTP 400): bad POS",
		(&QueryError{URL: "http://x", StatusCode: 400, Reason: "bad POS"}).Error())
}

func TestServiceErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ServiceError{URL: "http://x", Err: cause}
	assert.True(t, errors.Is(err, cause))
}

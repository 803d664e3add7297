package transport

import (
	"encoding/base64"
	"net/http"

	"github.com/hugr-lab/sia-go/capability"
)

// Credentials decorate outgoing HTTP requests.
type Credentials interface {
	Apply(req *http.Request)
	// SecurityMethod is the IVOA security method the credentials satisfy.
	SecurityMethod() string
}

// NoAuth sends anonymous requests.
type NoAuth struct{}

func (NoAuth) Apply(*http.Request) {}

func (NoAuth) SecurityMethod() string { return capability.SecurityAnonymous }

// BasicAuth uses HTTP Basic authentication.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) Apply(req *http.Request) {
	if a.Username == "" && a.Password == "" {
		return
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
	req.Header.Set("Authorization", "Basic "+credentials)
}

func (BasicAuth) SecurityMethod() string { return capability.SecurityBasicAA }

// BearerToken sends an OAuth-style bearer token.
type BearerToken struct {
	Token string
}

func (a BearerToken) Apply(req *http.Request) {
	if a.Token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

func (BearerToken) SecurityMethod() string { return capability.SecurityToken }

// Cookie sends a session cookie.
type Cookie struct {
	Name  string
	Value string
}

func (a Cookie) Apply(req *http.Request) {
	if a.Name == "" {
		return
	}
	req.AddCookie(&http.Cookie{Name: a.Name, Value: a.Value})
}

func (Cookie) SecurityMethod() string { return capability.SecurityCookie }

// Package capability reads VOSI capabilities documents and picks the
// service endpoint a client should query.
package capability

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/hugr-lab/sia-go/dalerr"
)

// Standard identifiers of the SIA v2 query capability.
const (
	SIA2Query    = "ivo://ivoa.net/std/SIA#query-2.0"
	SIA2QueryAux = "ivo://ivoa.net/std/SIA#query-aux-2.0"
)

// Security method identifiers.
const (
	SecurityAnonymous = ""
	SecurityBasicAA   = "ivo://ivoa.net/sso#BasicAA"
	SecurityCookie    = "ivo://ivoa.net/sso#cookie"
	SecurityTLSClient = "ivo://ivoa.net/sso#tls-with-certificate"
	SecurityToken     = "ivo://ivoa.net/sso#token"
)

// Capability is one advertised service function.
type Capability struct {
	StandardID string
	Interfaces []Interface
}

// Interface is one way to reach a capability.
type Interface struct {
	Type            string
	Role            string
	Version         string
	AccessURLs      []AccessURL
	SecurityMethods []string
}

// AccessURL is an interface endpoint.
type AccessURL struct {
	URL string
	Use string
}

// SecuritySupport is the set of security methods the client can perform.
// The anonymous method is always supported.
type SecuritySupport map[string]bool

// DefaultSecurity supports anonymous access and cookies. BasicAA is left
// out.
func DefaultSecurity() SecuritySupport {
	return SecuritySupport{SecurityAnonymous: true, SecurityCookie: true}
}

// Supports reports whether method can be used.
func (s SecuritySupport) Supports(method string) bool {
	return method == SecurityAnonymous || s[method]
}

// Accepts reports whether an interface can be used: it declares no
// security method or at least one supported one.
func (s SecuritySupport) Accepts(ifc Interface) bool {
	if len(ifc.SecurityMethods) == 0 {
		return true
	}
	for _, m := range ifc.SecurityMethods {
		if s.Supports(m) {
			return true
		}
	}
	return false
}

// MatchesStandard reports whether id denotes the SIA v2 query capability,
// ignoring case and an aux suffix.
func MatchesStandard(id, standardID string) bool {
	if strings.EqualFold(id, standardID) {
		return true
	}
	return strings.EqualFold(standardID, SIA2Query) && strings.EqualFold(id, SIA2QueryAux)
}

// Resolve returns the first access URL, in advertised order, of an interface
// belonging to a capability matching standardID that the client can use.
func Resolve(caps []Capability, standardID string, supported SecuritySupport) (string, bool) {
	if supported == nil {
		supported = DefaultSecurity()
	}
	for _, c := range caps {
		if !MatchesStandard(c.StandardID, standardID) {
			continue
		}
		for _, ifc := range c.Interfaces {
			if len(ifc.AccessURLs) == 0 || !supported.Accepts(ifc) {
				continue
			}
			for _, u := range ifc.AccessURLs {
				if u.URL != "" {
					return u.URL, true
				}
			}
		}
	}
	return "", false
}

type xmlCapabilities struct {
	XMLName      xml.Name        `xml:"capabilities"`
	Capabilities []xmlCapability `xml:"capability"`
}

type xmlCapability struct {
	StandardID string         `xml:"standardID,attr"`
	Interfaces []xmlInterface `xml:"interface"`
}

type xmlInterface struct {
	Type       string           `xml:"http://www.w3.org/2001/XMLSchema-instance type,attr,omitempty"`
	Role       string           `xml:"role,attr,omitempty"`
	Version    string           `xml:"version,attr,omitempty"`
	AccessURLs []xmlAccessURL   `xml:"accessURL"`
	Security   []xmlSecurityRef `xml:"securityMethod"`
}

type xmlAccessURL struct {
	Use string `xml:"use,attr,omitempty"`
	URL string `xml:",chardata"`
}

type xmlSecurityRef struct {
	StandardID string `xml:"standardID,attr"`
}

// Parse reads a VOSI capabilities document.
func Parse(r io.Reader) ([]Capability, error) {
	var doc xmlCapabilities
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &dalerr.FormatError{Format: "vosi", Err: errors.Wrap(err, "parse capabilities")}
	}

	out := make([]Capability, 0, len(doc.Capabilities))
	for _, xc := range doc.Capabilities {
		c := Capability{StandardID: strings.TrimSpace(xc.StandardID)}
		for _, xi := range xc.Interfaces {
			ifc := Interface{Type: xi.Type, Role: xi.Role, Version: xi.Version}
			for _, u := range xi.AccessURLs {
				ifc.AccessURLs = append(ifc.AccessURLs, AccessURL{URL: strings.TrimSpace(u.URL), Use: u.Use})
			}
			for _, s := range xi.Security {
				ifc.SecurityMethods = append(ifc.SecurityMethods, strings.TrimSpace(s.StandardID))
			}
			c.Interfaces = append(c.Interfaces, ifc)
		}
		out = append(out, c)
	}
	return out, nil
}

// Write renders capabilities as a VOSI document.
func Write(w io.Writer, caps []Capability) error {
	doc := xmlCapabilities{XMLName: xml.Name{Space: "http://www.ivoa.net/xml/VOSICapabilities/v1.0", Local: "capabilities"}}
	for _, c := range caps {
		xc := xmlCapability{StandardID: c.StandardID}
		for _, ifc := range c.Interfaces {
			xi := xmlInterface{Type: ifc.Type, Role: ifc.Role, Version: ifc.Version}
			for _, u := range ifc.AccessURLs {
				xi.AccessURLs = append(xi.AccessURLs, xmlAccessURL{URL: u.URL, Use: u.Use})
			}
			for _, m := range ifc.SecurityMethods {
				xi.Security = append(xi.Security, xmlSecurityRef{StandardID: m})
			}
			xc.Interfaces = append(xc.Interfaces, xi)
		}
		doc.Capabilities = append(doc.Capabilities, xc)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "encode capabilities")
	}
	return enc.Close()
}

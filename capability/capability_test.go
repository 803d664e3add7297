package capability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugr-lab/sia-go/dalerr"
)

const sampleCaps = `<?xml version="1.0" encoding="UTF-8"?>
<vosi:capabilities xmlns:vosi="http://www.ivoa.net/xml/VOSICapabilities/v1.0"
    xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
    xmlns:vs="http://www.ivoa.net/xml/VODataService/v1.1">
  <capability standardID="ivo://ivoa.net/std/VOSI#capabilities">
    <interface xsi:type="vs:ParamHTTP" role="std">
      <accessURL use="full">https://archive.example/sia2/capabilities</accessURL>
    </interface>
  </capability>
  <capability standardID="ivo://ivoa.net/std/SIA#query-2.0">
    <interface xsi:type="vs:ParamHTTP" role="std" version="2.0">
      <accessURL use="base">https://archive.example/sia2/auth-query</accessURL>
      <securityMethod standardID="ivo://ivoa.net/sso#BasicAA"/>
    </interface>
    <interface xsi:type="vs:ParamHTTP" role="std" version="2.0">
      <accessURL use="base">
        https://archive.example/sia2/query
      </accessURL>
    </interface>
  </capability>
</vosi:capabilities>`

func TestParse(t *testing.T) {
	caps, err := Parse(strings.NewReader(sampleCaps))
	require.NoError(t, err)
	require.Len(t, caps, 2)

	sia := caps[1]
	assert.Equal(t, SIA2Query, sia.StandardID)
	require.Len(t, sia.Interfaces, 2)
	assert.Equal(t, "vs:ParamHTTP", sia.Interfaces[0].Type)
	assert.Equal(t, "2.0", sia.Interfaces[0].Version)
	assert.Equal(t, []string{SecurityBasicAA}, sia.Interfaces[0].SecurityMethods)
	assert.Equal(t, "https://archive.example/sia2/query", sia.Interfaces[1].AccessURLs[0].URL)

	_, err = Parse(strings.NewReader("<nope"))
	assert.True(t, errors.Is(err, dalerr.ErrFormat))
}

func TestResolve(t *testing.T) {
	caps, err := Parse(strings.NewReader(sampleCaps))
	require.NoError(t, err)

	url, ok := Resolve(caps, SIA2Query, nil)
	require.True(t, ok)
	assert.Equal(t, "https://archive.example/sia2/query", url)

	withBasic := DefaultSecurity()
	withBasic[SecurityBasicAA] = true
	url, ok = Resolve(caps, SIA2Query, withBasic)
	require.True(t, ok)
	assert.Equal(t, "https://archive.example/sia2/auth-query", url)
}

func TestResolveRules(t *testing.T) {
	ifc := func(url string, methods ...string) Interface {
		i := Interface{SecurityMethods: methods}
		if url != "" {
			i.AccessURLs = []AccessURL{{URL: url}}
		}
		return i
	}

	tests := []struct {
		name   string
		caps   []Capability
		want   string
		wantOK bool
	}{
		{
			name: "no sia capability",
			caps: []Capability{{StandardID: "ivo://ivoa.net/std/TAP", Interfaces: []Interface{ifc("http://tap")}}},
		},
		{
			name: "interface without access url is skipped",
			caps: []Capability{{StandardID: SIA2Query, Interfaces: []Interface{ifc(""), ifc("http://b")}}},
			want: "http://b", wantOK: true,
		},
		{
			name: "anonymous method among others qualifies",
			caps: []Capability{{StandardID: SIA2Query, Interfaces: []Interface{ifc("http://a", SecurityBasicAA, SecurityAnonymous)}}},
			want: "http://a", wantOK: true,
		},
		{
			name: "only unsupported methods",
			caps: []Capability{{StandardID: SIA2Query, Interfaces: []Interface{ifc("http://a", SecurityBasicAA, SecurityTLSClient)}}},
		},
		{
			name: "aux capability matches",
			caps: []Capability{{StandardID: SIA2QueryAux, Interfaces: []Interface{ifc("http://aux")}}},
			want: "http://aux", wantOK: true,
		},
		{
			name: "advertised order wins",
			caps: []Capability{
				{StandardID: SIA2Query, Interfaces: []Interface{ifc("http://first")}},
				{StandardID: SIA2Query, Interfaces: []Interface{ifc("http://second")}},
			},
			want: "http://first", wantOK: true,
		},
		{
			name: "case-insensitive standard id",
			caps: []Capability{{StandardID: "ivo://ivoa.net/std/sia#query-2.0", Interfaces: []Interface{ifc("http://c")}}},
			want: "http://c", wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.caps, SIA2Query, DefaultSecurity())
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	in := []Capability{{
		StandardID: SIA2Query,
		Interfaces: []Interface{{
			Type:            "vs:ParamHTTP",
			Role:            "std",
			Version:         "2.0",
			AccessURLs:      []AccessURL{{URL: "http://localhost/sia/query", Use: "base"}},
			SecurityMethods: []string{SecurityToken},
		}},
	}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))

	out, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

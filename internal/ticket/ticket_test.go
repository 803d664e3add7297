package ticket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hugr-lab/sia-go/param"
)

func TestEncodeDecode(t *testing.T) {
	in := Ticket{
		Archive: "hst",
		Params: param.Values{
			{Keyword: "POS", Values: []string{"CIRCLE 10 20 0.5"}},
			{Keyword: "CALIB", Values: []string{"0", "1"}},
			{Keyword: "MAXREC", Values: []string{"10"}},
		},
		RequestID: "req-1",
	}

	data, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, Version, out.Version)
	assert.Equal(t, in.Archive, out.Archive)
	assert.Equal(t, in.Params, out.Params)
	assert.Equal(t, in.RequestID, out.RequestID)
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		data func() []byte
	}{
		{"empty", func() []byte { return nil }},
		{"garbage", func() []byte { return []byte{0xc1, 0x00} }},
		{"wrong version", func() []byte {
			b, _ := msgpack.Marshal(&Ticket{Version: 9})
			return b
		}},
		{"blank keyword", func() []byte {
			b, _ := msgpack.Marshal(&Ticket{Version: Version, Params: param.Values{{Values: []string{"x"}}}})
			return b
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data())
			assert.Error(t, err)
		})
	}
}

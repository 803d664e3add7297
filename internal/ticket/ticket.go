// Package ticket encodes SIA searches as Arrow Flight tickets. A ticket is
// a MessagePack document carrying the target archive and the ordered wire
// values of the query.
package ticket

import (
	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hugr-lab/sia-go/param"
)

// Version is the ticket layout version.
const Version = 1

// Ticket is the decoded content of a Flight ticket.
type Ticket struct {
	Version int `msgpack:"ver"`

	// Archive names the collection to search on servers hosting several.
	// Empty selects the default.
	Archive string `msgpack:"archive,omitempty"`

	// Params are the query keywords in wire order.
	Params param.Values `msgpack:"params"`

	// RequestID correlates client and server logs.
	RequestID string `msgpack:"rid,omitempty"`
}

// Encode serializes a ticket.
func Encode(t Ticket) ([]byte, error) {
	if t.Version == 0 {
		t.Version = Version
	}
	data, err := msgpack.Marshal(&t)
	if err != nil {
		return nil, errors.Wrap(err, "encode ticket")
	}
	return data, nil
}

// Decode parses and validates a ticket.
func Decode(data []byte) (*Ticket, error) {
	if len(data) == 0 {
		return nil, errors.New("ticket cannot be empty")
	}

	var t Ticket
	if err := msgpack.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrap(err, "decode ticket")
	}
	if t.Version != Version {
		return nil, errors.Newf("unsupported ticket version %d", t.Version)
	}
	for i, e := range t.Params {
		if e.Keyword == "" {
			return nil, errors.Newf("ticket parameter %d has no keyword", i)
		}
	}
	return &t, nil
}

package sia

import (
	"net/url"

	"github.com/cockroachdb/errors"

	"github.com/hugr-lab/sia-go/obscore"
	"github.com/hugr-lab/sia-go/table"
)

// Record is one result row. It combines the generic column access of
// table.Row, the typed ObsCore accessors of obscore.Metadata and follow-up
// link resolution.
type Record struct {
	table.Row
	obscore.Metadata

	FollowUp FollowUp
}

func newRecord(row table.Row, f FollowUp) Record {
	return Record{
		Row:      row,
		Metadata: obscore.New(row),
		FollowUp: f,
	}
}

// ResolvedAccessURL returns access_url resolved against the query URL.
func (r Record) ResolvedAccessURL() (string, error) {
	ref, err := r.AccessURL()
	if err != nil {
		return "", err
	}
	return r.FollowUp.Resolve(ref)
}

// FollowUp resolves per-record links, which may be relative, against the
// URL of the originating query.
type FollowUp struct {
	base *url.URL
}

// NewFollowUp returns a resolver for links found in the response of
// queryURL.
func NewFollowUp(queryURL string) FollowUp {
	u, err := url.Parse(queryURL)
	if err != nil || u.Scheme == "" {
		return FollowUp{}
	}
	return FollowUp{base: u}
}

// Resolve returns ref as an absolute URL. Without a usable base, ref must
// already be absolute.
func (f FollowUp) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", errors.Wrapf(err, "parse link %q", ref)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if f.base == nil {
		return "", errors.Newf("relative link %q without a base URL", ref)
	}
	return f.base.ResolveReference(u).String(), nil
}

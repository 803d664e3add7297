package archive

import (
	"context"
	"net/http"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/cockroachdb/errors"

	"github.com/hugr-lab/sia-go/auth"
	"github.com/hugr-lab/sia-go/capability"
	"github.com/hugr-lab/sia-go/dalerr"
	"github.com/hugr-lab/sia-go/internal/compress"
	"github.com/hugr-lab/sia-go/param"
	"github.com/hugr-lab/sia-go/table"
	"github.com/hugr-lab/sia-go/transport"
)

// Paths of the HTTP interface. The default archive is served at the root,
// every archive also under /{archive}.
const (
	QueryPath        = "/query"
	CapabilitiesPath = "/capabilities"
)

// VOSICapabilities is the standard id of the capabilities endpoint.
const VOSICapabilities = "ivo://ivoa.net/std/VOSI#capabilities"

// responseFormatKeyword selects the output serialization.
const responseFormatKeyword = "RESPONSEFORMAT"

// Handler serves the SIA v2 HTTP query interface and its VOSI
// capabilities.
type Handler struct {
	*engine
	publicURL string
	mux       *http.ServeMux
}

// NewHandler creates the HTTP interface for the archives in cfg.
// Searches are authenticated with cfg.Auth; capabilities are public.
func NewHandler(cfg Config) (*Handler, error) {
	e, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}

	h := &Handler{
		engine:    e,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		mux:       http.NewServeMux(),
	}

	query := auth.Middleware(cfg.Auth, http.HandlerFunc(h.query))
	for _, prefix := range []string{"", "/{archive}"} {
		h.mux.Handle("GET "+prefix+QueryPath, query)
		h.mux.Handle("POST "+prefix+QueryPath, query)
		h.mux.HandleFunc("GET "+prefix+CapabilitiesPath, h.capabilities)
	}
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(
		"archive", r.PathValue("archive"),
		"request_id", r.Header.Get(transport.RequestIDHeader),
	)

	if err := r.ParseForm(); err != nil {
		h.fail(w, http.StatusBadRequest, err)
		return
	}
	format, err := responseFormat(r)
	if err != nil {
		h.fail(w, http.StatusBadRequest, err)
		return
	}
	q, err := param.ParseQuery(r.Form)
	if err != nil {
		logger.Debug("Rejected search parameters", "error", err)
		h.fail(w, httpStatus(err), err)
		return
	}

	tbl, err := h.collect(r.Context(), r.PathValue("archive"), q)
	if err != nil {
		logger.Error("Search failed", "error", err)
		h.fail(w, httpStatus(err), err)
		return
	}
	defer tbl.Release()

	coding := compress.Negotiate(r.Header.Get("Accept-Encoding"))
	w.Header().Set("Content-Type", format.MIMEType())
	w.Header().Add("Vary", "Accept-Encoding")
	if coding != compress.Identity {
		w.Header().Set("Content-Encoding", coding)
	}
	if tbl.Overflow() {
		w.Header().Set(transport.OverflowHeader, "true")
	}

	cw, err := compress.NewWriter(coding, w)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}
	if err := table.Encode(cw, format, tbl); err != nil {
		logger.Error("Failed to write response", "format", format, "error", err)
	}
	if err := cw.Close(); err != nil {
		logger.Error("Failed to flush response", "error", err)
	}

	logger.Debug("Query completed",
		"rows", tbl.NumRows(),
		"overflow", tbl.Overflow(),
		"format", format,
		"encoding", coding,
	)
}

// collect runs a search and materializes the capped result.
func (h *Handler) collect(ctx context.Context, name string, q *param.Registry) (*table.Table, error) {
	rdr, limit, err := h.search(ctx, name, q)
	if err != nil {
		return nil, err
	}
	defer rdr.Release()

	var recs []arrow.Record
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()

	_, overflow, err := truncate(ctx, rdr, limit, func(rec arrow.Record) error {
		rec.Retain()
		recs = append(recs, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	all, err := array.NewRecordReader(rdr.Schema(), recs)
	if err != nil {
		return nil, errors.Wrap(err, "collect search results")
	}
	defer all.Release()

	tbl, err := table.FromReader(h.alloc, all)
	if err != nil {
		return nil, err
	}
	tbl.SetOverflow(overflow)
	return tbl, nil
}

func (h *Handler) capabilities(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("archive")
	if _, err := h.archives.lookup(name); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	base := h.baseURL(r)
	if name != "" {
		base += "/" + name
	}

	sia := capability.Interface{
		Type:       "vs:ParamHTTP",
		Role:       "std",
		Version:    "2.0",
		AccessURLs: []capability.AccessURL{{URL: base + QueryPath, Use: "base"}},
	}
	if h.auth != nil {
		sia.SecurityMethods = []string{capability.SecurityToken}
	}
	caps := []capability.Capability{
		{
			StandardID: VOSICapabilities,
			Interfaces: []capability.Interface{{
				Type:       "vs:ParamHTTP",
				AccessURLs: []capability.AccessURL{{URL: base + CapabilitiesPath, Use: "full"}},
			}},
		},
		{StandardID: capability.SIA2Query, Interfaces: []capability.Interface{sia}},
	}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	if err := capability.Write(w, caps); err != nil {
		h.logger.Error("Failed to write capabilities", "error", err)
	}
}

func (h *Handler) baseURL(r *http.Request) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// fail answers with a VOTable error document.
func (h *Handler) fail(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", table.MIMEVOTable)
	w.WriteHeader(code)
	if werr := table.WriteVOTableError(w, err.Error()); werr != nil {
		h.logger.Error("Failed to write error document", "error", werr)
	}
}

// responseFormat reads RESPONSEFORMAT; VOTable is the default.
func responseFormat(r *http.Request) (table.Format, error) {
	for k, v := range r.Form {
		if !strings.EqualFold(k, responseFormatKeyword) || len(v) == 0 || v[0] == "" {
			continue
		}
		f, ok := table.FormatFor(v[0])
		if !ok {
			return "", dalerr.Validationf(responseFormatKeyword, v[0], "unsupported response format")
		}
		return f, nil
	}
	return table.FormatVOTable, nil
}

package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/chain"
	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/models"
)

// Handler holds API route handlers. All routes are read-only: the chain
// accepts writes only through the commit path, never over HTTP.
type Handler struct {
	engine *chain.Engine
	db     *index.DB
}

// NewHandler creates a new Handler.
func NewHandler(engine *chain.Engine, db *index.DB) *Handler {
	return &Handler{engine: engine, db: db}
}

// Status handles GET /api/status.
//
//	@Summary		Worklog status snapshot
//	@Tags			chain
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.engine.Status(r.Context())
	if err != nil {
		slog.Error("status failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	resp := StatusResponse{
		Entries:      st.Entries,
		Latest:       st.Latest,
		Draft:        st.Draft,
		DraftSummary: st.DraftSummary,
		ChainIntact:  st.ChainErr == nil,
	}
	if st.ChainErr != nil {
		resp.ChainError = st.ChainErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Verify handles GET /api/verify.
//
// A broken chain is a valid verification outcome, not a transport failure,
// so both intact and broken chains respond 200 with ok reflecting the
// result.
//
//	@Summary		Walk the chain and verify integrity
//	@Tags			chain
//	@Produce		json
//	@Success		200	{object}	VerifyResponse
//	@Security		BearerAuth
//	@Router			/verify [get]
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	rep, err := h.engine.Verify(r.Context())
	if err != nil {
		if resp, ok := verifyFailure(err); ok {
			writeJSON(w, http.StatusOK, resp)
			return
		}
		slog.Error("verify failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, VerifyResponse{
		OK:      true,
		Entries: rep.Entries,
		First:   rep.First,
		Latest:  rep.Latest,
	})
}

// verifyFailure maps a chain corruption error to its response payload.
func verifyFailure(err error) (VerifyResponse, bool) {
	var linkErr *chain.LinkError
	var hashErr *chain.HashError
	var missingErr *chain.MissingPreviousError
	switch {
	case errors.As(err, &linkErr):
		return VerifyResponse{
			OK:       false,
			Kind:     "link_mismatch",
			Filename: linkErr.Filename,
			Expected: linkErr.Expected,
			Found:    linkErr.Found,
			Error:    err.Error(),
		}, true
	case errors.As(err, &hashErr):
		return VerifyResponse{
			OK:       false,
			Kind:     "hash_mismatch",
			Filename: hashErr.Filename,
			Expected: hashErr.Claimed,
			Found:    hashErr.Computed,
			Error:    err.Error(),
		}, true
	case errors.As(err, &missingErr):
		return VerifyResponse{
			OK:       false,
			Kind:     "missing_previous",
			Filename: missingErr.Filename,
			Error:    err.Error(),
		}, true
	}
	return VerifyResponse{}, false
}

// ListEntries handles GET /api/entries.
//
//	@Summary		List mirrored entries, newest first
//	@Tags			entries
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	EntryListResponse
//	@Security		BearerAuth
//	@Router			/entries [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.db.ListEntries(limit, offset)
	if err != nil {
		slog.Error("list entries failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if items == nil {
		items = []models.EntryMetadata{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": items,
		"total":   total,
	})
}

// GetEntry handles GET /api/entries/{filename}.
//
//	@Summary		Get a mirrored entry with parsed fields
//	@Tags			entries
//	@Produce		json
//	@Param			filename	path		string	true	"Entry filename"
//	@Success		200			{object}	EntryDetail
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{filename} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	e, err := h.db.GetEntry(filename)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
		} else {
			slog.Error("get entry failed", slog.String("filename", filename), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// GetEntryRaw handles GET /api/entries/{filename}/raw.
//
// Serves the exact persisted bytes from disk, bypassing the mirror. These
// are the bytes whose digest the successor entry links to.
//
//	@Summary		Get an entry's exact serialized bytes
//	@Tags			entries
//	@Produce		plain
//	@Param			filename	path		string	true	"Entry filename"
//	@Success		200			{string}	string
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{filename}/raw [get]
func (h *Handler) GetEntryRaw(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	data, err := h.engine.Entry(r.Context(), filename)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
		} else {
			slog.Error("get raw entry failed", slog.String("filename", filename), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across entry summaries and bodies
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.db.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

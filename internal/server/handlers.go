package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/josancamon19/sqlite-viewer/internal/db"
)

// Query-parameter bounds and defaults.
const (
	defaultLimit = 100
	maxLimit     = 500
)

// handlers provides the HTTP handlers for the JSON API.
type handlers struct {
	manager *db.Manager
	static  http.Handler
	logger  *slog.Logger
}

func newHandlers(manager *db.Manager, publicDir string, logger *slog.Logger) *handlers {
	return &handlers{
		manager: manager,
		static:  newStaticHandler(publicDir),
		logger:  logger,
	}
}

type errorBody struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Ready    bool    `json:"ready"`
	DBPath   *string `json:"dbPath"`
	DBExists bool    `json:"dbExists"`
}

type openRequest struct {
	Path *string `json:"path"`
}

// status reports the current handle summary.
func (h *handlers) status(w http.ResponseWriter, _ *http.Request) {
	var resp statusResponse
	if path := h.manager.Path(); path != "" {
		resp.Ready = true
		resp.DBPath = &path
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			resp.DBExists = true
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// open switches the active database to the file named in the body.
func (h *handlers) open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON body"})
		return
	}
	if req.Path == nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Missing 'path'"})
		return
	}
	if err := h.manager.Open(*req.Path); err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "dbPath": h.manager.Path()})
}

// tables lists all user tables and views.
func (h *handlers) tables(w http.ResponseWriter, r *http.Request) {
	handle, err := h.manager.Require()
	if err != nil {
		h.respondError(w, err)
		return
	}
	tables, err := handle.ListTables(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

// tableSummary describes one table or view.
func (h *handlers) tableSummary(w http.ResponseWriter, r *http.Request) {
	handle, err := h.manager.Require()
	if err != nil {
		h.respondError(w, err)
		return
	}
	summary, err := handle.TableSummary(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// tableRows serves one preview-serialized page of rows.
func (h *handlers) tableRows(w http.ResponseWriter, r *http.Request) {
	handle, err := h.manager.Require()
	if err != nil {
		h.respondError(w, err)
		return
	}

	q := r.URL.Query()
	page, err := handle.Page(r.Context(), db.PageRequest{
		Table:   chi.URLParam(r, "name"),
		OrderBy: q.Get("orderBy"),
		Dir:     coerceDirection(q.Get("dir")),
		Limit:   coerceLimit(q.Get("limit")),
		Offset:  coerceOffset(q.Get("offset")),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// tableCell serves the full value of a single cell.
func (h *handlers) tableCell(w http.ResponseWriter, r *http.Request) {
	handle, err := h.manager.Require()
	if err != nil {
		h.respondError(w, err)
		return
	}

	q := r.URL.Query()
	req := db.CellRequest{
		Table:   chi.URLParam(r, "name"),
		Column:  q.Get("column"),
		OrderBy: q.Get("orderBy"),
		Dir:     coerceDirection(q.Get("dir")),
	}
	if q.Has("offset") {
		offset := coerceOffset(q.Get("offset"))
		req.Offset = &offset
	} else if q.Has("rowid") {
		rowid, err := strconv.ParseInt(q.Get("rowid"), 10, 64)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid rowid"})
			return
		}
		req.Rowid = &rowid
	}

	cell, err := handle.Cell(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cell)
}

// apiNotFound answers any unmapped /api path.
func (h *handlers) apiNotFound(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
}

// fallback serves the UI bundle for non-API GETs and rejects everything
// else.
func (h *handlers) fallback(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		h.static.ServeHTTP(w, r)
		return
	}
	respondJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Unsupported method"})
}

// respondError maps semantic error kinds from the db layer onto HTTP
// statuses. Anything unclassified is an engine or I/O failure.
func (h *handlers) respondError(w http.ResponseWriter, err error) {
	var reqErr *db.RequestError
	var nfErr *db.NotFoundError
	switch {
	case errors.As(err, &reqErr):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: reqErr.Msg})
	case errors.As(err, &nfErr):
		respondJSON(w, http.StatusNotFound, errorBody{Error: nfErr.Msg})
	case errors.Is(err, db.ErrNoDatabase):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "No database open"})
	default:
		h.logger.Error("request failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

// respondJSON writes the payload with an explicit Content-Length so
// clients can size progress bars for large cell fetches.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"response encoding failed"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// coerceLimit clamps the page size to [1,500]. Missing, non-numeric and
// sub-minimum values collapse to the default of 100.
func coerceLimit(raw string) int {
	if raw == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return defaultLimit
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}

// coerceOffset collapses missing, non-numeric and negative offsets to 0.
func coerceOffset(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// coerceDirection yields ascending order unless the caller asked for
// exactly "desc", case-insensitively.
func coerceDirection(raw string) string {
	if strings.EqualFold(raw, "desc") {
		return "desc"
	}
	return "asc"
}

// Package handler contains the HTTP layer: request parsing, response
// writing, and nothing else. Business rules live in the service layer.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/snippetbin/internal/apperror"
	"github.com/sakif/snippetbin/internal/auth"
	"github.com/sakif/snippetbin/internal/model"
	"github.com/sakif/snippetbin/internal/service"
)

// SnippetHandler maps the snippet routes onto SnippetService operations.
type SnippetHandler struct {
	svc    *service.SnippetService
	logger *slog.Logger
}

// NewSnippetHandler creates a SnippetHandler.
func NewSnippetHandler(svc *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{svc: svc, logger: logger}
}

// snippetRequest is the JSON body of create and update requests.
//
// EVERY FIELD IS A POINTER on purpose: after decoding, nil means "the
// client didn't send this field" while a non-nil zero value means "the
// client sent an explicit empty/false". PATCH needs that distinction; PUT
// and POST resolve the nils to defaults below.
//
// `owner` is accepted in the body only so that clients can resubmit a
// previously fetched representation — it is compared against the current
// owner and never applied.
type snippetRequest struct {
	Title    *string `json:"title"`
	Code     *string `json:"code"`
	Linenos  *bool   `json:"linenos"`
	Language *string `json:"language"`
	Style    *string `json:"style"`
	Owner    *string `json:"owner"`
}

// HandleList returns all snippets in creation order.
//
// GET /snippets[?limit=N&offset=M] — public. Pagination is opt-in; without
// query parameters the full list comes back.
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, apperror.ValidationFailed("limit", "limit must be an integer"))
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, apperror.ValidationFailed("offset", "offset must be an integer"))
		return
	}

	snippets, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleCreate saves a new snippet owned by the authenticated caller.
//
// POST /snippets — requires a bearer token (enforced by RequireAuth on the
// route, re-checked here so the handler is safe even if wired without it).
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required to create snippets"))
		return
	}

	var req snippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return
	}

	snippet, err := h.svc.Create(r.Context(), userID, service.CreateSnippetInput{
		Title:    deref(req.Title, ""),
		Code:     deref(req.Code, ""),
		Linenos:  deref(req.Linenos, false),
		Language: deref(req.Language, ""),
		Style:    deref(req.Style, ""),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippet)
}

// HandleGetByID returns a single snippet.
//
// GET /snippets/{id} — public.
func (h *SnippetHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.svc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleUpdate fully replaces a snippet's client-writable fields.
//
// PUT /snippets/{id} — owner only. PUT means "here is the complete new
// representation": fields missing from the body revert to their defaults
// rather than surviving from the stored record. A body without `code` is
// therefore a validation error, exactly as on create.
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	actorID, _ := auth.UserIDFromContext(r.Context())
	title := deref(req.Title, "")
	code := deref(req.Code, "")
	linenos := deref(req.Linenos, false)
	language := deref(req.Language, model.DefaultLanguage)
	style := deref(req.Style, model.DefaultStyle)

	snippet, err := h.svc.Update(r.Context(), r.PathValue("id"), actorID, service.UpdateSnippetInput{
		Title:    &title,
		Code:     &code,
		Linenos:  &linenos,
		Language: &language,
		Style:    &style,
		Owner:    req.Owner,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandlePatch partially updates a snippet.
//
// PATCH /snippets/{id} — owner only. Only the fields present in the body
// change; the pointers pass through to the service untouched, so nil keeps
// the stored value.
func (h *SnippetHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	actorID, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.svc.Update(r.Context(), r.PathValue("id"), actorID, service.UpdateSnippetInput{
		Title:    req.Title,
		Code:     req.Code,
		Linenos:  req.Linenos,
		Language: req.Language,
		Style:    req.Style,
		Owner:    req.Owner,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet.
//
// DELETE /snippets/{id} — owner only, 204 on success.
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), r.PathValue("id"), actorID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleHighlight serves the cached HTML rendering of a snippet.
//
// GET /snippets/{id}/highlight — public, Content-Type text/html. This is
// the only place the `highlighted` field leaves the server, and it is
// served exactly as stored — no recomputation on read.
func (h *SnippetHandler) HandleHighlight(w http.ResponseWriter, r *http.Request) {
	html, err := h.svc.GetHighlighted(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(html)); err != nil {
		h.logger.Error("failed to write highlight response", slog.String("error", err.Error()))
	}
}

// decodeBody decodes a snippetRequest, writing the 400 itself on failure.
func (h *SnippetHandler) decodeBody(w http.ResponseWriter, r *http.Request) (snippetRequest, bool) {
	var req snippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return req, false
	}
	return req, true
}

// queryInt parses an optional integer query parameter, 0 when absent.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// deref returns *p, or fallback when p is nil.
func deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notetidy/internal/settings"
	"github.com/starford/notetidy/internal/tidy"
)

// SettingsStore reads and updates the persisted settings.
type SettingsStore interface {
	Snapshot() settings.Settings
	Update(fn func(*settings.Settings)) (settings.Settings, error)
}

// Handler holds API route handlers.
type Handler struct {
	svc   *tidy.Service
	store SettingsStore
}

// NewHandler creates a new Handler.
func NewHandler(svc *tidy.Service, store SettingsStore) *Handler {
	return &Handler{svc: svc, store: store}
}

// notePath extracts the note path from the URL (everything matched by the wildcard).
// Supports encoded slashes from OpenAPI clients (e.g. Clippings%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List the notes in the target folder
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	NoteListResponse
//	@Failure		412	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListNotes(r.Context(), h.store.Snapshot())
	if err != nil {
		writeError(w, "list notes", "", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Get a single note by path
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	models.Note
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.ReadNote(r.Context(), path)
	if err != nil {
		writeError(w, "get note", path, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// StampNote handles POST /api/notes/stamp/*.
func (h *Handler) StampNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	res, err := h.svc.StampCreated(r.Context(), h.store.Snapshot(), path)
	if err != nil {
		writeError(w, "stamp note", path, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// StripNote handles POST /api/notes/strip/*.
//
//	@Summary		Remove annotation clutter from a note
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Param			dry_run	query		bool	false	"Preview the change without writing"
//	@Success		200		{object}	StripResponse
//	@Failure		404		{object}	errResponse
//	@Failure		412		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/strip/{path} [post]
func (h *Handler) StripNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))
	res, err := h.svc.StripNote(r.Context(), h.store.Snapshot(), path, dryRun)
	if err != nil {
		writeError(w, "strip note", path, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SummarizeNote handles POST /api/notes/summarize/*. The placeholder is
// written before the response; the summary replaces it in the background
// and is announced on the event stream.
//
//	@Summary		Summarize a note into its summary section
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		202		{object}	SummaryAccepted
//	@Failure		404		{object}	errResponse
//	@Failure		412		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/summarize/{path} [post]
func (h *Handler) SummarizeNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	ps, err := h.svc.StartSummary(r.Context(), h.store.Snapshot(), path)
	if err != nil {
		writeError(w, "summarize note", path, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ps)
}

// Journal handles GET /api/journal.
//
//	@Summary		List recorded note operations
//	@Tags			journal
//	@Produce		json
//	@Param			path	query		string	false	"Filter by note path"
//	@Param			action	query		string	false	"Filter by action"	Enums(stamp, strip, summarize)
//	@Param			limit	query		int		false	"Max entries"
//	@Success		200		{object}	JournalResponse
//	@Security		BearerAuth
//	@Router			/journal [get]
func (h *Handler) Journal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	entries, err := h.svc.History(r.Context(), q.Get("path"), q.Get("action"), limit)
	if err != nil {
		writeError(w, "journal", q.Get("path"), err)
		return
	}
	writeJSON(w, http.StatusOK, JournalResponse{Entries: entries})
}

// GetSettings handles GET /api/settings. The API key is redacted.
func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot().Redacted())
}

// UpdateSettings handles PUT /api/settings.
//
//	@Summary		Update the target folder and/or API key
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		UpdateSettingsRequest	true	"Fields to change"
//	@Success		200		{object}	SettingsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	next, err := h.store.Update(func(s *settings.Settings) {
		if req.TargetFolder != nil {
			s.TargetFolder = *req.TargetFolder
		}
		if req.APIKey != nil {
			s.APIKey = *req.APIKey
		}
	})
	if err != nil {
		writeError(w, "update settings", "", err)
		return
	}
	writeJSON(w, http.StatusOK, next.Redacted())
}

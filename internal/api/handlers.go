package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/starford/daybook/internal/journal"
)

// Handler holds API route handlers.
type Handler struct {
	svc *journal.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *journal.Service) *Handler {
	return &Handler{svc: svc}
}

// ListDays handles GET /api/days.
//
//	@Summary		List catalogued days in an inclusive date range
//	@Tags			days
//	@Produce		json
//	@Param			from	query		string	false	"First date (any recognisable format)"
//	@Param			to		query		string	false	"Last date"
//	@Success		200		{object}	DayListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/days [get]
func (h *Handler) ListDays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := h.svc.ListDays(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, r, "list days", err)
		return
	}
	writeJSON(w, http.StatusOK, DayListResponse{Days: days})
}

// GetDay handles GET /api/days/{date}.
//
//	@Summary		Get the note of one day
//	@Description	A day without a note returns an empty placeholder with exists=false.
//	@Tags			days
//	@Produce		json
//	@Param			date	path		string	true	"Date, e.g. 2026-10-19"
//	@Success		200		{object}	Day
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/days/{date} [get]
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	day, err := h.svc.Day(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, r, "get day", err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

// PutDay handles PUT /api/days/{date}.
//
//	@Summary		Replace the content of a day
//	@Description	Content with neither text nor images deletes the note.
//	@Tags			days
//	@Accept			json
//	@Produce		json
//	@Param			date	path		string			true	"Date"
//	@Param			body	body		PutDayRequest	true	"Editor markup"
//	@Success		200		{object}	DayChange
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/days/{date} [put]
func (h *Handler) PutDay(w http.ResponseWriter, r *http.Request) {
	var req PutDayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	change, err := h.svc.ContentChanged(r.Context(), chi.URLParam(r, "date"), req.HTMLContent)
	if err != nil {
		writeError(w, r, "put day", err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

// DeleteDay handles DELETE /api/days/{date}.
//
//	@Summary		Delete the note of one day
//	@Description	Deleting a day without a note succeeds.
//	@Tags			days
//	@Param			date	path	string	true	"Date"
//	@Success		204		"Note deleted"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/days/{date} [delete]
func (h *Handler) DeleteDay(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDay(r.Context(), chi.URLParam(r, "date")); err != nil {
		writeError(w, r, "delete day", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAll handles DELETE /api/days.
//
//	@Summary		Delete every note
//	@Tags			days
//	@Produce		json
//	@Param			confirm	query		bool	true	"Must be true"
//	@Success		200		{object}	DeleteAllResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/days [delete]
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	deleted, err := h.svc.DeleteAll(r.Context(), confirmed)
	if err != nil {
		writeError(w, r, "delete all", err)
		return
	}
	if deleted == nil {
		deleted = []string{}
	}
	writeJSON(w, http.StatusOK, DeleteAllResponse{Deleted: deleted})
}

// Month handles GET /api/calendar/{year}/{month}.
//
//	@Summary		Month grid with note presence colours
//	@Tags			calendar
//	@Produce		json
//	@Param			year		path		int		true	"Year"
//	@Param			month		path		int		true	"Month (1-12)"
//	@Param			selected	query		string	false	"Selected date"
//	@Success		200			{object}	MonthResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/calendar/{year}/{month} [get]
func (h *Handler) Month(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 || year > 9999 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid year"))
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid month"))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Calendar(year, time.Month(month), r.URL.Query().Get("selected")))
}

// RebuildCalendar handles POST /api/calendar/rebuild.
//
//	@Summary		Rebuild presence and catalog from disk
//	@Tags			calendar
//	@Success		204	"Rebuilt"
//	@Security		BearerAuth
//	@Router			/calendar/rebuild [post]
func (h *Handler) RebuildCalendar(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Rebuild(r.Context()); err != nil {
		writeError(w, r, "rebuild", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

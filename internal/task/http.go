package task

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Handler serves the JSON API under /api/tasks.
type Handler struct {
	svc *Service
	log logrus.FieldLogger
}

func NewHandler(svc *Service, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{svc: svc, log: log}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		return 0, false
	}
	return id, true
}

// writeServiceErr maps domain errors onto status codes.
func (h *Handler) writeServiceErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeErr(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrEmptyName), errors.Is(err, ErrInvalidRecurrence), errors.Is(err, ErrInvalidDate):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrMalformedRows):
		writeErr(w, http.StatusConflict, err.Error())
	default:
		h.log.WithError(err).WithField("path", r.URL.Path).Error("task command failed")
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

// GET /api/tasks
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	b := h.svc.Board(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"today": FormatDate(b.Today),
		"cards": b.Cards,
		"names": b.Names,
	})
}

type createRequest struct {
	Name       string `json:"task"`
	DueDate    string `json:"dueDate"`
	Recurrence *int   `json:"recurrence"`
	Notes      string `json:"notes"`
}

// POST /api/tasks
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in createRequest
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}

	nt := NewTask{Name: in.Name, Notes: in.Notes}
	if strings.TrimSpace(in.DueDate) != "" {
		due, err := ParseDate(in.DueDate)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		nt.DueDate = due
	}
	if in.Recurrence != nil {
		if *in.Recurrence < 1 {
			writeErr(w, http.StatusBadRequest, ErrInvalidRecurrence.Error())
			return
		}
		nt.Recurrence = *in.Recurrence
	}

	t, err := h.svc.Add(r.Context(), nt)
	if err != nil {
		h.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// POST /api/tasks/{id}/complete
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid task id")
		return
	}
	t, err := h.svc.Complete(r.Context(), id)
	if err != nil {
		h.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"task":    t,
		"nextDue": FormatDate(t.DueDate),
	})
}

// DELETE /api/tasks?name=
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeErr(w, http.StatusBadRequest, `missing query parameter "name"`)
		return
	}
	removed, err := h.svc.Delete(r.Context(), name)
	if err != nil {
		h.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "removed": removed})
}

// GET /api/tasks/{id}/calendar.ics
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid task id")
		return
	}
	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeServiceErr(w, r, err)
		return
	}
	body, err := BuildTaskCalendarICS(t, time.Now())
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="task-`+strconv.Itoa(t.ID)+`.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

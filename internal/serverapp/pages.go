package serverapp

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"hometasks/internal/auth"
	"hometasks/internal/task"
	"hometasks/ui/page"
)

const flashCookie = "hometasks_flash"

// pageHandler serves the HTML dashboard. Every POST ends in a 303 back to /
// so a reload never repeats the action.
type pageHandler struct {
	svc  *task.Service
	auth *auth.Service
	log  logrus.FieldLogger
}

func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the flash message.
func popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}

func backHome(w http.ResponseWriter, r *http.Request, flash string) {
	if flash != "" {
		setFlash(w, flash)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

const notSaved = "Not saved: some rows in the task sheet cannot be read, fix them first"

// failed reports a store write failure. The action is interrupted.
func (p *pageHandler) failed(w http.ResponseWriter, r *http.Request, err error) {
	p.log.WithError(err).WithField("path", r.URL.Path).Error("task command failed")
	http.Error(w, "could not save tasks, please try again", http.StatusInternalServerError)
}

// GET /login
func (p *pageHandler) Login(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.auth.AuthenticateRequest(r, time.Now()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	q := r.URL.Query()
	renderPage(w, r, page.LoginPage(page.LoginData{Next: q.Get("next"), Failed: q.Get("error") != ""}))
}

// GET /
func (p *pageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	flash := popFlash(w, r)
	renderPage(w, r, page.DashboardPage(page.DashboardData{
		Board:             p.svc.Board(r.Context()),
		Flash:             flash,
		DefaultRecurrence: p.svc.DefaultRecurrence(),
		AuthEnabled:       p.auth.Enabled(),
	}))
}

// POST /tasks
func (p *pageHandler) Add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	in := task.NewTask{
		Name:  r.PostForm.Get("task"),
		Notes: r.PostForm.Get("notes"),
	}
	if v := strings.TrimSpace(r.PostForm.Get("due_date")); v != "" {
		due, err := task.ParseDate(v)
		if err != nil {
			backHome(w, r, "Task not added: invalid due date")
			return
		}
		in.DueDate = due
	}
	if v := strings.TrimSpace(r.PostForm.Get("recurrence")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			backHome(w, r, "Task not added: repeat interval must be at least 1 day")
			return
		}
		in.Recurrence = n
	}

	t, err := p.svc.Add(r.Context(), in)
	switch {
	case errors.Is(err, task.ErrEmptyName):
		backHome(w, r, "")
	case errors.Is(err, task.ErrMalformedRows):
		backHome(w, r, notSaved)
	case err != nil:
		p.failed(w, r, err)
	default:
		backHome(w, r, "Added: "+t.Name)
	}
}

// POST /tasks/{id}/complete
func (p *pageHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		backHome(w, r, "")
		return
	}
	t, err := p.svc.Complete(r.Context(), id)
	switch {
	case errors.Is(err, task.ErrNotFound):
		backHome(w, r, "")
	case errors.Is(err, task.ErrMalformedRows):
		backHome(w, r, notSaved)
	case err != nil:
		p.failed(w, r, err)
	default:
		backHome(w, r, "Done! Next due: "+task.FormatDate(t.DueDate))
	}
}

// POST /tasks/delete
func (p *pageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	name := r.PostForm.Get("name")
	if name == "" {
		backHome(w, r, "")
		return
	}
	removed, err := p.svc.Delete(r.Context(), name)
	switch {
	case errors.Is(err, task.ErrMalformedRows):
		backHome(w, r, notSaved)
	case err != nil:
		p.failed(w, r, err)
	case removed == 0:
		backHome(w, r, "")
	default:
		backHome(w, r, "Deleted!")
	}
}

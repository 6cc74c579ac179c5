package serverapp

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hometasks/internal/config"
	"hometasks/internal/gateway"
	"hometasks/internal/task"
)

type testApp struct {
	app     *App
	gw      gateway.Gateway
	cookies map[string]*http.Cookie
}

func newTestApp(t *testing.T, password string) *testApp {
	t.Helper()
	var cfg config.Config
	cfg.ApplyDefaults()
	cfg.Store.Backend = "memory"
	cfg.Tasks.Timezone = "UTC"
	cfg.Auth.Password = password

	gw := gateway.NewMemory(gateway.Table{})
	logger, _ := test.NewNullLogger()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	app, err := New(Options{
		Config:  &cfg,
		Gateway: gw,
		Logger:  logger,
		Clock:   func() time.Time { return now },
	})
	require.NoError(t, err)
	return &testApp{app: app, gw: gw, cookies: map[string]*http.Cookie{}}
}

func (a *testApp) request(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range a.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.app.Handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(a.cookies, c.Name)
			continue
		}
		cp := *c
		a.cookies[c.Name] = &cp
	}
	return rec
}

func (a *testApp) form(path string, values url.Values) *httptest.ResponseRecorder {
	return a.request(http.MethodPost, path, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

func (a *testApp) rows(t *testing.T) [][]string {
	t.Helper()
	tb, err := a.gw.Read(context.Background())
	require.NoError(t, err)
	return tb.Rows
}

func TestServer_ProtectedRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t, "hunter2")

	res := app.request(http.MethodGet, "/api/tasks", nil, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = app.request(http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login?next=%2F", res.Header().Get("Location"))

	res = app.form("/tasks", url.Values{"task": {"Sneaky"}})
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Empty(t, app.rows(t))

	res = app.request(http.MethodGet, "/login", nil, "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Enter Password to Access")
}

func TestServer_LoginThenDashboardFlow(t *testing.T) {
	app := newTestApp(t, "hunter2")

	res := app.form("/login", url.Values{"password": {"hunter2"}, "next": {"/"}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Contains(t, app.cookies, "hometasks_session")

	res = app.form("/tasks", url.Values{"task": {"Water plants"}, "due_date": {"2024-03-09"}, "recurrence": {"3"}, "notes": {"*ferns* too"}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))

	res = app.request(http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Added: Water plants")
	assert.Contains(t, body, "🔴 Overdue • Every 3 days")
	assert.Contains(t, body, "<em>ferns</em>")

	res = app.request(http.MethodGet, "/", nil, "")
	assert.NotContains(t, res.Body.String(), "Added: Water plants", "flash is shown once")

	res = app.form("/tasks/1/complete", nil)
	require.Equal(t, http.StatusSeeOther, res.Code)
	res = app.request(http.MethodGet, "/", nil, "")
	assert.Contains(t, res.Body.String(), "Done! Next due: 2024-03-12")
	assert.Equal(t, [][]string{{"1", "Water plants", "2024-03-12", "3", "*ferns* too"}}, app.rows(t))

	res = app.form("/tasks/delete", url.Values{"name": {"Water plants"}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	res = app.request(http.MethodGet, "/", nil, "")
	assert.Contains(t, res.Body.String(), "Deleted!")
	assert.Contains(t, res.Body.String(), "No tasks found")
	assert.Empty(t, app.rows(t))
}

func TestServer_FormRejectsInvalidInputWithoutChange(t *testing.T) {
	app := newTestApp(t, "")

	for _, v := range []url.Values{
		{"task": {""}},
		{"task": {"x"}, "recurrence": {"0"}},
		{"task": {"x"}, "due_date": {"someday"}},
	} {
		res := app.form("/tasks", v)
		assert.Equal(t, http.StatusSeeOther, res.Code)
	}
	assert.Empty(t, app.rows(t))

	res := app.form("/tasks/77/complete", nil)
	assert.Equal(t, http.StatusSeeOther, res.Code)
}

func TestServer_APIRoundTripAndCalendarExport(t *testing.T) {
	app := newTestApp(t, "")

	res := app.request(http.MethodPost, "/api/tasks", strings.NewReader(`{"task":"Change filter","recurrence":90}`), "application/json")
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	res = app.request(http.MethodGet, "/api/tasks", nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"today":"2024-03-10"`)
	assert.Contains(t, res.Body.String(), `"urgency":"due_soon"`)

	res = app.request(http.MethodPost, "/api/tasks/1/complete", nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"nextDue":"2024-06-08"`)

	res = app.request(http.MethodGet, "/api/tasks/1/calendar.ics", nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "DTSTART;VALUE=DATE:20240608")

	res = app.request(http.MethodGet, "/api/stats?since=2000-01-01", nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"task_completions":1`)

	res = app.request(http.MethodDelete, "/api/tasks?name=Change+filter", nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"removed":1`)
}

func TestServer_HealthReadinessAndMetrics(t *testing.T) {
	app := newTestApp(t, "hunter2")

	res := app.request(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.NotEmpty(t, res.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", res.Header().Get("X-Content-Type-Options"))

	res = app.request(http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, res.Code, "a store without an ID column is not ready")

	_, err := app.app.Tasks.Add(context.Background(), task.NewTask{Name: "Sweep"})
	require.NoError(t, err)
	res = app.request(http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusOK, res.Code)

	res = app.request(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "http_requests_total")
	assert.Contains(t, res.Body.String(), `hometasks_events_total{type="task_created"} 1`)
}

func TestServer_EmbeddedStatic(t *testing.T) {
	app := newTestApp(t, "")
	res := app.request(http.MethodGet, "/static/css/app.css", nil, "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), ".card")
}

func TestListenAndServe_Shutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- ListenAndServe(ctx, "127.0.0.1:0", http.NotFoundHandler(), nil, ready)
	}()

	addr := <-ready
	res, err := http.Get("http://" + addr.String() + "/")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_APIIndexListsRoutes(t *testing.T) {
	app := newTestApp(t, "")

	res := app.request(http.MethodGet, "/api", nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"pattern":"/api/tasks/{id}/complete"`)
	assert.Contains(t, res.Body.String(), `"method":"DELETE"`)
}

func TestServer_FormsRefuseToOverwriteUnreadableRows(t *testing.T) {
	app := newTestApp(t, "")
	seeded := gateway.Table{
		Columns: task.Columns,
		Rows: [][]string{
			{"1", "Sweep", "2024-03-01", "7", ""},
			{"2", "Dust", "1/5/2024", "7", ""},
		},
	}
	require.NoError(t, app.gw.Update(context.Background(), seeded))

	res := app.form("/tasks", url.Values{"task": {"Laundry"}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	res = app.form("/tasks/1/complete", nil)
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, seeded.Rows, app.rows(t))

	res = app.request(http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Not saved: some rows in the task sheet cannot be read")
	assert.Contains(t, res.Body.String(), "Sweep")
}

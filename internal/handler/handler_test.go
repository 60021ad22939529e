package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tahsinmert/AgendaGenius/internal/config"
	"github.com/tahsinmert/AgendaGenius/internal/encoder"
	"github.com/tahsinmert/AgendaGenius/internal/export"
	"github.com/tahsinmert/AgendaGenius/internal/model"
	"github.com/tahsinmert/AgendaGenius/internal/notice"
	"github.com/tahsinmert/AgendaGenius/internal/service"
	"github.com/tahsinmert/AgendaGenius/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, demo bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Demo.AgendaDelay = 0
	cfg.Demo.ChatDelay = 0
	cfg.Demo.ChunkInterval = 0

	store := storage.NewMemoryStorage()
	require.NoError(t, store.Init())

	svc, err := service.NewAssistantService(context.Background(), cfg, store, notice.NewCenter(time.Minute), service.NewModeSelector(demo), nil)
	require.NoError(t, err)

	router := gin.New()
	RegisterRoutes(router.Group("/api"), svc)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) model.WorkspaceResponse {
	t.Helper()
	var resp model.WorkspaceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func createWorkspace(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/workspaces", nil)
	require.Equal(t, http.StatusOK, w.Code)
	return decode(t, w).WorkspaceID
}

func uploadFile(t *testing.T, router *gin.Engine, workspaceID, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/workspaces/"+workspaceID+"/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrWorkspaceNotFound, http.StatusNotFound},
		{service.ErrFileNotFound, http.StatusNotFound},
		{&service.IndexError{Index: 3, Len: 1}, http.StatusBadRequest},
		{service.ErrNoFiles, http.StatusBadRequest},
		{service.ErrInvalidDuration, http.StatusBadRequest},
		{fmt.Errorf("%w: big.pdf", encoder.ErrFileTooLarge), http.StatusRequestEntityTooLarge},
		{export.ErrInvalidMarkdown, http.StatusBadRequest},
		{service.ErrNoAgenda, http.StatusConflict},
		{service.ErrBusy, http.StatusConflict},
		{&service.ConfigurationError{Reason: "missing key"}, http.StatusPreconditionFailed},
		{&service.GenerationError{Op: "generate agenda", Err: errors.New("boom")}, http.StatusBadGateway},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestModeRoutes(t *testing.T) {
	router := newTestRouter(t, true)

	w := doJSON(t, router, http.MethodGet, "/api/mode", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mode model.ModeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mode))
	assert.True(t, mode.DemoMode)

	w = doJSON(t, router, http.MethodPut, "/api/mode", gin.H{"demo_mode": false})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mode))
	assert.False(t, mode.DemoMode)

	w = doJSON(t, router, http.MethodPut, "/api/mode", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/suggestions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Summarize the key decisions")
}

func TestAgendaFlow(t *testing.T) {
	router := newTestRouter(t, true)
	id := createWorkspace(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/workspaces/"+id+"/generate", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = uploadFile(t, router, id, "brief.txt", "Launch in Q3")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, decode(t, w).Files, 1)

	w = doJSON(t, router, http.MethodPost, "/api/workspaces/"+id+"/generate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode(t, w)
	require.NotNil(t, view.Agenda)
	require.NotNil(t, view.Schedule)
	assert.Equal(t, "10:15", view.Schedule.End)

	w = doJSON(t, router, http.MethodPut, "/api/workspaces/"+id+"/agenda/items/0", gin.H{
		"title":           "Kickoff",
		"description":     "Short intro",
		"durationMinutes": 5,
		"presenter":       "Sarah",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decode(t, w)
	assert.Equal(t, "Kickoff", view.Agenda.AgendaItems[0].Title)
	assert.Equal(t, "10:05", view.Schedule.End)

	w = doJSON(t, router, http.MethodPut, "/api/workspaces/"+id+"/agenda/items/9", gin.H{"title": "Nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, router, http.MethodPut, "/api/workspaces/"+id+"/agenda/items/abc", gin.H{"title": "Nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/workspaces/"+id+"/agenda/stakeholders", gin.H{"name": "Grace Hopper", "role": "Advisor"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w).Initials, "GH")

	w = doJSON(t, router, http.MethodDelete, "/api/workspaces/"+id+"/agenda/stakeholders/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w).Agenda.Stakeholders, 4)

	w = doJSON(t, router, http.MethodGet, "/api/workspaces/"+id+"/export/markdown", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "meeting-agenda.md")
	markdown := w.Body.String()
	assert.True(t, strings.HasPrefix(markdown, "# Q3 Product Launch Strategy"))

	w = doJSON(t, router, http.MethodGet, "/api/workspaces/"+id+"/export/text", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "- Kickoff (5 min): Short intro")

	w = doJSON(t, router, http.MethodDelete, "/api/workspaces/"+id+"/agenda", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decode(t, w)
	assert.Nil(t, view.Agenda)
	assert.Empty(t, view.Files)

	w = doJSON(t, router, http.MethodGet, "/api/workspaces/"+id+"/export/text", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/workspaces/"+id+"/agenda/import", gin.H{"markdown": markdown})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Q3 Product Launch Strategy", decode(t, w).Agenda.MeetingTitle)

	w = doJSON(t, router, http.MethodPost, "/api/workspaces/"+id+"/agenda/import", gin.H{"markdown": "no heading here"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/workspaces/"+id+"/notices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Agenda imported")
}

func TestRemoveFile(t *testing.T) {
	router := newTestRouter(t, true)
	id := createWorkspace(t, router)

	view := decode(t, uploadFile(t, router, id, "notes.md", "# Notes"))
	require.Len(t, view.Files, 1)

	w := doJSON(t, router, http.MethodDelete, "/api/workspaces/"+id+"/files/"+view.Files[0].ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w).Files)

	w = doJSON(t, router, http.MethodDelete, "/api/workspaces/"+id+"/files/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatStream(t *testing.T) {
	router := newTestRouter(t, true)
	id := createWorkspace(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/workspaces/"+id+"/chat/stream", gin.H{"message": "What is the plan?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "event: status")
	assert.Contains(t, body, "event: message")
	assert.Contains(t, body, `"done":true`)
	assert.Contains(t, body, "data: [DONE]")

	w = doJSON(t, router, http.MethodGet, "/api/workspaces/"+id+"/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Messages []model.ChatMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, model.RoleUser, resp.Messages[0].Role)
	assert.NotEmpty(t, resp.Messages[1].Text)

	w = doJSON(t, router, http.MethodPost, "/api/workspaces/"+id+"/chat/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"cancelled":false}`, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/workspaces/"+id+"/chat/stream", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatStreamWithoutCredential(t *testing.T) {
	router := newTestRouter(t, false)
	id := createWorkspace(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/workspaces/"+id+"/chat/stream", gin.H{"message": "hello"})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	w = uploadFile(t, router, id, "brief.txt", "Launch in Q3")
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodPost, "/api/workspaces/"+id+"/generate", nil)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/workspaces/"+id+"/notices", nil)
	assert.Contains(t, w.Body.String(), "API key is missing")
}

func TestWorkspaceLifecycle(t *testing.T) {
	router := newTestRouter(t, true)
	id := createWorkspace(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/workspaces", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id)

	w = doJSON(t, router, http.MethodGet, "/api/workspaces/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode(t, w).WorkspaceID)

	w = doJSON(t, router, http.MethodDelete, "/api/workspaces/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	for _, path := range []string{
		"/api/workspaces/" + id,
		"/api/workspaces/" + id + "/messages",
		"/api/workspaces/" + id + "/notices",
	} {
		w = doJSON(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}

	w = doJSON(t, router, http.MethodDelete, "/api/workspaces/"+id+"/notices/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

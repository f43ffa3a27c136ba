package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-userboard/components/userboard"
	"github.com/goliatone/go-userboard/components/userboard/commands"
	"github.com/goliatone/go-userboard/components/userboard/queries"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(ctx context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

type stubViewQuerier struct {
	view userboard.ViewModel
}

func (s stubViewQuerier) Query(context.Context, queries.ViewInput) (userboard.ViewModel, error) {
	return s.view, nil
}

func TestHandleCreateUser(t *testing.T) {
	create := &stubCommander[commands.CreateUserInput]{}
	api := &Handlers{API: &CommandExecutor{CreateCmd: create}}
	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(`{"name":"Mew","age":150}`))
	rec := httptest.NewRecorder()
	api.HandleCreateUser(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, commands.CreateUserInput{Name: "Mew", Age: "150"}, create.last)
}

func TestHandleCreateUserMapsErrors(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"conflict":   {err: fmt.Errorf("wrapped: %w", userboard.ErrConflict), status: http.StatusConflict},
		"local":      {err: userboard.ErrInvalidUser, status: http.StatusUnprocessableEntity},
		"remote 422": {err: userboard.ErrRejected, status: http.StatusUnprocessableEntity},
		"network":    {err: userboard.ErrUnavailable, status: http.StatusBadGateway},
		"other":      {err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			create := &stubCommander[commands.CreateUserInput]{err: tc.err}
			api := &Handlers{API: &CommandExecutor{CreateCmd: create}}
			req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(`{"name":"Mew","age":"12"}`))
			rec := httptest.NewRecorder()
			api.HandleCreateUser(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestHandleDeleteUserRequiresConfirmation(t *testing.T) {
	remove := &stubCommander[commands.DeleteUserInput]{}
	api := &Handlers{API: &CommandExecutor{DeleteCmd: remove}}

	mux := http.NewServeMux()
	api.Mount(mux, "/api")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/users/Mr%20Mime?confirm=yes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mr Mime", remove.last.Name)
	assert.True(t, remove.last.Confirmed)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/users/Mew", nil))
	assert.False(t, remove.last.Confirmed)
}

func TestHandleUpload(t *testing.T) {
	upload := &uploadCommander{result: userboard.UploadResult{AddedCount: 2}}
	api := &Handlers{API: &CommandExecutor{UploadCmd: upload}}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "users.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("name,age\nMew,150\nEevee,3\n"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/users/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	api.HandleUpload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got userboard.UploadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.AddedCount)
	assert.Equal(t, "users.csv", upload.filename)
}

func TestHandleUploadWithoutFile(t *testing.T) {
	api := &Handlers{API: &CommandExecutor{UploadCmd: &uploadCommander{}}}
	req := httptest.NewRequest(http.MethodPost, "/api/users/upload", nil)
	rec := httptest.NewRecorder()
	api.HandleUpload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleViewAndRefresh(t *testing.T) {
	refresh := &stubCommander[commands.RefreshInput]{}
	api := &Handlers{
		API:  &CommandExecutor{RefreshCmd: refresh},
		View: stubViewQuerier{view: userboard.ViewModel{Total: 18, Shown: 18}},
	}
	mux := http.NewServeMux()
	api.Mount(mux, "/api/")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var view userboard.ViewModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 18, view.Total)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, refresh.calls)
}

func TestCommandExecutorRequiresCommands(t *testing.T) {
	exec := &CommandExecutor{}
	err := exec.Sort(context.Background(), commands.ToggleSortInput{Key: "age"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sort command not configured")
}

type uploadCommander struct {
	result   userboard.UploadResult
	filename string
}

func (u *uploadCommander) Execute(_ context.Context, msg commands.UploadCSVInput) error {
	u.filename = msg.Filename
	if msg.Result != nil {
		*msg.Result = u.result
	}
	return nil
}

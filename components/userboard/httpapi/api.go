package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-userboard/components/userboard"
	"github.com/goliatone/go-userboard/components/userboard/commands"
	"github.com/goliatone/go-userboard/components/userboard/queries"
)

const maxUploadBytes = 10 << 20

// UserPayload is the JSON create body. Age accepts a number or a numeric string.
type UserPayload struct {
	Name string      `json:"name"`
	Age  json.Number `json:"age"`
}

// Input converts the payload into the create command input.
func (p UserPayload) Input() commands.CreateUserInput {
	return commands.CreateUserInput{Name: p.Name, Age: p.Age.String()}
}

// Handlers exposes the JSON API on net/http.
type Handlers struct {
	API  Executor
	View gocommand.Querier[queries.ViewInput, userboard.ViewModel]
}

// Mount registers the handlers on mux under prefix.
func (h *Handlers) Mount(mux *http.ServeMux, prefix string) {
	prefix = strings.TrimRight(prefix, "/")
	mux.HandleFunc("GET "+prefix+"/users", h.HandleView)
	mux.HandleFunc("POST "+prefix+"/users", h.HandleCreateUser)
	mux.HandleFunc("POST "+prefix+"/users/upload", h.HandleUpload)
	mux.HandleFunc("DELETE "+prefix+"/users/{name}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleDeleteUser(w, r, r.PathValue("name"))
	})
	mux.HandleFunc("POST "+prefix+"/refresh", h.HandleRefresh)
}

func (h *Handlers) HandleView(w http.ResponseWriter, r *http.Request) {
	if h.View == nil {
		writeError(w, http.StatusNotImplemented, errors.New("view query not configured"))
		return
	}
	view, err := h.View.Query(r.Context(), queries.ViewInput{})
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload UserPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.API.Create(r.Context(), payload.Input()); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (h *Handlers) HandleDeleteUser(w http.ResponseWriter, r *http.Request, name string) {
	input := commands.DeleteUserInput{
		Name:      name,
		Confirmed: IsConfirmed(r.URL.Query().Get("confirm")),
	}
	if err := h.API.Delete(r.Context(), input); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, userboard.ErrNoFileSelected)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, userboard.ErrNoFileSelected)
		return
	}
	defer file.Close()

	var result userboard.UploadResult
	input := commands.UploadCSVInput{Filename: header.Filename, Content: file, Result: &result}
	if err := h.API.Upload(r.Context(), input); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.API.Refresh(r.Context(), commands.RefreshInput{}); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/analytics"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/state"
)

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeViewError maps date and view validation errors to 400
func writeViewError(w http.ResponseWriter, err error) {
	if errors.Is(err, analytics.ErrInvalidView) || errors.Is(err, state.ErrInvalidDate) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

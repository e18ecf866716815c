package handlers

import (
	"encoding/json"
	"net/http"
)

// codeNoSingleRow mirrors the upstream dialect's "single object requested,
// zero or multiple rows returned" error code.
const codeNoSingleRow = "PGRST116"

// acceptSingleObject marks a request expecting exactly one row as an object.
const acceptSingleObject = "application/vnd.pgrst.object+json"

type errorBody struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Code: code, Message: msg})
}

func wantsSingle(r *http.Request) bool {
	return r.Header.Get("Accept") == acceptSingleObject
}

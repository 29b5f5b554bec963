// Package httpjson writes JSON responses and errors in the API's shape.
package httpjson

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	Write(w, status, errorBody{Error: message})
}

// WriteCodedError adds a stable machine-readable code next to the message.
func WriteCodedError(w http.ResponseWriter, status int, code, message string) {
	Write(w, status, errorBody{Error: message, Code: code})
}

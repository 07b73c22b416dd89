package utils

import (
	"encoding/json"
	"net/http"
)

func StrPtr(s string) *string {
	return &s
}

func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteJSONError(w http.ResponseWriter, message string, code int) {
	WriteJSON(w, code, map[string]string{"error": message})
}

// WriteFieldError is WriteJSONError for input problems tied to one field.
func WriteFieldError(w http.ResponseWriter, message, field string, code int) {
	if field == "" {
		WriteJSONError(w, message, code)
		return
	}
	WriteJSON(w, code, map[string]string{"error": message, "field": field})
}

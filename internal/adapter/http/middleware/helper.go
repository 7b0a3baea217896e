package middleware

import (
	"encoding/json"
	"maps"
	"net/http"
)

type envelope map[string]any

// errorResponse sends a JSON error body; on encode failure it falls back
// to a bare 500.
func errorResponse(w http.ResponseWriter, status int, message string) {
	if err := writeJSON(w, status, envelope{"error": message}, nil); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}

	maps.Copy(w.Header(), headers)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)

	return nil
}

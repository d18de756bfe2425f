package middleware

import (
	"encoding/json"
	"net/http"
)

type errBody struct {
	Error string `json:"error"`
}

// writeJSONError rejects the request with a JSON error body. Middleware never
// exposes detail beyond the message it is given.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errBody{Error: msg})
}

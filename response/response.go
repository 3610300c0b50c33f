package response

import (
	"encoding/json"
	"net/http"
)

// WriteResponse will serialize v as the JSON body of a successful request
func WriteResponse(w http.ResponseWriter, r *http.Request, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

// WriteError will serialize e as the `{"error": ...}` body expected by the
// payment provider on a rejected delivery
func WriteError(w http.ResponseWriter, r *http.Request, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{
		Error: e.Message,
	})
}

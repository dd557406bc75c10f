package utils

import (
	"encoding/json"
	"net/http"
)

// JSONWrite sends v as a JSON body with the given status code. A zero
// status leaves net/http's default 200 in place.
func JSONWrite(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	return json.NewEncoder(w).Encode(v)
}

// JSONError sends {"error": message} with the given status code.
func JSONError(w http.ResponseWriter, status int, message string) {
	_ = JSONWrite(w, status, map[string]string{"error": message})
}

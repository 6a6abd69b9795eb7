package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// errorResponse is the JSON body for failed requests
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a {code, message} JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: errorCode(status), Message: message})
}

// errorCode names the failure class for a status code
func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "meridian.ValidationError"
	case http.StatusNotFound:
		return "meridian.NotFoundError"
	case http.StatusConflict:
		return "meridian.ConflictError"
	case http.StatusTooManyRequests:
		return "meridian.TooManyRequestsError"
	case http.StatusMethodNotAllowed:
		return "meridian.MethodNotAllowedError"
	default:
		return "meridian.ServerError"
	}
}

// requireMethod checks if the request method matches the expected method
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// extractPathParts extracts path segments after removing a prefix
func extractPathParts(urlPath, prefix string) []string {
	return strings.Split(strings.TrimPrefix(urlPath, prefix), "/")
}

// parseIntQueryParam parses an integer query parameter with bounds and a
// default
func parseIntQueryParam(r *http.Request, name string, defaultValue, min, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min {
		return defaultValue
	}
	if value > max {
		return max
	}
	return value
}

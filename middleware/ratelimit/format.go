package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func formatInt(v int) string { return strconv.Itoa(v) }

func formatInt64(v int64) string { return strconv.FormatInt(v, 10) }

func rejectMessage(retryAfterSeconds int) string {
	return "Too many requests from this IP address. Please try again in " +
		formatInt(retryAfterSeconds) + " seconds."
}

// writeJSONError responde {"error": msg}, o mesmo formato dos handlers da API.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

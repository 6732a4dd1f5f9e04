package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
)

func writeError(w http.ResponseWriter, status int, kind domain.ErrorKind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  string(kind),
	})
}

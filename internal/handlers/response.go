package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/localbite/internal/logger"
	"github.com/sbilibin2017/localbite/internal/models"
)

// Client-visible messages.
const (
	msgUserCreated        = "User created successfully"
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "invalid credentials"
	msgLoginSuccessful    = "login successful"
	msgInvalidRegister    = "Invalid registration data"
	msgServerError        = "Server error"
	msgUnauthorized       = "unauthorized"
)

// maxBodyBytes caps request bodies for the auth endpoints.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Errorw("failed to encode response", "err", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Message: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

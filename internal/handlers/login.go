package handlers

//go:generate mockgen -source=login.go -destination=login_mock.go -package=handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/localbite/internal/logger"
	"github.com/sbilibin2017/localbite/internal/models"
	"github.com/sbilibin2017/localbite/internal/services"
)

// Loginer defines the interface that the login service must implement.
type Loginer interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
}

// NewLoginHandler returns an HTTP handler for user login.
// A malformed body is answered like a wrong password.
// @Summary User login
// @Description Authenticate with email and password and receive a JWT valid for 15 minutes
// @Tags auth
// @Accept json
// @Produce json
// @Param loginRequest body models.LoginRequest true "Login Request"
// @Success 200 {object} models.LoginResponse "JWT token and public user"
// @Failure 400 {object} models.ErrorResponse "invalid credentials"
// @Failure 500 {object} models.ErrorResponse "Server error"
// @Router /login [post]
func NewLoginHandler(svc Loginer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest

		if err := decodeJSON(w, r, &req); err != nil {
			logger.Log.Infow("invalid login body", "err", err)
			writeMessage(w, http.StatusBadRequest, msgInvalidCredentials)
			return
		}
		if errs := validateStruct(req); errs != nil {
			writeMessage(w, http.StatusBadRequest, msgInvalidCredentials)
			return
		}

		res, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidCredentials):
				writeMessage(w, http.StatusBadRequest, msgInvalidCredentials)
			default:
				logger.Log.Errorw("internal server error", "err", err)
				writeMessage(w, http.StatusInternalServerError, msgServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, models.LoginResponse{
			Message: msgLoginSuccessful,
			Token:   res.Token,
			User:    res.User,
		})
	}
}

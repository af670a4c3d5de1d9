package handlers

//go:generate mockgen -source=register.go -destination=register_mock.go -package=handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/localbite/internal/hasher"
	"github.com/sbilibin2017/localbite/internal/logger"
	"github.com/sbilibin2017/localbite/internal/models"
	"github.com/sbilibin2017/localbite/internal/services"
)

// Registerer defines the interface that the service must implement.
type Registerer interface {
	Register(ctx context.Context, username, email, password string) error
}

// NewRegisterHandler returns an HTTP handler for user registration.
// @Summary Register a new user
// @Description Creates a new account. The email must be unique. The password is stored as a bcrypt hash.
// @Tags auth
// @Accept json
// @Produce json
// @Param registerRequest body models.RegisterRequest true "User registration request"
// @Success 201 {object} models.RegisterResponse "User created"
// @Failure 400 {object} models.ErrorResponse "User already exists / invalid registration data"
// @Failure 500 {object} models.ErrorResponse "Server error"
// @Router /register [post]
func NewRegisterHandler(svc Registerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest

		if err := decodeJSON(w, r, &req); err != nil {
			logger.Log.Infow("invalid register body", "err", err)
			writeMessage(w, http.StatusBadRequest, msgInvalidRegister)
			return
		}

		if errs := validateStruct(req); errs != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
				Message: msgInvalidRegister,
				Errors:  errs,
			})
			return
		}

		err := svc.Register(r.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrDuplicateAccount):
				writeMessage(w, http.StatusBadRequest, msgUserExists)
			case errors.Is(err, hasher.ErrTooLong):
				writeMessage(w, http.StatusBadRequest, msgInvalidRegister)
			default:
				logger.Log.Errorw("internal server error", "err", err)
				writeMessage(w, http.StatusInternalServerError, msgServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, models.RegisterResponse{
			Message: msgUserCreated,
		})
	}
}

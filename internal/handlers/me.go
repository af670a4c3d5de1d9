package handlers

import (
	"net/http"

	"github.com/sbilibin2017/localbite/internal/jwt"
	"github.com/sbilibin2017/localbite/internal/models"
)

// NewMeHandler returns the identity carried by the bearer token.
// It must be mounted behind the auth middleware.
// @Summary Current user
// @Description Returns the id and email from a valid bearer token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.MeResponse
// @Failure 401 {object} models.ErrorResponse "unauthorized"
// @Router /me [get]
func NewMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := jwt.ClaimsFromContext(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		writeJSON(w, http.StatusOK, models.MeResponse{
			ID:    claims.UserID,
			Email: claims.Email,
		})
	}
}

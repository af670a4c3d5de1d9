package handlers

//go:generate mockgen -source=health.go -destination=health_mock.go -package=handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/localbite/internal/logger"
	"github.com/sbilibin2017/localbite/internal/models"
)

// Pinger checks that the credential store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler returns an HTTP handler reporting store connectivity.
// @Summary Store connectivity
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 500 {object} models.HealthResponse
// @Router /test-db [get]
func NewHealthHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			logger.Log.Errorw("store ping failed", "err", err)
			writeJSON(w, http.StatusInternalServerError, models.HealthResponse{Connected: false})
			return
		}
		writeJSON(w, http.StatusOK, models.HealthResponse{Connected: true})
	}
}

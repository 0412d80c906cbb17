package handlers

import (
	"net/http"

	"github.com/forsetihq/flowd/internal/database"
	"github.com/forsetihq/flowd/internal/http/response"
)

type HealthHandler struct {
	store *database.Store
}

func NewHealthHandler(store *database.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready answers 503 until the database accepts connections.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := h.store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		response.Error(w, r, http.StatusServiceUnavailable, "NOT_READY", "database is unavailable", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

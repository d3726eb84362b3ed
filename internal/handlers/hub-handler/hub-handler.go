package hub_handler

import (
	"encoding/json"
	"net/http"
	"time"

	app_error "github.com/tipurk/neechat/internal/errors"
	"github.com/tipurk/neechat/internal/handlers"
	"github.com/tipurk/neechat/internal/middleware"
	"github.com/tipurk/neechat/internal/websocket"
)

type HubHandler struct {
	Hub *websocket.Hub
}

func NewHubHandler(hub *websocket.Hub) *HubHandler {
	return &HubHandler{
		Hub: hub,
	}
}

func (h *HubHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "neechat",
	})
}

func (h *HubHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	stats := h.Hub.GetHubStats()
	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		reqID = "unknown"
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("get websocket stats", stats, reqID))
	return nil
}

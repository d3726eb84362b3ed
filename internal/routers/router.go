package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tipurk/neechat/internal/events"
	"github.com/tipurk/neechat/internal/middleware"
	"github.com/tipurk/neechat/internal/presence"
	"github.com/tipurk/neechat/internal/queue"
	"github.com/tipurk/neechat/internal/websocket"
	"github.com/tipurk/neechat/state"
)

// Deps carries the shared infrastructure the route groups wire handlers to.
type Deps struct {
	State    *state.AppState
	Hub      *websocket.Hub
	Tracker  *presence.Tracker
	Sink     events.Sink
	Producer queue.Producer
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.WithRequestId)
	UserRouter(r, deps)
	ChatRouter(r, deps)
	HubRouter(r, deps)
	return r
}

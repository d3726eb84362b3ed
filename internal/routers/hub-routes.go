package routers

import (
	"github.com/go-chi/chi/v5"
	"github.com/tipurk/neechat/internal/handlers"
	hub_handler "github.com/tipurk/neechat/internal/handlers/hub-handler"
	"github.com/tipurk/neechat/internal/websocket"
)

func HubRouter(r chi.Router, deps Deps) {
	hubHandler := hub_handler.NewHubHandler(deps.Hub)

	r.Get("/api/v1/health", hubHandler.HandleHealth)
	r.Get("/api/v1/stats", handlers.WrapHandler(hubHandler.HandleGetStats))

	r.Get("/ws", deps.Hub.HandleWS(websocket.JWTAuthenticator(deps.State.JwtSecret.Public)))
}

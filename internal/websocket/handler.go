package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict origins once the frontend host is pinned down
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS is the authenticated-connect hook: it verifies identity, upgrades
// the connection, binds it to the personal channel and starts the pumps.
// Room subscriptions arrive later as joinChat commands on the socket.
func (h *Hub) HandleWS(authenticate AuthenticatorFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticate(r)
		if err != nil {
			log.Warn().Err(err).Msg("ws: handshake auth failed")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("ws: upgrade failed")
			return
		}

		client := newClient(h, conn, userID)
		h.Connect(client)
		client.Start()
	}
}

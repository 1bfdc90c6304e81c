package realtime

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// clientMessage is what subscribers send over the socket.
type clientMessage struct {
	Action string `json:"action"` // "join" or "leave"
	Room   string `json:"room"`
}

// ServeWS upgrades the request and bridges the socket to the hub. The
// deferred Unregister is the single cleanup point for the connection
// lifecycle, so no subscription outlives its socket.
func ServeWS(hub *Hub, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sock, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			log.Warn().Err(err).Msg("websocket accept failed")
			return
		}

		connID := uuid.NewString()
		events := hub.Register(connID)
		defer hub.Unregister(connID)
		defer sock.CloseNow()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer: pump hub events onto the socket.
		go func() {
			defer cancel()
			for ev := range events {
				if err := wsjson.Write(ctx, sock, ev); err != nil {
					return
				}
			}
		}()

		// Reader: room membership commands until the peer hangs up.
		for {
			var msg clientMessage
			if err := wsjson.Read(ctx, sock, &msg); err != nil {
				return
			}
			switch msg.Action {
			case "join":
				if msg.Room != "" {
					hub.Join(connID, msg.Room)
				}
			case "leave":
				if msg.Room != "" {
					hub.Leave(connID, msg.Room)
				}
			default:
				log.Debug().Str("action", msg.Action).Msg("unknown ws action ignored")
			}
		}
	}
}

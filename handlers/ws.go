package handlers

import (
	"github.com/braianruaimi/YAvoyOk-sub002/realtime"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ServeWS bridges gin to the websocket room endpoint. Sits behind
// AuthRequired so only authenticated users can subscribe.
func ServeWS(hub *realtime.Hub, log zerolog.Logger) gin.HandlerFunc {
	h := realtime.ServeWS(hub, log)
	return func(c *gin.Context) {
		h(c.Writer, c.Request)
	}
}

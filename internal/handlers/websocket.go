package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/furnihome/furnihome-backend/internal/errordata"
	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/requestdata"
	"github.com/furnihome/furnihome-backend/internal/socket"
)

// WsHandler upgrades an authenticated request and joins the connection to
// the user's channel. An empty allowedOrigins accepts any origin.
func WsHandler(hub *socket.Hub, log *logger.Logger, allowedOrigins []string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowedOrigins {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
	wsLog := log.With("handler", "WsHandler")

	return func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if rd == nil || rd.UserID == uuid.Nil {
			respondError(c, errordata.ErrUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			wsLog.Warn("Failed to upgrade to websocket", "error", err)
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		client := socket.NewClient(conn, hub, rd.UserID, cancel, wsLog)
		hub.Subscribe(client, []string{socket.UserChannel(rd.UserID)})

		go client.WriteLoop(ctx)
		go client.ReadLoop(ctx)
	}
}

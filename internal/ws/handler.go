package ws

import (
	"net/http"
	"os"

	"flip_royale/internal/domain"
	"flip_royale/internal/logger"
	"flip_royale/internal/sigauth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HandleWS upgrades to a read-only feed of one address's record updates
func HandleWS(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := domain.NormalizeAddress(c.Query("address"))
		if !sigauth.ValidAddress(address) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "valid address required", "code": domain.Code(domain.ErrInvalidRequest)})
			return
		}

		allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
		upgrader := websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "error", err)
			return
		}

		client := NewClient(address, conn, hub)
		go client.Run()
	}
}

package websocket

import (
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches a connection to the hub and blocks until it closes.
func ServeWs(hub *Hub, c *websocket.Conn, userID uuid.UUID) {
	client := newClient(hub, c, userID)
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}

// Handler upgrades GET /ws. Browsers cannot set headers on the handshake, so
// the token may come from the "token" query parameter.
func Handler(hub *Hub, jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			authHeader := c.Get("Authorization")
			if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
				tokenStr = authHeader[7:]
			}
		}
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Missing token (Query 'token' or Header 'Authorization')"))
		}

		claims, err := serverutils.ParseUserToken(tokenStr, jwtSecret)
		if err != nil {
			hub.logger.Warn(logger.ModuleHub, "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
		}

		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return websocket.New(func(conn *websocket.Conn) {
			ServeWs(hub, conn, claims.UserId)
		})(c)
	}
}

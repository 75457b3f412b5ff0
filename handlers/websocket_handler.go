package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/MarioKartCentral/registry/middleware"
	"github.com/MarioKartCentral/registry/notifications"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В проде сюда нужна проверка Origin по списку доверенных доменов.
		return true
	},
}

type WebSocketHandler struct {
	hub    *notifications.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *notifications.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// ServeNotifications подключает игрока к его каналу уведомлений.
func (h *WebSocketHandler) ServeNotifications(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "player profile required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to upgrade websocket connection",
			slog.Int("player_id", playerID), slog.Any("error", err))
		return
	}

	client := notifications.NewClient(h.hub, conn, playerID)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

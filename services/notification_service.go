package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// NotificationSink - fire-and-forget: успешный переход состояния шлёт событие,
// но сбой доставки никогда не откатывает само изменение.
type NotificationSink interface {
	Notify(ctx context.Context, playerIDs []int, kind string, payload interface{})
}

// Виды событий, отправляемых ядром.
const (
	NotifyTransferInvited  = "transfer/invited"
	NotifyTransferApproved = "transfer/approved"
	NotifyTransferDenied   = "transfer/denied"
	NotifySquadInvited     = "squad/invited"
	NotifyAutoRegistered   = "registration/auto_added"
	NotifyAutoRemoved      = "registration/auto_removed"
	NotifyEditApproved     = "edit_request/approved"
	NotifyEditDenied       = "edit_request/denied"
)

type notificationEvent struct {
	ID      string      `json:"id"`
	Kind    string      `json:"kind"`
	Payload interface{} `json:"payload,omitempty"`
	SentAt  time.Time   `json:"sent_at"`
}

// PlayerBroadcaster - то, что умеет хаб уведомлений: доставить байты в
// комнату игрока, не блокируясь.
type PlayerBroadcaster interface {
	SendToPlayer(playerID int, message []byte)
}

type hubNotificationSink struct {
	hub    PlayerBroadcaster
	logger *slog.Logger
}

func NewHubNotificationSink(hub PlayerBroadcaster, logger *slog.Logger) NotificationSink {
	return &hubNotificationSink{hub: hub, logger: logger}
}

func (s *hubNotificationSink) Notify(ctx context.Context, playerIDs []int, kind string, payload interface{}) {
	event := notificationEvent{
		ID:      uuid.NewString(),
		Kind:    kind,
		Payload: payload,
		SentAt:  time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to marshal notification", slog.String("kind", kind), slog.Any("error", err))
		return
	}

	for _, id := range playerIDs {
		s.hub.SendToPlayer(id, data)
	}
	s.logger.InfoContext(ctx, "notification dispatched",
		slog.String("kind", kind),
		slog.String("event_id", event.ID),
		slog.Int("recipients", len(playerIDs)),
	)
}

// noopNotificationSink используется в тестах и фоновых задачах без хаба.
type noopNotificationSink struct{}

func NewNoopNotificationSink() NotificationSink { return noopNotificationSink{} }

func (noopNotificationSink) Notify(context.Context, []int, string, interface{}) {}

package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/service/room"
	"github.com/auxroom/server/pkg/wsrelay"
)

// serveRoomChannel upgrades the connection and relays broadcast envelopes
// between the room's members. The relay never interprets payloads beyond
// persisting chat history; ordering across senders is whatever the network
// gives us, and delivery is at-most-once. All reconciliation happens on
// the clients.
func (c controller) serveRoomChannel(w http.ResponseWriter, r *http.Request) {
	roomID := c.getRoomID(r)

	token := r.URL.Query().Get("token")
	claims, err := c.roomService.ParseToken(token)
	if err != nil || claims.RoomID != roomID {
		c.respondError(w, http.StatusUnauthorized, "invalid auth token")
		return
	}

	// self=true echoes the sender's own events back, for transports that
	// want self-delivery.
	selfDelivery := r.URL.Query().Get("self") == "true"

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to upgrade connection", "err", err)
		return
	}

	sender := wsrelay.NewSender(conn)
	if err := c.connRepo.Add(sender, roomID, claims.UserID); err != nil {
		c.logger.InfoContext(r.Context(), "duplicate connection", "userID", claims.UserID, "err", err)
		sender.Close()
		return
	}

	defer func() {
		c.connRepo.RemoveBySender(sender)
		sender.Close()
	}()

	for {
		var env wsrelay.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.logger.DebugContext(r.Context(), "channel closed", "userID", claims.UserID, "err", err)
			return
		}

		if env.Event == domain.EventChatMessage {
			c.persistChatMessage(r.Context(), roomID, &env)
		}

		except := sender
		if selfDelivery {
			except = nil
		}

		dead := wsrelay.Broadcast(c.connRepo.GetRoomSenders(roomID), &env, except)
		for _, d := range dead {
			c.connRepo.RemoveBySender(d)
			d.Close()
		}
	}
}

func (c controller) persistChatMessage(ctx context.Context, roomID string, env *wsrelay.Envelope) {
	var payload domain.ChatMessagePayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return
	}

	// Persistence must not block the relay loop; history is best-effort.
	ctx = context.WithoutCancel(ctx)
	go func() {
		if _, err := c.roomService.AppendChatMessage(ctx, &room.AppendChatMessageParams{
			Message: payload.Message,
			RoomID:  roomID,
		}); err != nil {
			c.logger.Error("failed to persist chat message", "err", err)
		}
	}()
}

package room

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/repository/room"
)

type AppendChatMessageParams struct {
	Message domain.ChatMessage
	RoomID  string
}

func (s service) AppendChatMessage(ctx context.Context, params *AppendChatMessageParams) (domain.ChatMessage, error) {
	msg := params.Message
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = s.now().UnixMilli()
	}

	if err := s.roomRepo.AppendChatMessage(ctx, &room.AppendChatMessageParams{
		Message: msg,
		RoomID:  params.RoomID,
	}); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("failed to append chat message: %w", err)
	}

	return msg, nil
}

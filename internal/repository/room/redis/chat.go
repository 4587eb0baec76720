package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/repository/room"
)

func (r repo) AppendChatMessage(ctx context.Context, params *room.AppendChatMessageParams) error {
	data, err := json.Marshal(params.Message)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}

	chatKey := r.getChatKey(params.RoomID)
	pipe := r.rc.TxPipeline()
	pipe.RPush(ctx, chatKey, data)
	pipe.LTrim(ctx, chatKey, -chatHistoryLimit, -1)
	pipe.Expire(ctx, chatKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	return nil
}

func (r repo) GetChatHistory(ctx context.Context, roomID string) ([]domain.ChatMessage, error) {
	chatKey := r.getChatKey(roomID)
	items, err := r.rc.LRange(ctx, chatKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}

	messages := make([]domain.ChatMessage, 0, len(items))
	for _, item := range items {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chat message: %w", err)
		}

		messages = append(messages, msg)
	}

	r.rc.Expire(ctx, chatKey, r.expireDuration)

	return messages, nil
}

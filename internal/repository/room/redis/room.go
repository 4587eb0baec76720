package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/repository/room"
)

func (r repo) SetRoom(ctx context.Context, params *room.SetRoomParams) error {
	data, err := json.Marshal(params.Room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	roomKey := r.getRoomKey(params.RoomID)
	if err := r.rc.Set(ctx, roomKey, data, r.expireDuration).Err(); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	roomKey := r.getRoomKey(roomID)
	data, err := r.rc.Get(ctx, roomKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return domain.Room{}, room.ErrRoomNotFound
		}
		return domain.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	var rm domain.Room
	if err := json.Unmarshal(data, &rm); err != nil {
		return domain.Room{}, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	r.rc.Expire(ctx, roomKey, r.expireDuration)

	return rm, nil
}

func (r repo) IsRoomExists(ctx context.Context, roomID string) (bool, error) {
	res, err := r.rc.Exists(ctx, r.getRoomKey(roomID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if room exists: %w", err)
	}

	return res > 0, nil
}

func (r repo) UpdateRoomName(ctx context.Context, params *room.UpdateRoomNameParams) error {
	rm, err := r.GetRoom(ctx, params.RoomID)
	if err != nil {
		return err
	}

	rm.Name = params.Name

	return r.SetRoom(ctx, &room.SetRoomParams{Room: rm, RoomID: params.RoomID})
}

func (r repo) RemoveRoom(ctx context.Context, roomID string) error {
	if err := r.rc.Del(ctx,
		r.getRoomKey(roomID),
		r.getPlayerKey(roomID),
		r.getPlaylistKey(roomID),
		r.getUsersKey(roomID),
		r.getChatKey(roomID),
	).Err(); err != nil {
		return fmt.Errorf("failed to remove room: %w", err)
	}

	return nil
}

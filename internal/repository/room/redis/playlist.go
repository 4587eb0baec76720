package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/repository/room"
)

// Playlist mutations write the full resulting list, not a diff, so a
// late-arriving stale write is superseded wholesale by any later one.
func (r repo) SetPlaylist(ctx context.Context, params *room.SetPlaylistParams) error {
	data, err := json.Marshal(params.Playlist)
	if err != nil {
		return fmt.Errorf("failed to marshal playlist: %w", err)
	}

	playlistKey := r.getPlaylistKey(params.RoomID)
	if err := r.rc.Set(ctx, playlistKey, data, r.expireDuration).Err(); err != nil {
		return fmt.Errorf("failed to set playlist: %w", err)
	}

	return nil
}

func (r repo) GetPlaylist(ctx context.Context, roomID string) ([]domain.Track, error) {
	playlistKey := r.getPlaylistKey(roomID)
	data, err := r.rc.Get(ctx, playlistKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return []domain.Track{}, nil
		}
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}

	var playlist []domain.Track
	if err := json.Unmarshal(data, &playlist); err != nil {
		return nil, fmt.Errorf("failed to unmarshal playlist: %w", err)
	}

	r.rc.Expire(ctx, playlistKey, r.expireDuration)

	return playlist, nil
}

package redis

import (
	"context"
	"fmt"

	"github.com/auxroom/server/internal/repository/room"
	"github.com/auxroom/server/pkg/patchmap"
)

func (r repo) SetPlayer(ctx context.Context, params *room.SetPlayerParams) error {
	pipe := r.rc.TxPipeline()

	playerKey := r.getPlayerKey(params.RoomID)
	pipe.HSet(ctx, playerKey, params.Player)
	pipe.Expire(ctx, playerKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set player: %w", err)
	}

	return nil
}

func (r repo) GetPlayer(ctx context.Context, roomID string) (room.Player, error) {
	playerKey := r.getPlayerKey(roomID)
	cmd := r.rc.HGetAll(ctx, playerKey)
	if err := cmd.Err(); err != nil {
		return room.Player{}, fmt.Errorf("failed to get player: %w", err)
	}

	if len(cmd.Val()) == 0 {
		return room.Player{}, room.ErrPlayerNotFound
	}

	var player room.Player
	if err := cmd.Scan(&player); err != nil {
		return room.Player{}, fmt.Errorf("failed to scan player: %w", err)
	}

	r.rc.Expire(ctx, playerKey, r.expireDuration)

	return player, nil
}

// UpdatePlayerState writes only the fields set in the patch. Concurrent
// writers are last-write-wins per field, which the sync protocol accepts
// and self-corrects on the next heartbeat.
func (r repo) UpdatePlayerState(ctx context.Context, params *room.UpdatePlayerStateParams) error {
	playerKey := r.getPlayerKey(params.RoomID)
	cmd := r.rc.Exists(ctx, playerKey)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("failed to check if player exists: %w", err)
	}

	if cmd.Val() == 0 {
		return room.ErrPlayerNotFound
	}

	fields := patchmap.FromStruct(&params.Patch)
	if len(fields) == 0 {
		return nil
	}

	if err := r.rc.HSet(ctx, playerKey, fields).Err(); err != nil {
		return fmt.Errorf("failed to update player state: %w", err)
	}

	r.rc.Expire(ctx, playerKey, r.expireDuration)

	return nil
}

func (r repo) RemovePlayer(ctx context.Context, roomID string) error {
	res, err := r.rc.Del(ctx, r.getPlayerKey(roomID)).Result()
	if err != nil {
		return fmt.Errorf("failed to remove player: %w", err)
	}

	if res == 0 {
		return room.ErrPlayerNotFound
	}

	return nil
}

package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

func (r repo) getRoomKey(roomID string) string {
	return "room:" + roomID
}

func (r repo) getPlayerKey(roomID string) string {
	return "room:" + roomID + ":player"
}

func (r repo) getPlaylistKey(roomID string) string {
	return "room:" + roomID + ":playlist"
}

func (r repo) getUsersKey(roomID string) string {
	return "room:" + roomID + ":users"
}

func (r repo) getChatKey(roomID string) string {
	return "room:" + roomID + ":chat"
}

func (r repo) getSkipVotesKey(roomID, trackID string) string {
	return "room:" + roomID + ":votes:" + trackID
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}

package redis

import (
	"context"
	"fmt"

	"github.com/auxroom/server/internal/repository/room"
)

// AddSkipVote registers a vote and returns the vote count for the track.
// Votes are a set keyed by user id, so duplicate votes are idempotent.
func (r repo) AddSkipVote(ctx context.Context, params *room.AddSkipVoteParams) (int, error) {
	votesKey := r.getSkipVotesKey(params.RoomID, params.TrackID)
	pipe := r.rc.TxPipeline()
	pipe.SAdd(ctx, votesKey, params.UserID)
	card := pipe.SCard(ctx, votesKey)
	pipe.Expire(ctx, votesKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return 0, fmt.Errorf("failed to add skip vote: %w", err)
	}

	return int(card.Val()), nil
}

func (r repo) ClearSkipVotes(ctx context.Context, params *room.ClearSkipVotesParams) error {
	if err := r.rc.Del(ctx, r.getSkipVotesKey(params.RoomID, params.TrackID)).Err(); err != nil {
		return fmt.Errorf("failed to clear skip votes: %w", err)
	}

	return nil
}

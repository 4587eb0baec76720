package room

import (
	"context"
	"fmt"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/repository/room"
)

type UpdatePlayerStateParams struct {
	Patch      domain.PlayerStatePatch
	SenderID   string
	SenderRole domain.Role
	RoomID     string
}

type UpdatePlayerStateResponse struct {
	Player domain.PlayerState
}

// UpdatePlayerState shallow-merges the patch onto the stored record and
// returns the result. Playback-controlling fields require the
// control_player permission; the broadcast channel itself carries no
// authorization, so this is the boundary that rejects them.
func (s service) UpdatePlayerState(ctx context.Context, params *UpdatePlayerStateParams) (UpdatePlayerStateResponse, error) {
	sender := domain.User{ID: params.SenderID, Role: params.SenderRole}
	if patchControlsPlayback(&params.Patch) && !domain.CanControlPlayer(&sender) {
		return UpdatePlayerStateResponse{}, ErrPermissionDenied
	}

	patch := params.Patch
	if patch.UpdatedAt == nil && patchMovesPosition(&patch) {
		now := s.now().UnixMilli()
		patch.UpdatedAt = &now
	}

	if err := s.roomRepo.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		Patch:  patchToRepo(patch),
		RoomID: params.RoomID,
	}); err != nil {
		if err == room.ErrPlayerNotFound {
			return UpdatePlayerStateResponse{}, ErrRoomNotFound
		}
		return UpdatePlayerStateResponse{}, fmt.Errorf("failed to update player state: %w", err)
	}

	repoPlayer, err := s.roomRepo.GetPlayer(ctx, params.RoomID)
	if err != nil {
		return UpdatePlayerStateResponse{}, fmt.Errorf("failed to get player: %w", err)
	}

	return UpdatePlayerStateResponse{Player: playerFromRepo(repoPlayer)}, nil
}

func patchControlsPlayback(patch *domain.PlayerStatePatch) bool {
	return patch.IsPlaying != nil || patch.Position != nil || patch.CurrentTrackIndex != nil ||
		patch.PlaybackRate != nil || patch.RepeatMode != nil || patch.QueueMode != nil || patch.Shuffle != nil
}

func patchMovesPosition(patch *domain.PlayerStatePatch) bool {
	return patch.Position != nil || patch.IsPlaying != nil || patch.CurrentTrackIndex != nil
}

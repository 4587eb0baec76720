package room

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/repository/room"
)

type CreateRoomParams struct {
	RoomName string
	Username string
	Color    string
}

type CreateRoomResponse struct {
	Room      domain.Room
	Owner     domain.User
	AuthToken string
}

const roomIDLength = 8

func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	// Room IDs are short so they stay shareable as links; users keep uuids.
	roomID := s.generator.GenerateRandomString(roomIDLength)
	now := s.now().UnixMilli()

	owner := domain.User{
		ID:       uuid.NewString(),
		Username: params.Username,
		Color:    params.Color,
		Role:     domain.RoleOwner,
		JoinedAt: now,
	}

	rm := domain.Room{
		ID:                roomID,
		Name:              params.RoomName,
		CreatedAt:         now,
		OwnerID:           owner.ID,
		VoteSkipThreshold: s.voteSkipThreshold,
	}

	if err := s.roomRepo.SetRoom(ctx, &room.SetRoomParams{Room: rm, RoomID: roomID}); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to set room: %w", err)
	}

	if err := s.roomRepo.SetUsers(ctx, &room.SetUsersParams{Users: []domain.User{owner}, RoomID: roomID}); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to set users: %w", err)
	}

	if err := s.roomRepo.SetPlayer(ctx, &room.SetPlayerParams{
		Player: playerToRepo(domain.NewPlayerState()),
		RoomID: roomID,
	}); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to set player: %w", err)
	}

	if err := s.roomRepo.SetPlaylist(ctx, &room.SetPlaylistParams{Playlist: []domain.Track{}, RoomID: roomID}); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to set playlist: %w", err)
	}

	authToken, err := s.generateJWT(owner.ID, roomID, owner.Role)
	if err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to generate auth token: %w", err)
	}

	return CreateRoomResponse{
		Room:      rm,
		Owner:     owner,
		AuthToken: authToken,
	}, nil
}

// GetSnapshot returns the full room state for a joining client. Position is
// extrapolated from the stored snapshot when the room is mid-playback, so a
// late joiner lands where the room actually is, not where it was at the
// last write.
func (s service) GetSnapshot(ctx context.Context, roomID string) (domain.RoomSnapshot, error) {
	rm, err := s.roomRepo.GetRoom(ctx, roomID)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return domain.RoomSnapshot{}, ErrRoomNotFound
		}
		return domain.RoomSnapshot{}, fmt.Errorf("failed to get room: %w", err)
	}

	playlist, err := s.roomRepo.GetPlaylist(ctx, roomID)
	if err != nil {
		return domain.RoomSnapshot{}, fmt.Errorf("failed to get playlist: %w", err)
	}

	users, err := s.roomRepo.GetUsers(ctx, roomID)
	if err != nil {
		return domain.RoomSnapshot{}, fmt.Errorf("failed to get users: %w", err)
	}

	repoPlayer, err := s.roomRepo.GetPlayer(ctx, roomID)
	if err != nil {
		if err != room.ErrPlayerNotFound {
			return domain.RoomSnapshot{}, fmt.Errorf("failed to get player: %w", err)
		}
		repoPlayer = playerToRepo(domain.NewPlayerState())
	}
	player := playerFromRepo(repoPlayer)

	if player.IsPlaying && player.UpdatedAt != 0 {
		extrapolated := player.ExtrapolatedPosition(s.now())
		if idx := player.CurrentTrackIndex; idx >= 0 && idx < len(playlist) {
			// Do not extrapolate past the end of the track; the room will
			// have moved on, and the next heartbeat corrects it anyway.
			if extrapolated < playlist[idx].Duration {
				player.Position = extrapolated
			}
		}
	}

	chatHistory, err := s.roomRepo.GetChatHistory(ctx, roomID)
	if err != nil {
		return domain.RoomSnapshot{}, fmt.Errorf("failed to get chat history: %w", err)
	}

	return domain.RoomSnapshot{
		Room:        rm,
		Playlist:    playlist,
		Users:       users,
		PlayerState: player,
		ChatHistory: chatHistory,
	}, nil
}

type RenameRoomParams struct {
	Name       string
	SenderRole domain.Role
	RoomID     string
}

func (s service) RenameRoom(ctx context.Context, params *RenameRoomParams) (domain.Room, error) {
	sender := domain.User{Role: params.SenderRole}
	if !domain.HasPermission(&sender, domain.PermRenameRoom) {
		return domain.Room{}, ErrPermissionDenied
	}

	if err := s.roomRepo.UpdateRoomName(ctx, &room.UpdateRoomNameParams{
		Name:   params.Name,
		RoomID: params.RoomID,
	}); err != nil {
		return domain.Room{}, fmt.Errorf("failed to update room name: %w", err)
	}

	return s.roomRepo.GetRoom(ctx, params.RoomID)
}

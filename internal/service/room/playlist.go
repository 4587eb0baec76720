package room

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/repository/room"
)

type AddTrackParams struct {
	Track      domain.Track
	SenderID   string
	SenderRole domain.Role
	RoomID     string
}

type AddTrackResponse struct {
	AddedTrack domain.Track
	Playlist   []domain.Track
}

func (s service) AddTrack(ctx context.Context, params *AddTrackParams) (AddTrackResponse, error) {
	sender := domain.User{ID: params.SenderID, Role: params.SenderRole}
	if !domain.HasPermission(&sender, domain.PermAddTrack) {
		return AddTrackResponse{}, ErrPermissionDenied
	}

	playlist, err := s.roomRepo.GetPlaylist(ctx, params.RoomID)
	if err != nil {
		return AddTrackResponse{}, fmt.Errorf("failed to get playlist: %w", err)
	}

	if len(playlist) >= s.playlistLimit {
		return AddTrackResponse{}, ErrPlaylistLimitReached
	}

	track := params.Track
	if track.ID == "" {
		track.ID = uuid.NewString()
	}
	track.AddedByID = params.SenderID
	track.AddedAt = s.now().UnixMilli()

	playlist = append(playlist, track)
	if err := s.roomRepo.SetPlaylist(ctx, &room.SetPlaylistParams{Playlist: playlist, RoomID: params.RoomID}); err != nil {
		return AddTrackResponse{}, fmt.Errorf("failed to set playlist: %w", err)
	}

	return AddTrackResponse{
		AddedTrack: track,
		Playlist:   playlist,
	}, nil
}

type RemoveTrackParams struct {
	TrackID    string
	SenderID   string
	SenderRole domain.Role
	RoomID     string
}

type RemoveTrackResponse struct {
	RemovedTrack domain.Track
	Playlist     []domain.Track
}

func (s service) RemoveTrack(ctx context.Context, params *RemoveTrackParams) (RemoveTrackResponse, error) {
	playlist, err := s.roomRepo.GetPlaylist(ctx, params.RoomID)
	if err != nil {
		return RemoveTrackResponse{}, fmt.Errorf("failed to get playlist: %w", err)
	}

	newPlaylist, removed, err := domain.RemoveTrack(playlist, params.TrackID)
	if err != nil {
		return RemoveTrackResponse{}, err
	}

	sender := domain.User{ID: params.SenderID, Role: params.SenderRole}
	if !domain.CanRemoveTrack(&sender, removed) {
		return RemoveTrackResponse{}, ErrPermissionDenied
	}

	if err := s.roomRepo.SetPlaylist(ctx, &room.SetPlaylistParams{Playlist: newPlaylist, RoomID: params.RoomID}); err != nil {
		return RemoveTrackResponse{}, fmt.Errorf("failed to set playlist: %w", err)
	}

	if err := s.roomRepo.ClearSkipVotes(ctx, &room.ClearSkipVotesParams{TrackID: params.TrackID, RoomID: params.RoomID}); err != nil {
		return RemoveTrackResponse{}, fmt.Errorf("failed to clear skip votes: %w", err)
	}

	return RemoveTrackResponse{
		RemovedTrack: removed,
		Playlist:     newPlaylist,
	}, nil
}

type ReorderPlaylistParams struct {
	FromIndex  int
	ToIndex    int
	SenderID   string
	SenderRole domain.Role
	RoomID     string
}

type ReorderPlaylistResponse struct {
	Playlist []domain.Track
}

func (s service) ReorderPlaylist(ctx context.Context, params *ReorderPlaylistParams) (ReorderPlaylistResponse, error) {
	sender := domain.User{ID: params.SenderID, Role: params.SenderRole}
	if !domain.HasPermission(&sender, domain.PermMoveTrack) {
		return ReorderPlaylistResponse{}, ErrPermissionDenied
	}

	playlist, err := s.roomRepo.GetPlaylist(ctx, params.RoomID)
	if err != nil {
		return ReorderPlaylistResponse{}, fmt.Errorf("failed to get playlist: %w", err)
	}

	newPlaylist, err := domain.ReorderTracks(playlist, params.FromIndex, params.ToIndex)
	if err != nil {
		return ReorderPlaylistResponse{}, err
	}

	if err := s.roomRepo.SetPlaylist(ctx, &room.SetPlaylistParams{Playlist: newPlaylist, RoomID: params.RoomID}); err != nil {
		return ReorderPlaylistResponse{}, fmt.Errorf("failed to set playlist: %w", err)
	}

	return ReorderPlaylistResponse{Playlist: newPlaylist}, nil
}

type VoteSkipParams struct {
	TrackID  string
	SenderID string
	RoomID   string
}

type VoteSkipResponse struct {
	VoteCount     int
	RequiredVotes int
	ShouldSkip    bool
}

func (s service) VoteSkip(ctx context.Context, params *VoteSkipParams) (VoteSkipResponse, error) {
	rm, err := s.roomRepo.GetRoom(ctx, params.RoomID)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return VoteSkipResponse{}, ErrRoomNotFound
		}
		return VoteSkipResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	users, err := s.roomRepo.GetUsers(ctx, params.RoomID)
	if err != nil {
		return VoteSkipResponse{}, fmt.Errorf("failed to get users: %w", err)
	}

	voteCount, err := s.roomRepo.AddSkipVote(ctx, &room.AddSkipVoteParams{
		TrackID: params.TrackID,
		UserID:  params.SenderID,
		RoomID:  params.RoomID,
	})
	if err != nil {
		return VoteSkipResponse{}, fmt.Errorf("failed to add skip vote: %w", err)
	}

	required := int(math.Ceil(rm.VoteSkipThreshold * float64(len(users))))
	if required < 1 {
		required = 1
	}

	shouldSkip := voteCount >= required
	if shouldSkip {
		if err := s.roomRepo.ClearSkipVotes(ctx, &room.ClearSkipVotesParams{TrackID: params.TrackID, RoomID: params.RoomID}); err != nil {
			return VoteSkipResponse{}, fmt.Errorf("failed to clear skip votes: %w", err)
		}
	}

	return VoteSkipResponse{
		VoteCount:     voteCount,
		RequiredVotes: required,
		ShouldSkip:    shouldSkip,
	}, nil
}

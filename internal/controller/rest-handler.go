package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/service/room"
)

type createRoomInput struct {
	RoomName string `json:"room_name" validate:"required,min=1,max=64"`
	Username string `json:"username" validate:"required,min=1,max=32"`
	Color    string `json:"color" validate:"required,max=16"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	var input createRoomInput
	if !c.decodeAndValidate(w, r, &input) {
		return
	}

	resp, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		RoomName: input.RoomName,
		Username: input.Username,
		Color:    input.Color,
	})
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to create room", "err", err)
		c.respondServiceError(w, err)
		return
	}

	c.respondJSON(w, http.StatusCreated, map[string]any{
		"room":       resp.Room,
		"user":       resp.Owner,
		"auth_token": resp.AuthToken,
	})
}

func (c controller) getSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := c.roomService.GetSnapshot(r.Context(), c.getRoomID(r))
	if err != nil {
		c.respondServiceError(w, err)
		return
	}

	c.respondJSON(w, http.StatusOK, snapshot)
}

type renameRoomInput struct {
	Name string `json:"name" validate:"required,min=1,max=64"`
}

func (c controller) renameRoom(w http.ResponseWriter, r *http.Request) {
	var input renameRoomInput
	if !c.decodeAndValidate(w, r, &input) {
		return
	}

	claims := c.getClaims(r)
	rm, err := c.roomService.RenameRoom(r.Context(), &room.RenameRoomParams{
		Name:       input.Name,
		SenderRole: claims.Role,
		RoomID:     c.getRoomID(r),
	})
	if err != nil {
		c.respondServiceError(w, err)
		return
	}

	c.respondJSON(w, http.StatusOK, map[string]any{"room": rm})
}

type joinRosterInput struct {
	User domain.User `json:"user" validate:"required"`
}

func (c controller) joinRoster(w http.ResponseWriter, r *http.Request) {
	var input joinRosterInput
	if !c.decodeAndValidate(w, r, &input) {
		return
	}

	resp, err := c.roomService.JoinRoster(r.Context(), &room.JoinRosterParams{
		User:   input.User,
		RoomID: c.getRoomID(r),
	})
	if err != nil {
		c.respondServiceError(w, err)
		return
	}

	c.respondJSON(w, http.StatusOK, map[string]any{
		"user":       resp.JoinedUser,
		"users":      resp.Users,
		"auth_token": resp.AuthToken,
	})
}

func (c controller) leaveRoster(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user-id")
	claims := c.getClaims(r)
	if userID == "" {
		userID = claims.UserID
	}

	// A member can only remove itself; moderation-grade removal is the
	// ban_user permission.
	if userID != claims.UserID && !domain.HasPermission(&domain.User{Role: claims.Role}, domain.PermBanUser) {
		c.respondError(w, http.StatusForbidden, "cannot remove another user")
		return
	}

	resp, err := c.roomService.LeaveRoster(r.Context(), &room.LeaveRosterParams{
		UserID: userID,
		RoomID: c.getRoomID(r),
	})
	if err != nil {
		c.respondServiceError(w, err)
		return
	}

	c.respondJSON(w, http.StatusOK, map[string]any{"users": resp.Users})
}

type updatePlayerStateInput struct {
	State domain.PlayerStatePatch `json:"state"`
}

func (c controller) updatePlayerState(w http.ResponseWriter, r *http.Request) {
	var input updatePlayerStateInput
	if !c.decodeAndValidate(w, r, &input) {
		return
	}

	claims := c.getClaims(r)
	resp, err := c.roomService.UpdatePlayerState(r.Context(), &room.UpdatePlayerStateParams{
		Patch:      input.State,
		SenderID:   claims.UserID,
		SenderRole: claims.Role,
		RoomID:     c.getRoomID(r),
	})
	if err != nil {
		c.respondServiceError(w, err)
		return
	}

	c.respondJSON(w, http.StatusOK, map[string]any{"state": resp.Player})
}

type addTrackInput struct {
	Track domain.Track `json:"track" validate:"required"`
}

func (c controller) addTrack(w http.ResponseWriter, r *http.Request) {
	var input addTrackInput
	if !c.decodeAndValidate(w, r, &input) {
		return
	}

	claims := c.getClaims(r)
	resp, err := c.roomService.AddTrack(r.Context(), &room.AddTrackParams{
		Track:      input.Track,
		SenderID:   claims.UserID,
		SenderRole: claims.Role,
		RoomID:     c.getRoomID(r),
	})
	if err != nil {
		c.respondServiceError(w, err)
		return
	}

	c.respondJSON(w, http.StatusCreated, map[string]any{
		"added_track": resp.AddedTrack,
		"playlist":    resp.Playlist,
	})
}

func (c controller) removeTrack(w http.ResponseWriter, r *http.Request) {
	claims := c.getClaims(r)
	resp, err := c.roomService.RemoveTrack(r.Context(), &room.RemoveTrackParams{
		TrackID:    chi.URLParam(r, "track-id"),
		SenderID:   claims.UserID,
		SenderRole: claims.Role,
		RoomID:     c.getRoomID(r),
	})
	if err != nil {
		c.respondServiceError(w, err)
		return
	}

	c.respondJSON(w, http.StatusOK, map[string]any{
		"removed_track": resp.RemovedTrack,
		"playlist":      resp.Playlist,
	})
}

type reorderPlaylistInput struct {
	FromIndex int `json:"from_index" validate:"gte=0"`
	ToIndex   int `json:"to_index" validate:"gte=0"`
}

func (c controller) reorderPlaylist(w http.ResponseWriter, r *http.Request) {
	var input reorderPlaylistInput
	if !c.decodeAndValidate(w, r, &input) {
		return
	}

	claims := c.getClaims(r)
	resp, err := c.roomService.ReorderPlaylist(r.Context(), &room.ReorderPlaylistParams{
		FromIndex:  input.FromIndex,
		ToIndex:    input.ToIndex,
		SenderID:   claims.UserID,
		SenderRole: claims.Role,
		RoomID:     c.getRoomID(r),
	})
	if err != nil {
		c.respondServiceError(w, err)
		return
	}

	c.respondJSON(w, http.StatusOK, map[string]any{"playlist": resp.Playlist})
}

type voteSkipInput struct {
	TrackID string `json:"track_id" validate:"required"`
}

func (c controller) voteSkip(w http.ResponseWriter, r *http.Request) {
	var input voteSkipInput
	if !c.decodeAndValidate(w, r, &input) {
		return
	}

	claims := c.getClaims(r)
	resp, err := c.roomService.VoteSkip(r.Context(), &room.VoteSkipParams{
		TrackID:  input.TrackID,
		SenderID: claims.UserID,
		RoomID:   c.getRoomID(r),
	})
	if err != nil {
		c.respondServiceError(w, err)
		return
	}

	c.respondJSON(w, http.StatusOK, map[string]any{
		"track_id":       input.TrackID,
		"vote_count":     resp.VoteCount,
		"required_votes": resp.RequiredVotes,
		"should_skip":    resp.ShouldSkip,
	})
}

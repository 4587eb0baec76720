package room

import "github.com/auxroom/server/internal/domain"

type SetRoomParams struct {
	Room   domain.Room
	RoomID string
}

type UpdateRoomNameParams struct {
	Name   string
	RoomID string
}

type SetPlayerParams struct {
	Player Player
	RoomID string
}

type UpdatePlayerStateParams struct {
	Patch  PlayerPatch
	RoomID string
}

type SetPlaylistParams struct {
	Playlist []domain.Track
	RoomID   string
}

type SetUsersParams struct {
	Users  []domain.User
	RoomID string
}

type AddUserParams struct {
	User   domain.User
	RoomID string
}

type RemoveUserParams struct {
	UserID string
	RoomID string
}

type AppendChatMessageParams struct {
	Message domain.ChatMessage
	RoomID  string
}

type AddSkipVoteParams struct {
	TrackID string
	UserID  string
	RoomID  string
}

type ClearSkipVotesParams struct {
	TrackID string
	RoomID  string
}

package room

import (
	"context"
	"errors"
	"time"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/repository/room"
	"github.com/auxroom/server/pkg/randstr"
)

var (
	ErrPermissionDenied     = errors.New("permission denied")
	ErrRoomNotFound         = errors.New("room not found")
	ErrMembersLimitReached  = errors.New("members limit reached")
	ErrPlaylistLimitReached = errors.New("playlist limit reached")
	ErrSecondOwner          = errors.New("room already has an owner")
)

type iRoomRepo interface {
	// room
	SetRoom(context.Context, *room.SetRoomParams) error
	GetRoom(context.Context, string) (domain.Room, error)
	IsRoomExists(context.Context, string) (bool, error)
	UpdateRoomName(context.Context, *room.UpdateRoomNameParams) error
	RemoveRoom(context.Context, string) error
	// player
	SetPlayer(context.Context, *room.SetPlayerParams) error
	GetPlayer(context.Context, string) (room.Player, error)
	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) error
	RemovePlayer(context.Context, string) error
	// playlist
	SetPlaylist(context.Context, *room.SetPlaylistParams) error
	GetPlaylist(context.Context, string) ([]domain.Track, error)
	// users
	SetUsers(context.Context, *room.SetUsersParams) error
	GetUsers(context.Context, string) ([]domain.User, error)
	AddUser(context.Context, *room.AddUserParams) ([]domain.User, error)
	RemoveUser(context.Context, *room.RemoveUserParams) ([]domain.User, error)
	// chat
	AppendChatMessage(context.Context, *room.AppendChatMessageParams) error
	GetChatHistory(context.Context, string) ([]domain.ChatMessage, error)
	// vote skip
	AddSkipVote(context.Context, *room.AddSkipVoteParams) (int, error)
	ClearSkipVotes(context.Context, *room.ClearSkipVotesParams) error
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	Secret            string
	MembersLimit      int
	PlaylistLimit     int
	VoteSkipThreshold float64
}

type service struct {
	roomRepo          iRoomRepo
	secret            string
	membersLimit      int
	playlistLimit     int
	voteSkipThreshold float64
	generator         iGenerator
	now               func() time.Time
}

func NewService(roomRepo iRoomRepo, cfg *Config) *service {
	letterBytes := []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

	return &service{
		roomRepo:          roomRepo,
		secret:            cfg.Secret,
		membersLimit:      cfg.MembersLimit,
		playlistLimit:     cfg.PlaylistLimit,
		voteSkipThreshold: cfg.VoteSkipThreshold,
		generator:         randstr.New(letterBytes),
		now:               time.Now,
	}
}

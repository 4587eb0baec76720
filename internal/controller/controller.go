package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/repository/connection/inmemory"
	"github.com/auxroom/server/internal/service/room"
	"github.com/auxroom/server/pkg/validator"
	"github.com/auxroom/server/pkg/wsrelay"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	GetSnapshot(context.Context, string) (domain.RoomSnapshot, error)
	RenameRoom(context.Context, *room.RenameRoomParams) (domain.Room, error)
	JoinRoster(context.Context, *room.JoinRosterParams) (room.JoinRosterResponse, error)
	LeaveRoster(context.Context, *room.LeaveRosterParams) (room.LeaveRosterResponse, error)
	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) (room.UpdatePlayerStateResponse, error)
	AddTrack(context.Context, *room.AddTrackParams) (room.AddTrackResponse, error)
	RemoveTrack(context.Context, *room.RemoveTrackParams) (room.RemoveTrackResponse, error)
	ReorderPlaylist(context.Context, *room.ReorderPlaylistParams) (room.ReorderPlaylistResponse, error)
	VoteSkip(context.Context, *room.VoteSkipParams) (room.VoteSkipResponse, error)
	AppendChatMessage(context.Context, *room.AppendChatMessageParams) (domain.ChatMessage, error)
	ParseToken(string) (*room.Claims, error)
}

type iConnRepo interface {
	Add(sender *wsrelay.Sender, roomID, userID string) error
	RemoveBySender(sender *wsrelay.Sender) (string, string, error)
	GetRoomSenders(roomID string) []*wsrelay.Sender
	GetUserID(sender *wsrelay.Sender) (string, error)
}

type controller struct {
	roomService iRoomService
	connRepo    iConnRepo
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	logger      *slog.Logger
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	return &controller{
		roomService: roomService,
		connRepo:    inmemory.NewRepo(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}
}

func (c controller) generateRequestID() string {
	return uuid.NewString()
}

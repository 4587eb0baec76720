package room

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/repository/room"
)

type JoinRosterParams struct {
	User   domain.User
	RoomID string
}

type JoinRosterResponse struct {
	JoinedUser domain.User
	Users      []domain.User
	AuthToken  string
}

// JoinRoster adds a user to the room's user list. The caller may supply its
// own id (a rejoining client keeps its identity); role defaults to member.
// A second owner is rejected: exactly one owner exists per room, fixed at
// creation, and the sync master election depends on that.
func (s service) JoinRoster(ctx context.Context, params *JoinRosterParams) (JoinRosterResponse, error) {
	exists, err := s.roomRepo.IsRoomExists(ctx, params.RoomID)
	if err != nil {
		return JoinRosterResponse{}, fmt.Errorf("failed to check if room exists: %w", err)
	}
	if !exists {
		return JoinRosterResponse{}, ErrRoomNotFound
	}

	user := params.User
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = domain.RoleMember
	}
	if user.JoinedAt == 0 {
		user.JoinedAt = s.now().UnixMilli()
	}

	users, err := s.roomRepo.GetUsers(ctx, params.RoomID)
	if err != nil {
		return JoinRosterResponse{}, fmt.Errorf("failed to get users: %w", err)
	}

	if len(users) >= s.membersLimit {
		return JoinRosterResponse{}, ErrMembersLimitReached
	}

	if user.Role == domain.RoleOwner {
		for _, u := range users {
			if u.Role == domain.RoleOwner && u.ID != user.ID {
				return JoinRosterResponse{}, ErrSecondOwner
			}
		}
	}

	users, err = s.roomRepo.AddUser(ctx, &room.AddUserParams{User: user, RoomID: params.RoomID})
	if err != nil {
		if err == domain.ErrUserAlreadyExists {
			// Rejoin after reconnect: the roster already reflects the user.
			authToken, tokenErr := s.generateJWT(user.ID, params.RoomID, user.Role)
			if tokenErr != nil {
				return JoinRosterResponse{}, fmt.Errorf("failed to generate auth token: %w", tokenErr)
			}
			return JoinRosterResponse{JoinedUser: user, Users: users, AuthToken: authToken}, nil
		}
		return JoinRosterResponse{}, fmt.Errorf("failed to add user: %w", err)
	}

	authToken, err := s.generateJWT(user.ID, params.RoomID, user.Role)
	if err != nil {
		return JoinRosterResponse{}, fmt.Errorf("failed to generate auth token: %w", err)
	}

	return JoinRosterResponse{
		JoinedUser: user,
		Users:      users,
		AuthToken:  authToken,
	}, nil
}

type LeaveRosterParams struct {
	UserID string
	RoomID string
}

type LeaveRosterResponse struct {
	Users []domain.User
}

func (s service) LeaveRoster(ctx context.Context, params *LeaveRosterParams) (LeaveRosterResponse, error) {
	users, err := s.roomRepo.RemoveUser(ctx, &room.RemoveUserParams{
		UserID: params.UserID,
		RoomID: params.RoomID,
	})
	if err != nil {
		if err == room.ErrUserNotFound {
			// Duplicate leave (e.g. ws close racing an explicit DELETE) is not an error.
			return LeaveRosterResponse{Users: users}, nil
		}
		return LeaveRosterResponse{}, fmt.Errorf("failed to remove user: %w", err)
	}

	return LeaveRosterResponse{Users: users}, nil
}

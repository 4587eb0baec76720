package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/repository/room"
)

func (r repo) SetUsers(ctx context.Context, params *room.SetUsersParams) error {
	data, err := json.Marshal(params.Users)
	if err != nil {
		return fmt.Errorf("failed to marshal users: %w", err)
	}

	usersKey := r.getUsersKey(params.RoomID)
	if err := r.rc.Set(ctx, usersKey, data, r.expireDuration).Err(); err != nil {
		return fmt.Errorf("failed to set users: %w", err)
	}

	return nil
}

func (r repo) GetUsers(ctx context.Context, roomID string) ([]domain.User, error) {
	usersKey := r.getUsersKey(roomID)
	data, err := r.rc.Get(ctx, usersKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return []domain.User{}, nil
		}
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	var users []domain.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal users: %w", err)
	}

	r.rc.Expire(ctx, usersKey, r.expireDuration)

	return users, nil
}

func (r repo) AddUser(ctx context.Context, params *room.AddUserParams) ([]domain.User, error) {
	users, err := r.GetUsers(ctx, params.RoomID)
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.ID == params.User.ID {
			return users, domain.ErrUserAlreadyExists
		}
	}

	users = append(users, params.User)
	if err := r.SetUsers(ctx, &room.SetUsersParams{Users: users, RoomID: params.RoomID}); err != nil {
		return nil, err
	}

	return users, nil
}

func (r repo) RemoveUser(ctx context.Context, params *room.RemoveUserParams) ([]domain.User, error) {
	users, err := r.GetUsers(ctx, params.RoomID)
	if err != nil {
		return nil, err
	}

	for i, u := range users {
		if u.ID == params.UserID {
			users = append(users[:i], users[i+1:]...)
			if err := r.SetUsers(ctx, &room.SetUsersParams{Users: users, RoomID: params.RoomID}); err != nil {
				return nil, err
			}

			return users, nil
		}
	}

	return users, room.ErrUserNotFound
}

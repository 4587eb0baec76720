package domain

import "errors"

var ErrRoomNotFound = errors.New("room not found")

type Room struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
	OwnerID   string `json:"owner_id"`
	// VoteSkipThreshold is the fraction of connected users (0..1) whose
	// votes skip the current track.
	VoteSkipThreshold float64 `json:"vote_skip_threshold"`
}

type ChatMessage struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	UserColor string `json:"user_color"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// RoomSnapshot is what a joining client fetches once to hydrate its
// volatile local copy of the room.
type RoomSnapshot struct {
	Room        Room          `json:"room"`
	Playlist    []Track       `json:"playlist"`
	Users       []User        `json:"users"`
	PlayerState PlayerState   `json:"player_state"`
	ChatHistory []ChatMessage `json:"chat_history"`
}

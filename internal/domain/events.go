package domain

// Broadcast event names. Every connected client can both send and receive
// them; delivery is best-effort, at-most-once, unordered across senders.
const (
	EventPlay           = "player:play"
	EventPause          = "player:pause"
	EventSeek           = "player:seek"
	EventNext           = "player:next"
	EventPrevious       = "player:previous"
	EventPlayerState    = "player:state"
	EventTrackAdd       = "track:add"
	EventTrackRemove    = "track:remove"
	EventTrackReorder   = "track:reorder"
	EventPlaylistUpdate = "playlist:update"
	EventVoteSkip       = "track:vote-skip"
	EventChatMessage    = "chat:message"
	EventUserJoin       = "user:join"
	EventUserLeave      = "user:leave"
	EventUsersUpdate    = "users:update"
	EventRoomUpdate     = "room:update"
	EventHeartbeat      = "sync:heartbeat"
	EventMasterChanged  = "sync:master-changed"
)

type SeekPayload struct {
	Position float64 `json:"position"`
}

type PlayerStatePayload struct {
	State PlayerStatePatch `json:"state"`
}

type TrackAddPayload struct {
	Track Track `json:"track"`
}

type TrackRemovePayload struct {
	TrackID string `json:"track_id"`
}

type TrackReorderPayload struct {
	FromIndex int `json:"from_index"`
	ToIndex   int `json:"to_index"`
}

type PlaylistUpdatePayload struct {
	Playlist []Track `json:"playlist"`
}

type VoteSkipPayload struct {
	TrackID       string `json:"track_id"`
	VoteCount     int    `json:"vote_count"`
	RequiredVotes int    `json:"required_votes"`
	ShouldSkip    bool   `json:"should_skip"`
}

type ChatMessagePayload struct {
	Message ChatMessage `json:"message"`
}

type UserJoinPayload struct {
	User User `json:"user"`
}

type UserLeavePayload struct {
	UserID string `json:"user_id"`
}

type UsersUpdatePayload struct {
	Users []User `json:"users"`
}

type RoomUpdatePayload struct {
	Room Room `json:"room"`
}

// HeartbeatPayload is the sync master's periodic playback snapshot.
type HeartbeatPayload struct {
	UserID    string      `json:"user_id"`
	Timestamp int64       `json:"timestamp"`
	State     PlayerState `json:"state"`
}

type MasterChangedPayload struct {
	MasterID   *string `json:"master_id"`
	MasterType string  `json:"master_type"`
}

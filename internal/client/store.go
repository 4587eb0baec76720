package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/auxroom/server/internal/domain"
)

// Store talks to the room server's REST API. It is the client side of
// the durable room state owner; one Store is bound to one room and one
// auth token.
type Store struct {
	baseURL string
	roomID  string
	token   string
	http    *http.Client
}

type StoreConfig struct {
	// BaseURL is the server root, e.g. http://localhost:8080.
	BaseURL   string
	RoomID    string
	AuthToken string
}

func NewStore(cfg StoreConfig) *Store {
	return &Store{
		baseURL: cfg.BaseURL,
		roomID:  cfg.RoomID,
		token:   cfg.AuthToken,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SetAuthToken replaces the bearer token, e.g. after joining a room.
func (s *Store) SetAuthToken(token string) { s.token = token }

// AuthToken returns the bearer token currently in use.
func (s *Store) AuthToken() string { return s.token }

func (s *Store) RoomID() string { return s.roomID }

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &apiError{Status: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (s *Store) roomPath(suffix string) string {
	return "/api/v1/rooms/" + url.PathEscape(s.roomID) + suffix
}

type CreateRoomResult struct {
	Room      domain.Room `json:"room"`
	User      domain.User `json:"user"`
	AuthToken string      `json:"auth_token"`
}

// CreateRoom provisions a new room and binds the store to it.
func (s *Store) CreateRoom(ctx context.Context, roomName, username, color string) (CreateRoomResult, error) {
	var out CreateRoomResult

	err := s.do(ctx, http.MethodPost, "/api/v1/rooms", map[string]string{
		"room_name": roomName,
		"username":  username,
		"color":     color,
	}, &out)
	if err != nil {
		return CreateRoomResult{}, fmt.Errorf("failed to create room: %w", err)
	}

	s.roomID = out.Room.ID
	s.token = out.AuthToken

	return out, nil
}

type JoinResult struct {
	User      domain.User   `json:"user"`
	Users     []domain.User `json:"users"`
	AuthToken string        `json:"auth_token"`
}

// JoinRoster registers the user with the room and picks up the issued
// auth token.
func (s *Store) JoinRoster(ctx context.Context, user domain.User) (JoinResult, error) {
	var out JoinResult

	err := s.do(ctx, http.MethodPost, s.roomPath("/users"), map[string]any{"user": user}, &out)
	if err != nil {
		return JoinResult{}, fmt.Errorf("failed to join room: %w", err)
	}

	s.token = out.AuthToken

	return out, nil
}

func (s *Store) FetchSnapshot(ctx context.Context) (domain.RoomSnapshot, error) {
	var out domain.RoomSnapshot

	if err := s.do(ctx, http.MethodGet, s.roomPath("/state"), nil, &out); err != nil {
		return domain.RoomSnapshot{}, fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	return out, nil
}

func (s *Store) PersistPlayerState(ctx context.Context, patch domain.PlayerStatePatch) (domain.PlayerState, error) {
	var out struct {
		State domain.PlayerState `json:"state"`
	}

	err := s.do(ctx, http.MethodPost, s.roomPath("/player-state"), map[string]any{"state": patch}, &out)
	if err != nil {
		return domain.PlayerState{}, fmt.Errorf("failed to persist player state: %w", err)
	}

	return out.State, nil
}

func (s *Store) AddTrack(ctx context.Context, track domain.Track) ([]domain.Track, error) {
	var out struct {
		AddedTrack domain.Track   `json:"added_track"`
		Playlist   []domain.Track `json:"playlist"`
	}

	err := s.do(ctx, http.MethodPost, s.roomPath("/playlist"), map[string]any{"track": track}, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	return out.Playlist, nil
}

func (s *Store) RemoveTrack(ctx context.Context, trackID string) ([]domain.Track, error) {
	var out struct {
		Playlist []domain.Track `json:"playlist"`
	}

	err := s.do(ctx, http.MethodDelete, s.roomPath("/playlist/"+url.PathEscape(trackID)), nil, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to remove track: %w", err)
	}

	return out.Playlist, nil
}

type VoteSkipResult struct {
	TrackID       string `json:"track_id"`
	VoteCount     int    `json:"vote_count"`
	RequiredVotes int    `json:"required_votes"`
	ShouldSkip    bool   `json:"should_skip"`
}

func (s *Store) VoteSkip(ctx context.Context, trackID string) (VoteSkipResult, error) {
	var out VoteSkipResult

	err := s.do(ctx, http.MethodPost, s.roomPath("/vote-skip"), map[string]string{"track_id": trackID}, &out)
	if err != nil {
		return VoteSkipResult{}, fmt.Errorf("failed to vote skip: %w", err)
	}

	return out, nil
}

func (s *Store) LeaveRoster(ctx context.Context) error {
	if err := s.do(ctx, http.MethodDelete, s.roomPath("/users"), nil, nil); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}
	return nil
}

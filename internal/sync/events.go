package sync

import (
	"sync"

	"github.com/auxroom/server/internal/domain"
)

// RoomState is a client's volatile copy of the room, reconciled via
// broadcast events and heartbeats. The shared store stays the durable
// owner; this copy may be stale between events.
type RoomState struct {
	mu       sync.Mutex
	room     domain.Room
	playlist []domain.Track
	users    []domain.User
	player   domain.PlayerState
}

func NewRoomState() *RoomState {
	return &RoomState{player: domain.NewPlayerState()}
}

func (s *RoomState) Hydrate(snapshot domain.RoomSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.room = snapshot.Room
	s.playlist = snapshot.Playlist
	s.users = snapshot.Users
	s.player = snapshot.PlayerState
}

func (s *RoomState) Room() domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

func (s *RoomState) Player() domain.PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

func (s *RoomState) SetPlayer(player domain.PlayerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player = player
}

// ApplyPatch shallow-merges a partial state and returns the result.
func (s *RoomState) ApplyPatch(patch *domain.PlayerStatePatch) domain.PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.player = s.player.Apply(patch)
	return s.player
}

func (s *RoomState) Playlist() []domain.Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Track, len(s.playlist))
	copy(out, s.playlist)
	return out
}

func (s *RoomState) SetPlaylist(playlist []domain.Track) (wasEmpty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasEmpty = len(s.playlist) == 0
	s.playlist = playlist
	return wasEmpty
}

func (s *RoomState) AppendTrack(track domain.Track) (wasEmpty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasEmpty = len(s.playlist) == 0
	s.playlist = append(s.playlist, track)
	return wasEmpty
}

func (s *RoomState) Users() []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.User, len(s.users))
	copy(out, s.users)
	return out
}

func (s *RoomState) SetUsers(users []domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
}

func (s *RoomState) AddUser(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ID == user.ID {
			return
		}
	}
	s.users = append(s.users, user)
}

func (s *RoomState) RemoveUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, u := range s.users {
		if u.ID == userID {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return
		}
	}
}

// CurrentTrack returns the track under the player's index, or nil when
// the room is idle.
func (s *RoomState) CurrentTrack() *domain.Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player.CurrentTrackIndex < 0 || s.player.CurrentTrackIndex >= len(s.playlist) {
		return nil
	}

	track := s.playlist[s.player.CurrentTrackIndex]
	return &track
}

// AutoStart reports whether a playlist growing from empty should kick
// off playback, and the patch that does it: first track, position zero,
// playing.
func AutoStart(wasEmpty bool, playlist []domain.Track) *domain.PlayerStatePatch {
	if !wasEmpty || len(playlist) == 0 {
		return nil
	}

	index := 0
	position := 0.0
	playing := true
	return &domain.PlayerStatePatch{
		CurrentTrackIndex: &index,
		Position:          &position,
		IsPlaying:         &playing,
	}
}

// NextAfterEnded applies the end-of-track policy, in priority order:
// repeat-one restarts the same track; queue mode drops the finished
// track and keeps the index (now holding the next track); list mode
// advances, wrapping under repeat-all and stopping otherwise. It
// returns the resulting playlist and state, plus the id of a track
// that queue mode removed (empty when none).
func NextAfterEnded(playlist []domain.Track, state domain.PlayerState) ([]domain.Track, domain.PlayerState, string) {
	state.Position = 0

	if state.RepeatMode == domain.RepeatOne {
		state.IsPlaying = true
		return playlist, state, ""
	}

	if state.QueueMode == domain.QueueModeQueue {
		if state.CurrentTrackIndex < 0 || state.CurrentTrackIndex >= len(playlist) {
			state.IsPlaying = false
			return playlist, state, ""
		}

		removed := playlist[state.CurrentTrackIndex]
		playlist = domain.RemoveTrackAt(playlist, state.CurrentTrackIndex)

		if len(playlist) == 0 {
			state.CurrentTrackIndex = 0
			state.IsPlaying = false
			return playlist, state, removed.ID
		}
		if state.CurrentTrackIndex >= len(playlist) {
			state.CurrentTrackIndex = 0
		}
		state.IsPlaying = true
		return playlist, state, removed.ID
	}

	state.CurrentTrackIndex++
	if state.CurrentTrackIndex >= len(playlist) {
		if state.RepeatMode == domain.RepeatAll && len(playlist) > 0 {
			state.CurrentTrackIndex = 0
			state.IsPlaying = true
			return playlist, state, ""
		}

		state.CurrentTrackIndex = max(len(playlist)-1, 0)
		state.IsPlaying = false
		return playlist, state, ""
	}

	state.IsPlaying = true
	return playlist, state, ""
}

// ApplyTrackRemove drops a track from the playlist and keeps the
// player on a valid index: clamp to the new end, keep playing while
// tracks remain, go idle otherwise.
func ApplyTrackRemove(playlist []domain.Track, state domain.PlayerState, trackID string) ([]domain.Track, domain.PlayerState) {
	removedIndex := -1
	for i, track := range playlist {
		if track.ID == trackID {
			removedIndex = i
			break
		}
	}
	if removedIndex == -1 {
		return playlist, state
	}

	playlist = domain.RemoveTrackAt(playlist, removedIndex)

	if len(playlist) == 0 {
		state.CurrentTrackIndex = 0
		state.Position = 0
		state.IsPlaying = false
		return playlist, state
	}

	switch {
	case removedIndex < state.CurrentTrackIndex:
		state.CurrentTrackIndex--
	case removedIndex == state.CurrentTrackIndex:
		if state.CurrentTrackIndex >= len(playlist) {
			state.CurrentTrackIndex = len(playlist) - 1
		}
		state.Position = 0
	}

	return playlist, state
}

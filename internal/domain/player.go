package domain

import "time"

type RepeatMode string

const (
	RepeatNone RepeatMode = "none"
	RepeatOne  RepeatMode = "one"
	RepeatAll  RepeatMode = "all"
)

type QueueMode string

const (
	// QueueModeList plays through the playlist in order.
	QueueModeList QueueMode = "list"
	// QueueModeQueue removes a track from the playlist once it finishes.
	QueueModeQueue QueueMode = "queue"
)

// PlayerState is the shared playback record for a room. Position is only
// a snapshot: while playing, true position must be reconstructed from
// UpdatedAt (see ExtrapolatedPosition).
type PlayerState struct {
	CurrentTrackIndex int        `json:"current_track_index" redis:"current_track_index"`
	Position          float64    `json:"position" redis:"position"`
	IsPlaying         bool       `json:"is_playing" redis:"is_playing"`
	Volume            int        `json:"volume" redis:"volume"`
	Shuffle           bool       `json:"shuffle" redis:"shuffle"`
	RepeatMode        RepeatMode `json:"repeat_mode" redis:"repeat_mode"`
	PlaybackRate      float64    `json:"playback_rate" redis:"playback_rate"`
	QueueMode         QueueMode  `json:"queue_mode" redis:"queue_mode"`
	// UpdatedAt is the epoch-millis wall-clock time the position was last
	// authoritatively set. Zero means never.
	UpdatedAt int64 `json:"updated_at,omitempty" redis:"updated_at"`
}

func NewPlayerState() PlayerState {
	return PlayerState{
		CurrentTrackIndex: 0,
		Position:          0,
		IsPlaying:         false,
		Volume:            50,
		Shuffle:           false,
		RepeatMode:        RepeatNone,
		PlaybackRate:      1,
		QueueMode:         QueueModeList,
	}
}

// PlayerStatePatch is a partial PlayerState. Nil fields are left untouched
// by Apply, which gives state broadcasts their shallow-merge semantics.
type PlayerStatePatch struct {
	CurrentTrackIndex *int        `json:"current_track_index,omitempty" redis:"current_track_index"`
	Position          *float64    `json:"position,omitempty" redis:"position"`
	IsPlaying         *bool       `json:"is_playing,omitempty" redis:"is_playing"`
	Volume            *int        `json:"volume,omitempty" redis:"volume"`
	Shuffle           *bool       `json:"shuffle,omitempty" redis:"shuffle"`
	RepeatMode        *RepeatMode `json:"repeat_mode,omitempty" redis:"repeat_mode"`
	PlaybackRate      *float64    `json:"playback_rate,omitempty" redis:"playback_rate"`
	QueueMode         *QueueMode  `json:"queue_mode,omitempty" redis:"queue_mode"`
	UpdatedAt         *int64      `json:"updated_at,omitempty" redis:"updated_at"`
}

// Apply shallow-merges patch onto s. Applying the same patch twice yields
// the same state as applying it once.
func (s PlayerState) Apply(patch *PlayerStatePatch) PlayerState {
	if patch == nil {
		return s
	}
	if patch.CurrentTrackIndex != nil {
		s.CurrentTrackIndex = *patch.CurrentTrackIndex
	}
	if patch.Position != nil {
		s.Position = *patch.Position
	}
	if patch.IsPlaying != nil {
		s.IsPlaying = *patch.IsPlaying
	}
	if patch.Volume != nil {
		s.Volume = *patch.Volume
	}
	if patch.Shuffle != nil {
		s.Shuffle = *patch.Shuffle
	}
	if patch.RepeatMode != nil {
		s.RepeatMode = *patch.RepeatMode
	}
	if patch.PlaybackRate != nil {
		s.PlaybackRate = *patch.PlaybackRate
	}
	if patch.QueueMode != nil {
		s.QueueMode = *patch.QueueMode
	}
	if patch.UpdatedAt != nil {
		s.UpdatedAt = *patch.UpdatedAt
	}

	return s
}

// ExtrapolatedPosition reconstructs the true playback position for a
// consumer reading the record after the fact. Paused states and states
// without a last-update timestamp are returned as-is.
func (s PlayerState) ExtrapolatedPosition(now time.Time) float64 {
	if !s.IsPlaying || s.UpdatedAt == 0 {
		return s.Position
	}

	rate := s.PlaybackRate
	if rate <= 0 {
		rate = 1
	}

	elapsed := float64(now.UnixMilli()-s.UpdatedAt) / 1000
	if elapsed < 0 {
		return s.Position
	}

	return s.Position + elapsed*rate
}

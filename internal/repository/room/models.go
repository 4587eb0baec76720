package room

// Player mirrors domain.PlayerState with plain field types so go-redis can
// write it as a hash. Conversion happens in the service layer.
type Player struct {
	CurrentTrackIndex int     `redis:"current_track_index"`
	Position          float64 `redis:"position"`
	IsPlaying         bool    `redis:"is_playing"`
	Volume            int     `redis:"volume"`
	Shuffle           bool    `redis:"shuffle"`
	RepeatMode        string  `redis:"repeat_mode"`
	PlaybackRate      float64 `redis:"playback_rate"`
	QueueMode         string  `redis:"queue_mode"`
	UpdatedAt         int64   `redis:"updated_at"`
}

// PlayerPatch is a partial Player. Nil fields are not written.
type PlayerPatch struct {
	CurrentTrackIndex *int     `redis:"current_track_index"`
	Position          *float64 `redis:"position"`
	IsPlaying         *bool    `redis:"is_playing"`
	Volume            *int     `redis:"volume"`
	Shuffle           *bool    `redis:"shuffle"`
	RepeatMode        *string  `redis:"repeat_mode"`
	PlaybackRate      *float64 `redis:"playback_rate"`
	QueueMode         *string  `redis:"queue_mode"`
	UpdatedAt         *int64   `redis:"updated_at"`
}

package domain

import "errors"

var (
	ErrTrackNotFound        = errors.New("track not found")
	ErrPlaylistLimitReached = errors.New("playlist limit reached")
)

type Platform string

const (
	PlatformYouTube    Platform = "youtube"
	PlatformSoundCloud Platform = "soundcloud"
	PlatformNiconico   Platform = "niconico"
)

type Track struct {
	ID           string   `json:"id"`
	Platform     Platform `json:"platform"`
	PlatformID   string   `json:"platform_id"`
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	Artist       string   `json:"artist"`
	ThumbnailURL string   `json:"thumbnail_url"`
	// Duration in seconds.
	Duration  float64 `json:"duration"`
	AddedByID string  `json:"added_by_id"`
	AddedAt   int64   `json:"added_at"`
}

// RemoveTrack returns the playlist without the track with the given id.
func RemoveTrack(playlist []Track, trackID string) ([]Track, Track, error) {
	for i, track := range playlist {
		if track.ID == trackID {
			out := make([]Track, 0, len(playlist)-1)
			out = append(out, playlist[:i]...)
			out = append(out, playlist[i+1:]...)
			return out, track, nil
		}
	}

	return playlist, Track{}, ErrTrackNotFound
}

// RemoveTrackAt removes the track at index, which must be valid.
func RemoveTrackAt(playlist []Track, index int) []Track {
	out := make([]Track, 0, len(playlist)-1)
	out = append(out, playlist[:index]...)
	out = append(out, playlist[index+1:]...)
	return out
}

// ReorderTracks moves the track at fromIndex to toIndex.
func ReorderTracks(playlist []Track, fromIndex, toIndex int) ([]Track, error) {
	if fromIndex < 0 || fromIndex >= len(playlist) || toIndex < 0 || toIndex >= len(playlist) {
		return playlist, ErrTrackNotFound
	}

	out := make([]Track, 0, len(playlist))
	out = append(out, playlist...)
	track := out[fromIndex]
	out = append(out[:fromIndex], out[fromIndex+1:]...)

	out = append(out, Track{})
	copy(out[toIndex+1:], out[toIndex:])
	out[toIndex] = track

	return out, nil
}

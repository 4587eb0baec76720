package player

import (
	"errors"
	"fmt"

	"github.com/auxroom/server/internal/domain"
)

var (
	ErrNoTrackLoaded       = errors.New("no track loaded")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

type PlaybackState string

const (
	StatePlaying PlaybackState = "playing"
	StatePaused  PlaybackState = "paused"
)

// Callbacks are invoked by an Adapter as playback progresses. All fields
// are optional; nil callbacks are skipped.
type Callbacks struct {
	OnReady         func()
	OnProgress      func(positionSeconds float64)
	OnEnded         func()
	OnError         func(err error)
	OnStateChange   func(state PlaybackState)
	OnDurationKnown func(durationSeconds float64)
}

// Adapter abstracts a concrete media player behind a uniform control
// surface. Implementations are not required to be safe for concurrent
// use; callers serialize access.
type Adapter interface {
	// Load points the player at a track. Playback does not start until
	// Play is called.
	Load(track domain.Track) error
	Play() error
	Pause() error
	SeekTo(seconds float64) error
	// CurrentTime reports the last known playback position.
	CurrentTime() (float64, error)
	SetPlaybackRate(rate float64) error
	SetVolume(volume int) error
	SetCallbacks(cb Callbacks)
	Close() error
}

// ForPlatform builds an adapter for the track's platform. Embedded
// players need a Bridge to reach the host-side iframe; platforms
// without a dedicated bridge fall back to the generic clock player.
func ForPlatform(platform domain.Platform, bridge Bridge) (Adapter, error) {
	switch platform {
	case domain.PlatformYouTube:
		if bridge == nil {
			return nil, fmt.Errorf("%w: youtube requires a bridge", ErrUnsupportedPlatform)
		}
		return NewYouTubeAdapter(bridge), nil
	case domain.PlatformNiconico:
		if bridge == nil {
			return nil, fmt.Errorf("%w: niconico requires a bridge", ErrUnsupportedPlatform)
		}
		return NewNiconicoAdapter(bridge), nil
	case domain.PlatformSoundCloud:
		return NewGenericAdapter(), nil
	default:
		return NewGenericAdapter(), nil
	}
}

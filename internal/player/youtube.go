package player

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/auxroom/server/internal/domain"
)

// YouTube iframe API player states.
const (
	youtubeStateEnded   = 0
	youtubeStatePlaying = 1
	youtubeStatePaused  = 2
)

type youtubeCommand struct {
	Func string `json:"func"`
	Args []any  `json:"args"`
}

// YouTubeAdapter speaks the YouTube iframe API message protocol:
// outbound "command" messages carrying func/args pairs, inbound
// onReady / onStateChange / infoDelivery / onError events.
type YouTubeAdapter struct {
	bridge Bridge

	mu       sync.Mutex
	track    domain.Track
	loaded   bool
	position float64
	duration float64
	cb       Callbacks

	done chan struct{}
}

func NewYouTubeAdapter(bridge Bridge) *YouTubeAdapter {
	a := &YouTubeAdapter{
		bridge: bridge,
		done:   make(chan struct{}),
	}
	go a.readLoop()
	return a
}

func (a *YouTubeAdapter) readLoop() {
	defer close(a.done)

	for msg := range a.bridge.Messages() {
		a.handleMessage(msg)
	}
}

func (a *YouTubeAdapter) handleMessage(msg Message) {
	switch msg.EventName {
	case "onReady":
		a.mu.Lock()
		readyCb := a.cb.OnReady
		a.mu.Unlock()

		if readyCb != nil {
			readyCb()
		}

	case "onStateChange":
		var state int
		if err := json.Unmarshal(msg.Data, &state); err != nil {
			return
		}

		a.mu.Lock()
		stateCb := a.cb.OnStateChange
		endedCb := a.cb.OnEnded
		a.mu.Unlock()

		switch state {
		case youtubeStatePlaying:
			if stateCb != nil {
				stateCb(StatePlaying)
			}
		case youtubeStatePaused:
			if stateCb != nil {
				stateCb(StatePaused)
			}
		case youtubeStateEnded:
			if stateCb != nil {
				stateCb(StatePaused)
			}
			if endedCb != nil {
				endedCb()
			}
		}

	case "infoDelivery":
		var info struct {
			CurrentTime *float64 `json:"currentTime"`
			Duration    *float64 `json:"duration"`
		}
		if err := json.Unmarshal(msg.Data, &info); err != nil {
			return
		}

		a.mu.Lock()
		var durationCb func(float64)
		var duration float64
		if info.Duration != nil && *info.Duration > 0 {
			a.duration = *info.Duration
			duration = a.duration
			durationCb = a.cb.OnDurationKnown
		}
		var progressCb func(float64)
		var pos float64
		if info.CurrentTime != nil {
			a.position = *info.CurrentTime
			pos = a.position
			progressCb = a.cb.OnProgress
		}
		a.mu.Unlock()

		if durationCb != nil {
			durationCb(duration)
		}
		if progressCb != nil {
			progressCb(pos)
		}

	case "onError":
		a.mu.Lock()
		errorCb := a.cb.OnError
		a.mu.Unlock()

		if errorCb != nil {
			errorCb(fmt.Errorf("youtube player error: %s", string(msg.Data)))
		}
	}
}

func (a *YouTubeAdapter) command(fn string, args ...any) error {
	if args == nil {
		args = []any{}
	}

	return a.bridge.Send(Message{
		EventName: "command",
		Data:      encodeData(youtubeCommand{Func: fn, Args: args}),
	})
}

func (a *YouTubeAdapter) Load(track domain.Track) error {
	a.mu.Lock()
	a.track = track
	a.loaded = true
	a.position = 0
	if track.Duration > 0 {
		a.duration = track.Duration
	} else {
		a.duration = 0
	}
	a.mu.Unlock()

	return a.command("cueVideoById", track.PlatformID)
}

func (a *YouTubeAdapter) Play() error {
	a.mu.Lock()
	loaded := a.loaded
	a.mu.Unlock()
	if !loaded {
		return ErrNoTrackLoaded
	}

	return a.command("playVideo")
}

func (a *YouTubeAdapter) Pause() error {
	a.mu.Lock()
	loaded := a.loaded
	a.mu.Unlock()
	if !loaded {
		return ErrNoTrackLoaded
	}

	return a.command("pauseVideo")
}

func (a *YouTubeAdapter) SeekTo(seconds float64) error {
	a.mu.Lock()
	loaded := a.loaded
	a.mu.Unlock()
	if !loaded {
		return ErrNoTrackLoaded
	}
	if seconds < 0 {
		seconds = 0
	}

	return a.command("seekTo", seconds, true)
}

func (a *YouTubeAdapter) CurrentTime() (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded {
		return 0, ErrNoTrackLoaded
	}

	return a.position, nil
}

func (a *YouTubeAdapter) SetPlaybackRate(rate float64) error {
	if rate <= 0 {
		rate = 1
	}

	return a.command("setPlaybackRate", rate)
}

func (a *YouTubeAdapter) SetVolume(volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}

	return a.command("setVolume", volume)
}

func (a *YouTubeAdapter) SetCallbacks(cb Callbacks) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cb = cb
}

func (a *YouTubeAdapter) Close() error {
	err := a.bridge.Close()
	<-a.done
	return err
}

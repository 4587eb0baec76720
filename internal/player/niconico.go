package player

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/auxroom/server/internal/domain"
)

// Niconico embed player statuses.
const (
	niconicoStatusEnded   = 0
	niconicoStatusPlaying = 2
)

// NiconicoAdapter drives the Niconico embed player over its postMessage
// protocol: outbound {eventName, data} commands (seek, play, pause,
// volumeChange), inbound playerMetadataChange / playerStatusChange /
// statusChange / loadComplete / playComplete / error events.
type NiconicoAdapter struct {
	bridge Bridge

	mu       sync.Mutex
	track    domain.Track
	loaded   bool
	position float64
	duration float64
	playing  bool
	cb       Callbacks

	done chan struct{}
}

func NewNiconicoAdapter(bridge Bridge) *NiconicoAdapter {
	a := &NiconicoAdapter{
		bridge: bridge,
		done:   make(chan struct{}),
	}
	go a.readLoop()
	return a
}

func (a *NiconicoAdapter) readLoop() {
	defer close(a.done)

	for msg := range a.bridge.Messages() {
		a.handleMessage(msg)
	}
}

func (a *NiconicoAdapter) handleMessage(msg Message) {
	switch msg.EventName {
	case "playerMetadataChange":
		var data struct {
			Duration    *float64 `json:"duration"`
			CurrentTime *float64 `json:"currentTime"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}

		a.mu.Lock()
		var durationCb func(float64)
		var duration float64
		if data.Duration != nil && *data.Duration > 0 {
			a.duration = *data.Duration
			duration = a.duration
			durationCb = a.cb.OnDurationKnown
		}
		var progressCb func(float64)
		var pos float64
		if data.CurrentTime != nil {
			a.position = *data.CurrentTime
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

	case "playerStatusChange":
		var data struct {
			PlayerStatus *int `json:"playerStatus"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.PlayerStatus == nil {
			return
		}

		switch *data.PlayerStatus {
		case niconicoStatusPlaying:
			a.mu.Lock()
			a.playing = true
			readyCb := a.cb.OnReady
			stateCb := a.cb.OnStateChange
			a.mu.Unlock()

			if readyCb != nil {
				readyCb()
			}
			if stateCb != nil {
				stateCb(StatePlaying)
			}
		case niconicoStatusEnded:
			a.fireEnded()
		default:
			a.mu.Lock()
			a.playing = false
			stateCb := a.cb.OnStateChange
			a.mu.Unlock()

			if stateCb != nil {
				stateCb(StatePaused)
			}
		}

	case "statusChange":
		var data struct {
			CurrentTime *float64 `json:"currentTime"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.CurrentTime == nil {
			return
		}

		a.mu.Lock()
		a.position = *data.CurrentTime
		pos := a.position
		progressCb := a.cb.OnProgress
		a.mu.Unlock()

		if progressCb != nil {
			progressCb(pos)
		}

	case "loadComplete":
		a.mu.Lock()
		readyCb := a.cb.OnReady
		a.mu.Unlock()

		if readyCb != nil {
			readyCb()
		}

	case "playComplete":
		a.fireEnded()

	case "error":
		a.mu.Lock()
		errorCb := a.cb.OnError
		a.mu.Unlock()

		if errorCb != nil {
			errorCb(fmt.Errorf("niconico playback error: %s", string(msg.Data)))
		}
	}
}

func (a *NiconicoAdapter) fireEnded() {
	a.mu.Lock()
	a.playing = false
	stateCb := a.cb.OnStateChange
	endedCb := a.cb.OnEnded
	a.mu.Unlock()

	if stateCb != nil {
		stateCb(StatePaused)
	}
	if endedCb != nil {
		endedCb()
	}
}

func (a *NiconicoAdapter) Load(track domain.Track) error {
	a.mu.Lock()
	a.track = track
	a.loaded = true
	a.position = 0
	a.playing = false
	if track.Duration > 0 {
		a.duration = track.Duration
	} else {
		a.duration = 0
	}
	a.mu.Unlock()

	// The host swaps the embed source; the player announces itself with
	// loadComplete once the new video is up.
	return nil
}

func (a *NiconicoAdapter) Play() error {
	a.mu.Lock()
	loaded := a.loaded
	a.mu.Unlock()
	if !loaded {
		return ErrNoTrackLoaded
	}

	return a.bridge.Send(Message{EventName: "play", Data: encodeData(struct{}{})})
}

func (a *NiconicoAdapter) Pause() error {
	a.mu.Lock()
	loaded := a.loaded
	a.mu.Unlock()
	if !loaded {
		return ErrNoTrackLoaded
	}

	return a.bridge.Send(Message{EventName: "pause", Data: encodeData(struct{}{})})
}

func (a *NiconicoAdapter) SeekTo(seconds float64) error {
	a.mu.Lock()
	loaded := a.loaded
	a.mu.Unlock()
	if !loaded {
		return ErrNoTrackLoaded
	}
	if seconds < 0 {
		seconds = 0
	}

	return a.bridge.Send(Message{
		EventName: "seek",
		Data: encodeData(struct {
			Time float64 `json:"time"`
		}{Time: seconds}),
	})
}

func (a *NiconicoAdapter) CurrentTime() (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded {
		return 0, ErrNoTrackLoaded
	}

	return a.position, nil
}

// SetPlaybackRate is a no-op: the Niconico embed has no rate control.
func (a *NiconicoAdapter) SetPlaybackRate(rate float64) error {
	return nil
}

func (a *NiconicoAdapter) SetVolume(volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}

	return a.bridge.Send(Message{
		EventName: "volumeChange",
		Data: encodeData(struct {
			Volume float64 `json:"volume"`
		}{Volume: float64(volume) / 100}),
	})
}

func (a *NiconicoAdapter) SetCallbacks(cb Callbacks) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cb = cb
}

func (a *NiconicoAdapter) Close() error {
	err := a.bridge.Close()
	<-a.done
	return err
}

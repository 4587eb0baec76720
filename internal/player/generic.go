package player

import (
	"sync"
	"time"

	"github.com/auxroom/server/internal/domain"
)

const progressInterval = 1 * time.Second

// GenericAdapter is a clock-driven player with no media backend. It
// advances position in real time while playing and fires OnEnded when
// the track's duration runs out. Headless clients use it for platforms
// without an embed bridge.
type GenericAdapter struct {
	mu       sync.Mutex
	track    domain.Track
	loaded   bool
	basePos  float64
	baseTime time.Time
	playing  bool
	rate     float64
	volume   int
	cb       Callbacks
	ended    bool

	now  func() time.Time
	stop chan struct{}
	done chan struct{}
}

func NewGenericAdapter() *GenericAdapter {
	a := &GenericAdapter{
		rate:   1,
		volume: 50,
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go a.tickLoop()
	return a
}

func (a *GenericAdapter) tickLoop() {
	defer close(a.done)

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.tick()
		}
	}
}

func (a *GenericAdapter) tick() {
	a.mu.Lock()
	if !a.loaded || !a.playing {
		a.mu.Unlock()
		return
	}

	now := a.now()
	pos := a.positionAt(now)

	var endedCb func()
	if a.track.Duration > 0 && pos >= a.track.Duration && !a.ended {
		pos = a.track.Duration
		a.playing = false
		a.ended = true
		a.basePos = pos
		a.baseTime = now
		endedCb = a.cb.OnEnded
	}

	progressCb := a.cb.OnProgress
	stateCb := a.cb.OnStateChange
	a.mu.Unlock()

	if progressCb != nil {
		progressCb(pos)
	}
	if endedCb != nil {
		if stateCb != nil {
			stateCb(StatePaused)
		}
		endedCb()
	}
}

// positionAt must be called with mu held.
func (a *GenericAdapter) positionAt(now time.Time) float64 {
	if !a.playing {
		return a.basePos
	}
	elapsed := now.Sub(a.baseTime).Seconds()
	if elapsed < 0 {
		return a.basePos
	}
	return a.basePos + elapsed*a.rate
}

// rebase must be called with mu held.
func (a *GenericAdapter) rebase(now time.Time) {
	a.basePos = a.positionAt(now)
	a.baseTime = now
}

func (a *GenericAdapter) Load(track domain.Track) error {
	a.mu.Lock()
	a.track = track
	a.loaded = true
	a.basePos = 0
	a.baseTime = a.now()
	a.playing = false
	a.ended = false
	readyCb := a.cb.OnReady
	durationCb := a.cb.OnDurationKnown
	duration := track.Duration
	a.mu.Unlock()

	if durationCb != nil && duration > 0 {
		durationCb(duration)
	}
	if readyCb != nil {
		readyCb()
	}

	return nil
}

func (a *GenericAdapter) Play() error {
	a.mu.Lock()
	if !a.loaded {
		a.mu.Unlock()
		return ErrNoTrackLoaded
	}
	if a.playing {
		a.mu.Unlock()
		return nil
	}
	now := a.now()
	if a.ended {
		// Restarting a finished track starts over.
		a.basePos = 0
		a.ended = false
	}
	a.baseTime = now
	a.playing = true
	stateCb := a.cb.OnStateChange
	a.mu.Unlock()

	if stateCb != nil {
		stateCb(StatePlaying)
	}

	return nil
}

func (a *GenericAdapter) Pause() error {
	a.mu.Lock()
	if !a.loaded {
		a.mu.Unlock()
		return ErrNoTrackLoaded
	}
	if !a.playing {
		a.mu.Unlock()
		return nil
	}
	a.rebase(a.now())
	a.playing = false
	stateCb := a.cb.OnStateChange
	a.mu.Unlock()

	if stateCb != nil {
		stateCb(StatePaused)
	}

	return nil
}

func (a *GenericAdapter) SeekTo(seconds float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded {
		return ErrNoTrackLoaded
	}
	if seconds < 0 {
		seconds = 0
	}
	if a.track.Duration > 0 && seconds > a.track.Duration {
		seconds = a.track.Duration
	}
	a.basePos = seconds
	a.baseTime = a.now()
	a.ended = false

	return nil
}

func (a *GenericAdapter) CurrentTime() (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded {
		return 0, ErrNoTrackLoaded
	}

	return a.positionAt(a.now()), nil
}

func (a *GenericAdapter) SetPlaybackRate(rate float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if rate <= 0 {
		rate = 1
	}
	// Rebase so the rate change only affects time from here on.
	a.rebase(a.now())
	a.rate = rate

	return nil
}

func (a *GenericAdapter) SetVolume(volume int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	a.volume = volume

	return nil
}

func (a *GenericAdapter) SetCallbacks(cb Callbacks) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cb = cb
}

func (a *GenericAdapter) Close() error {
	select {
	case <-a.stop:
	default:
		close(a.stop)
	}
	<-a.done
	return nil
}

package sync

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/player"
)

const (
	// Drift below this is acceptable jitter.
	driftIgnoreBelow = 3.0
	// Drift at or above this gets a hard seek.
	driftHardAt = 5.0
	// Smooth correction bends the playback rate by this fraction.
	nudgeRate = 0.02
	// Smooth correction runs for this long, then the rate is restored.
	nudgeWindow = 5 * time.Second
	// Suppress re-forcing the same play/pause value within this window.
	stateDebounce = 1 * time.Second
	// Progress jumps above this, from a non-zero previous sample, are
	// treated as out-of-band seeks once confirmed by the next sample.
	seekJumpThreshold = 3.0
)

// Reconciler keeps a follower's player converged on the master's
// heartbeat stream, and detects out-of-band seeks on the master from
// its own progress samples.
type Reconciler struct {
	adapter player.Adapter
	state   *RoomState
	userID  string
	logger  *slog.Logger

	// onMasterSeek fires when a confirmed out-of-band seek is detected
	// from progress samples.
	onMasterSeek func(position float64)

	mu           sync.Mutex
	localPlaying *bool
	lastForced   *bool
	lastForcedAt time.Time
	prevProgress float64
	pendingSeek  *float64
	baseRate     float64
	nudgeTimer   *time.Timer

	nudgeFor time.Duration
	debounce time.Duration
	now      func() time.Time
}

func NewReconciler(adapter player.Adapter, state *RoomState, userID string, onMasterSeek func(position float64), logger *slog.Logger) *Reconciler {
	return &Reconciler{
		adapter:      adapter,
		state:        state,
		userID:       userID,
		onMasterSeek: onMasterSeek,
		logger:       logger,
		nudgeFor:     nudgeWindow,
		debounce:     stateDebounce,
		now:          time.Now,
	}
}

// NotifyPlaybackState records what the local player reports about
// itself; mismatch correction compares against it.
func (r *Reconciler) NotifyPlaybackState(state player.PlaybackState) {
	playing := state == player.StatePlaying

	r.mu.Lock()
	r.localPlaying = &playing
	r.mu.Unlock()
}

// HandleHeartbeat reconciles the local player against the master's
// snapshot. Heartbeats not signed by the currently-elected master are
// discarded as stale.
func (r *Reconciler) HandleHeartbeat(hb domain.HeartbeatPayload) {
	if hb.UserID == r.userID {
		return
	}

	master := SelectMaster(r.state.Users())
	if master == nil || master.ID != hb.UserID {
		r.logger.Debug("discarding heartbeat from non-master", "sender_id", hb.UserID)
		return
	}

	r.state.SetPlayer(hb.State)

	local, err := r.adapter.CurrentTime()
	if err != nil {
		local = hb.State.Position
	}

	drift := math.Abs(local - hb.State.Position)

	switch {
	case drift < driftIgnoreBelow:
		// Within jitter.
	case drift < driftHardAt:
		r.nudge(local < hb.State.Position)
	default:
		if err := r.adapter.SeekTo(hb.State.Position); err != nil {
			r.logger.Debug("drift hard seek failed", "error", err)
		}
		r.cancelNudge()
		if !hb.State.IsPlaying {
			// Seeking auto-resumes playback on some players. The pause
			// must land even when the player last reported itself
			// paused, so the mismatch and debounce checks do not apply.
			r.pauseAfterSeek()
			return
		}
	}

	// Binary state has no tolerance tier; correct it on every heartbeat.
	r.forcePlayState(hb.State.IsPlaying)
}

func (r *Reconciler) pauseAfterSeek() {
	want := false

	r.mu.Lock()
	r.lastForced = &want
	r.lastForcedAt = r.now()
	r.mu.Unlock()

	if err := r.adapter.Pause(); err != nil {
		r.logger.Debug("pause after hard seek failed", "error", err)
	}
}

// ObserveProgress feeds a progress sample from the local player. A jump
// larger than the threshold from a non-zero previous sample marks a
// candidate seek; it only counts once the following sample stays near
// the jumped-to position, which filters out buffering hiccups.
func (r *Reconciler) ObserveProgress(position float64) {
	r.mu.Lock()

	prev := r.prevProgress
	r.prevProgress = position

	if r.pendingSeek != nil {
		pending := *r.pendingSeek
		r.pendingSeek = nil
		confirmed := math.Abs(position-pending) < seekJumpThreshold
		cb := r.onMasterSeek
		r.mu.Unlock()

		if confirmed && cb != nil {
			cb(position)
		}
		return
	}

	if prev != 0 && math.Abs(position-prev) > seekJumpThreshold {
		r.pendingSeek = &position
	}
	r.mu.Unlock()
}

// ResetProgress clears the seek-detection history. Called after any
// deliberate seek so the resulting jump is not re-reported.
func (r *Reconciler) ResetProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prevProgress = 0
	r.pendingSeek = nil
}

// nudge bends the playback rate by 2% toward the master's position for
// a bounded window, then restores the authoritative rate.
func (r *Reconciler) nudge(behind bool) {
	base := r.state.Player().PlaybackRate
	if base <= 0 {
		base = 1
	}

	applied := base * (1 - nudgeRate)
	if behind {
		applied = base * (1 + nudgeRate)
	}

	r.mu.Lock()
	r.baseRate = base
	if r.nudgeTimer != nil {
		r.nudgeTimer.Stop()
	}
	r.nudgeTimer = time.AfterFunc(r.nudgeFor, r.restoreRate)
	r.mu.Unlock()

	if err := r.adapter.SetPlaybackRate(applied); err != nil {
		r.logger.Debug("rate nudge failed", "error", err)
	}
}

func (r *Reconciler) restoreRate() {
	r.mu.Lock()
	base := r.baseRate
	r.nudgeTimer = nil
	r.mu.Unlock()

	if base <= 0 {
		base = 1
	}
	if err := r.adapter.SetPlaybackRate(base); err != nil {
		r.logger.Debug("rate restore failed", "error", err)
	}
}

func (r *Reconciler) cancelNudge() {
	r.mu.Lock()
	timer := r.nudgeTimer
	base := r.baseRate
	r.nudgeTimer = nil
	r.mu.Unlock()

	if timer == nil {
		return
	}
	timer.Stop()
	if base > 0 {
		if err := r.adapter.SetPlaybackRate(base); err != nil {
			r.logger.Debug("rate restore failed", "error", err)
		}
	}
}

// forcePlayState pushes the authoritative play/pause value into the
// local player, remembering the last value it forced so duplicate
// triggers within the debounce window do not oscillate.
func (r *Reconciler) forcePlayState(want bool) {
	now := r.now()

	r.mu.Lock()
	if r.lastForced != nil && *r.lastForced == want && now.Sub(r.lastForcedAt) < r.debounce {
		r.mu.Unlock()
		return
	}
	if r.localPlaying != nil && *r.localPlaying == want {
		r.mu.Unlock()
		return
	}
	r.lastForced = &want
	r.lastForcedAt = now
	r.mu.Unlock()

	var err error
	if want {
		err = r.adapter.Play()
	} else {
		err = r.adapter.Pause()
	}
	if err != nil {
		r.logger.Debug("play state correction failed", "want_playing", want, "error", err)
	}
}

func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nudgeTimer != nil {
		r.nudgeTimer.Stop()
		r.nudgeTimer = nil
	}
}

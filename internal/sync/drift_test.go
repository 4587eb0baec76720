package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/player"
)

func masterRoster() []domain.User {
	return []domain.User{
		{ID: "master", Role: domain.RoleOwner, JoinedAt: 10},
		{ID: "follower", Role: domain.RoleMember, JoinedAt: 20},
	}
}

func newTestReconciler(t *testing.T) (*Reconciler, *fakeAdapter, *RoomState) {
	t.Helper()

	adapter := &fakeAdapter{}
	state := NewRoomState()
	state.SetUsers(masterRoster())

	r := NewReconciler(adapter, state, "follower", nil, testLogger())
	return r, adapter, state
}

func heartbeat(position float64, playing bool) domain.HeartbeatPayload {
	st := domain.NewPlayerState()
	st.Position = position
	st.IsPlaying = playing
	st.UpdatedAt = time.Now().UnixMilli()

	return domain.HeartbeatPayload{
		UserID:    "master",
		Timestamp: time.Now().UnixMilli(),
		State:     st,
	}
}

func TestHardCorrectionConverges(t *testing.T) {
	r, adapter, _ := newTestReconciler(t)
	adapter.setPosition(100)
	r.NotifyPlaybackState(player.StatePlaying)

	r.HandleHeartbeat(heartbeat(110, true))

	require.Equal(t, 1, adapter.seekCount())
	pos, err := adapter.CurrentTime()
	require.NoError(t, err)
	assert.Equal(t, 110.0, pos, "hard correction lands exactly on the heartbeat position")
}

func TestHardCorrectionPausesWhenMasterPaused(t *testing.T) {
	r, adapter, _ := newTestReconciler(t)
	adapter.setPosition(100)
	r.NotifyPlaybackState(player.StatePlaying)

	r.HandleHeartbeat(heartbeat(110, false))

	assert.Equal(t, 1, adapter.seekCount())
	assert.Equal(t, 1, adapter.pauseCount(), "seek on a paused master must not leave the player running")
}

func TestHardCorrectionPausesEvenWhenReportedPaused(t *testing.T) {
	r, adapter, _ := newTestReconciler(t)
	adapter.setPosition(100)

	// Some players auto-resume on seek, so a stale paused report must
	// not skip the explicit pause.
	r.NotifyPlaybackState(player.StatePaused)
	r.HandleHeartbeat(heartbeat(110, false))

	assert.Equal(t, 1, adapter.seekCount())
	assert.Equal(t, 1, adapter.pauseCount(), "the pause after a hard seek must fire regardless of the last reported state")
}

func TestHardCorrectionPauseBypassesDebounce(t *testing.T) {
	r, adapter, _ := newTestReconciler(t)
	now := time.Unix(1000, 0)
	r.now = func() time.Time { return now }
	adapter.setPosition(100)

	// Arm the debounce window with a forced pause.
	r.NotifyPlaybackState(player.StatePlaying)
	r.forcePlayState(false)
	require.Equal(t, 1, adapter.pauseCount())
	r.NotifyPlaybackState(player.StatePaused)

	// A hard correction inside the window still pauses.
	now = now.Add(200 * time.Millisecond)
	r.HandleHeartbeat(heartbeat(110, false))

	assert.Equal(t, 2, adapter.pauseCount())
}

func TestNoOpBelowThreshold(t *testing.T) {
	r, adapter, _ := newTestReconciler(t)
	adapter.setPosition(100)
	r.NotifyPlaybackState(player.StatePlaying)

	r.HandleHeartbeat(heartbeat(102.5, true))

	assert.Equal(t, 0, adapter.seekCount(), "drift below threshold issues no seek")
	assert.Empty(t, adapter.rateLog(), "drift below threshold issues no rate change")
}

func TestSmoothCorrectionNudgesAndRestores(t *testing.T) {
	r, adapter, _ := newTestReconciler(t)
	r.nudgeFor = 20 * time.Millisecond
	adapter.setPosition(100)
	r.NotifyPlaybackState(player.StatePlaying)

	// Behind the master by 4s: speed up.
	r.HandleHeartbeat(heartbeat(104, true))

	assert.Equal(t, 0, adapter.seekCount(), "moderate drift must not hard-seek")
	rates := adapter.rateLog()
	require.Len(t, rates, 1)
	assert.InDelta(t, 1.02, rates[0], 1e-9)

	assert.Eventually(t, func() bool {
		rates := adapter.rateLog()
		return len(rates) == 2 && rates[1] == 1.0
	}, time.Second, 5*time.Millisecond, "the rate must be restored after the nudge window")
}

func TestSmoothCorrectionSlowsWhenAhead(t *testing.T) {
	r, adapter, _ := newTestReconciler(t)
	r.nudgeFor = time.Minute
	defer r.Stop()
	adapter.setPosition(104)
	r.NotifyPlaybackState(player.StatePlaying)

	r.HandleHeartbeat(heartbeat(100, true))

	rates := adapter.rateLog()
	require.Len(t, rates, 1)
	assert.InDelta(t, 0.98, rates[0], 1e-9)
}

func TestHeartbeatFromNonMasterDiscarded(t *testing.T) {
	r, adapter, _ := newTestReconciler(t)
	adapter.setPosition(0)
	r.NotifyPlaybackState(player.StatePlaying)

	hb := heartbeat(500, true)
	hb.UserID = "rogue"
	r.HandleHeartbeat(hb)

	assert.Equal(t, 0, adapter.seekCount(), "a heartbeat from a non-master must be ignored")
	assert.Equal(t, 0, adapter.pauseCount())
}

func TestOwnHeartbeatIgnored(t *testing.T) {
	adapter := &fakeAdapter{}
	state := NewRoomState()
	state.SetUsers(masterRoster())
	r := NewReconciler(adapter, state, "master", nil, testLogger())
	adapter.setPosition(0)

	r.HandleHeartbeat(heartbeat(500, true))

	assert.Equal(t, 0, adapter.seekCount())
}

func TestPlayStateDebounce(t *testing.T) {
	r, adapter, _ := newTestReconciler(t)
	now := time.Unix(1000, 0)
	r.now = func() time.Time { return now }

	adapter.setPosition(100)
	r.NotifyPlaybackState(player.StatePaused)

	// Two triggers for the same target state inside the debounce window.
	r.forcePlayState(true)
	now = now.Add(300 * time.Millisecond)
	r.forcePlayState(true)

	assert.Equal(t, 1, adapter.playCount(), "duplicate correction within the window must be suppressed")

	// Past the window the correction may fire again.
	now = now.Add(2 * time.Second)
	r.forcePlayState(true)
	assert.Equal(t, 2, adapter.playCount())
}

func TestPlayStateMatchSkipsCorrection(t *testing.T) {
	r, adapter, _ := newTestReconciler(t)
	r.NotifyPlaybackState(player.StatePlaying)

	r.forcePlayState(true)

	assert.Equal(t, 0, adapter.playCount(), "no mutation when the player already matches")
}

func TestSeekDetectionRequiresTwoSamples(t *testing.T) {
	var detected []float64
	adapter := &fakeAdapter{}
	state := NewRoomState()
	state.SetUsers(masterRoster())
	r := NewReconciler(adapter, state, "master", func(pos float64) { detected = append(detected, pos) }, testLogger())

	r.ObserveProgress(10)
	r.ObserveProgress(11)
	r.ObserveProgress(50) // candidate jump
	assert.Empty(t, detected, "a single jump sample is not yet a seek")

	r.ObserveProgress(51) // confirmation
	require.Len(t, detected, 1)
	assert.Equal(t, 51.0, detected[0])
}

func TestSeekDetectionRejectsBufferingHiccup(t *testing.T) {
	var detected []float64
	adapter := &fakeAdapter{}
	state := NewRoomState()
	state.SetUsers(masterRoster())
	r := NewReconciler(adapter, state, "master", func(pos float64) { detected = append(detected, pos) }, testLogger())

	r.ObserveProgress(10)
	r.ObserveProgress(50) // spurious spike
	r.ObserveProgress(11) // back to normal
	r.ObserveProgress(12)

	assert.Empty(t, detected, "a spike that does not persist is not a seek")
}

func TestSeekDetectionIgnoresFirstSample(t *testing.T) {
	var detected []float64
	adapter := &fakeAdapter{}
	state := NewRoomState()
	r := NewReconciler(adapter, state, "master", func(pos float64) { detected = append(detected, pos) }, testLogger())

	// Previous sample of zero means first load, not a seek.
	r.ObserveProgress(120)
	r.ObserveProgress(121)

	assert.Empty(t, detected)
}

func TestResetProgressClearsPendingSeek(t *testing.T) {
	var detected []float64
	adapter := &fakeAdapter{}
	state := NewRoomState()
	r := NewReconciler(adapter, state, "master", func(pos float64) { detected = append(detected, pos) }, testLogger())

	r.ObserveProgress(10)
	r.ObserveProgress(50)
	r.ResetProgress()
	r.ObserveProgress(51)
	r.ObserveProgress(52)

	assert.Empty(t, detected, "a deliberate seek resets detection history")
}

package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/player"
)

const (
	// A failing player is reloaded this many times before giving up.
	playerErrorRetries = 2
	playerRetryDelay   = 1 * time.Second
	// After retries run out, wait this long before treating the failure
	// as a natural end-of-track.
	playerErrorGrace = 2 * time.Second
)

// Coordinator runs one client's side of the room sync protocol: it
// hydrates local state from the store, reacts to broadcast events,
// emits heartbeats while this client holds the master role, and keeps
// the local player converged on the authoritative state.
type Coordinator struct {
	store   Store
	channel Channel
	adapter player.Adapter
	user    domain.User
	logger  *slog.Logger

	state       *RoomState
	reconciler  *Reconciler
	emitter     *Emitter
	reconnector *Reconnector

	mu           sync.Mutex
	lastMasterID *string
	errRetries   int
	stopped      bool

	retryDelay time.Duration
	graceDelay time.Duration
}

func NewCoordinator(store Store, channel Channel, adapter player.Adapter, user domain.User, logger *slog.Logger) *Coordinator {
	c := &Coordinator{
		store:      store,
		channel:    channel,
		adapter:    adapter,
		user:       user,
		logger:     logger,
		state:      NewRoomState(),
		retryDelay: playerRetryDelay,
		graceDelay: playerErrorGrace,
	}

	c.reconciler = NewReconciler(adapter, c.state, user.ID, c.onMasterSeek, logger)
	c.emitter = NewEmitter(channel, c.state, user.ID, adapter.CurrentTime, logger)
	c.reconnector = NewReconnector(channel, c.onReconnected, c.onReconnectFailed, logger)

	return c
}

func (c *Coordinator) Start(ctx context.Context) error {
	snapshot, err := c.store.FetchSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch room snapshot: %w", err)
	}
	c.state.Hydrate(snapshot)

	c.adapter.SetCallbacks(player.Callbacks{
		OnProgress:    c.onProgress,
		OnEnded:       c.onTrackEnded,
		OnError:       c.onPlayerError,
		OnStateChange: c.reconciler.NotifyPlaybackState,
	})

	c.registerHandlers()

	err = c.channel.Subscribe(ctx, func(status Status, err error) {
		c.reconnector.HandleStatus(ctx, status, err)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to room channel: %w", err)
	}

	c.announceJoin(ctx)
	c.emitter.Start(ctx)
	c.loadCurrentTrack()

	return nil
}

// Stop tears the client down deliberately: no reconnection fires after
// it, and departure is announced best-effort.
func (c *Coordinator) Stop(ctx context.Context) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()

	c.reconnector.Shutdown()
	c.emitter.Stop()
	c.reconciler.Stop()

	// Losing the leave notice is fine; store TTLs reflect absence.
	if err := c.channel.Send(ctx, domain.EventUserLeave, domain.UserLeavePayload{UserID: c.user.ID}); err != nil {
		c.logger.Debug("leave broadcast failed", "error", err)
	}
	if err := c.store.LeaveRoster(ctx); err != nil {
		c.logger.Debug("leave roster failed", "error", err)
	}

	if err := c.channel.Unsubscribe(); err != nil {
		c.logger.Debug("unsubscribe failed", "error", err)
	}
	if err := c.adapter.Close(); err != nil {
		c.logger.Debug("player close failed", "error", err)
	}
}

func (c *Coordinator) State() *RoomState { return c.state }

// Failed reports whether reconnection hit its terminal state.
func (c *Coordinator) Failed() bool { return c.reconnector.Failed() }

// --- locally-initiated actions ---
//
// Each applies optimistically, broadcasts, and persists asynchronously;
// the broadcast never waits on the persist.

func (c *Coordinator) Play(ctx context.Context) {
	prev := c.state.Player()
	playing := true
	c.state.ApplyPatch(&domain.PlayerStatePatch{IsPlaying: &playing})
	c.reconciler.forcePlayState(true)

	c.broadcast(ctx, domain.EventPlay, struct{}{})
	go c.persistPlayPause(ctx, true, prev.IsPlaying)
}

func (c *Coordinator) Pause(ctx context.Context) {
	prev := c.state.Player()
	playing := false
	c.state.ApplyPatch(&domain.PlayerStatePatch{IsPlaying: &playing})
	c.reconciler.forcePlayState(false)

	c.broadcast(ctx, domain.EventPause, struct{}{})
	go c.persistPlayPause(ctx, false, prev.IsPlaying)
}

// persistPlayPause rolls the optimistic play/pause flip back if the
// store rejects it; position and the rest stay last-write-wins.
func (c *Coordinator) persistPlayPause(ctx context.Context, want, prev bool) {
	_, err := c.store.PersistPlayerState(ctx, domain.PlayerStatePatch{IsPlaying: &want})
	if err == nil {
		return
	}

	c.logger.Warn("play state persist failed, rolling back", "error", err)
	c.state.ApplyPatch(&domain.PlayerStatePatch{IsPlaying: &prev})
	c.reconciler.forcePlayState(prev)
}

func (c *Coordinator) Seek(ctx context.Context, position float64) {
	c.state.ApplyPatch(&domain.PlayerStatePatch{Position: &position})
	if err := c.adapter.SeekTo(position); err != nil {
		c.logger.Debug("local seek failed", "error", err)
	}
	c.reconciler.ResetProgress()

	c.broadcast(ctx, domain.EventSeek, domain.SeekPayload{Position: position})
	go c.persistState(ctx, domain.PlayerStatePatch{Position: &position})
}

func (c *Coordinator) Next(ctx context.Context) {
	c.stepTrack(ctx, 1, domain.EventNext)
}

func (c *Coordinator) Previous(ctx context.Context) {
	c.stepTrack(ctx, -1, domain.EventPrevious)
}

func (c *Coordinator) stepTrack(ctx context.Context, delta int, event string) {
	playlist := c.state.Playlist()
	if len(playlist) == 0 {
		return
	}

	st := c.state.Player()
	index := (st.CurrentTrackIndex + delta + len(playlist)) % len(playlist)
	position := 0.0
	c.state.ApplyPatch(&domain.PlayerStatePatch{CurrentTrackIndex: &index, Position: &position})
	c.loadCurrentTrack()

	c.broadcast(ctx, event, struct{}{})
	go c.persistState(ctx, domain.PlayerStatePatch{CurrentTrackIndex: &index, Position: &position})
}

func (c *Coordinator) persistState(ctx context.Context, patch domain.PlayerStatePatch) {
	if _, err := c.store.PersistPlayerState(ctx, patch); err != nil {
		c.logger.Warn("player state persist failed", "error", err)
	}
}

func (c *Coordinator) broadcast(ctx context.Context, event string, payload any) {
	if err := c.channel.Send(ctx, event, payload); err != nil {
		c.logger.Debug("broadcast failed", "event", event, "error", err)
	}
}

// --- broadcast event handlers ---

func (c *Coordinator) registerHandlers() {
	c.channel.On(domain.EventPlay, func(json.RawMessage) {
		playing := true
		c.state.ApplyPatch(&domain.PlayerStatePatch{IsPlaying: &playing})
		c.reconciler.forcePlayState(true)
	})

	c.channel.On(domain.EventPause, func(json.RawMessage) {
		playing := false
		c.state.ApplyPatch(&domain.PlayerStatePatch{IsPlaying: &playing})
		c.reconciler.forcePlayState(false)
	})

	c.channel.On(domain.EventSeek, func(raw json.RawMessage) {
		var p domain.SeekPayload
		if !c.decode(domain.EventSeek, raw, &p) {
			return
		}

		c.state.ApplyPatch(&domain.PlayerStatePatch{Position: &p.Position})
		if err := c.adapter.SeekTo(p.Position); err != nil {
			c.logger.Debug("seek apply failed", "error", err)
		}
		c.reconciler.ResetProgress()
	})

	c.channel.On(domain.EventNext, func(json.RawMessage) { c.applyStep(1) })
	c.channel.On(domain.EventPrevious, func(json.RawMessage) { c.applyStep(-1) })

	c.channel.On(domain.EventPlayerState, func(raw json.RawMessage) {
		var p domain.PlayerStatePayload
		if !c.decode(domain.EventPlayerState, raw, &p) {
			return
		}
		c.applyStatePatch(p.State)
	})

	c.channel.On(domain.EventTrackAdd, func(raw json.RawMessage) {
		var p domain.TrackAddPayload
		if !c.decode(domain.EventTrackAdd, raw, &p) {
			return
		}

		wasEmpty := c.state.AppendTrack(p.Track)
		c.maybeAutoStart(wasEmpty)
	})

	c.channel.On(domain.EventPlaylistUpdate, func(raw json.RawMessage) {
		var p domain.PlaylistUpdatePayload
		if !c.decode(domain.EventPlaylistUpdate, raw, &p) {
			return
		}

		wasEmpty := c.state.SetPlaylist(p.Playlist)
		c.maybeAutoStart(wasEmpty)
		c.reloadIfCurrentChanged()
	})

	c.channel.On(domain.EventTrackRemove, func(raw json.RawMessage) {
		var p domain.TrackRemovePayload
		if !c.decode(domain.EventTrackRemove, raw, &p) {
			return
		}
		c.applyTrackRemove(p.TrackID)
	})

	c.channel.On(domain.EventTrackReorder, func(raw json.RawMessage) {
		var p domain.TrackReorderPayload
		if !c.decode(domain.EventTrackReorder, raw, &p) {
			return
		}
		c.applyReorder(p.FromIndex, p.ToIndex)
	})

	c.channel.On(domain.EventVoteSkip, func(raw json.RawMessage) {
		var p domain.VoteSkipPayload
		if !c.decode(domain.EventVoteSkip, raw, &p) {
			return
		}
		if p.ShouldSkip {
			c.applyStep(1)
		}
	})

	c.channel.On(domain.EventUserJoin, func(raw json.RawMessage) {
		var p domain.UserJoinPayload
		if !c.decode(domain.EventUserJoin, raw, &p) {
			return
		}

		c.state.AddUser(p.User)
		c.electMaster(context.Background())
	})

	c.channel.On(domain.EventUserLeave, func(raw json.RawMessage) {
		var p domain.UserLeavePayload
		if !c.decode(domain.EventUserLeave, raw, &p) {
			return
		}

		c.state.RemoveUser(p.UserID)
		c.electMaster(context.Background())
	})

	c.channel.On(domain.EventUsersUpdate, func(raw json.RawMessage) {
		var p domain.UsersUpdatePayload
		if !c.decode(domain.EventUsersUpdate, raw, &p) {
			return
		}

		c.state.SetUsers(p.Users)
		c.electMaster(context.Background())
	})

	c.channel.On(domain.EventMasterChanged, func(raw json.RawMessage) {
		var p domain.MasterChangedPayload
		if !c.decode(domain.EventMasterChanged, raw, &p) {
			return
		}

		c.mu.Lock()
		c.lastMasterID = p.MasterID
		c.mu.Unlock()
	})

	c.channel.On(domain.EventHeartbeat, func(raw json.RawMessage) {
		var p domain.HeartbeatPayload
		if !c.decode(domain.EventHeartbeat, raw, &p) {
			return
		}
		c.reconciler.HandleHeartbeat(p)
	})
}

func (c *Coordinator) decode(event string, raw json.RawMessage, v any) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		c.logger.Warn("malformed event payload", "event", event, "error", err)
		return false
	}
	return true
}

// applyStatePatch merges a partial state and mirrors the changed fields
// into the local player.
func (c *Coordinator) applyStatePatch(patch domain.PlayerStatePatch) {
	before := c.state.Player()
	after := c.state.ApplyPatch(&patch)

	if patch.CurrentTrackIndex != nil && *patch.CurrentTrackIndex != before.CurrentTrackIndex {
		c.loadCurrentTrack()
		return
	}

	if patch.Position != nil {
		if err := c.adapter.SeekTo(*patch.Position); err != nil {
			c.logger.Debug("state seek failed", "error", err)
		}
		c.reconciler.ResetProgress()
	}
	if patch.PlaybackRate != nil {
		if err := c.adapter.SetPlaybackRate(*patch.PlaybackRate); err != nil {
			c.logger.Debug("rate apply failed", "error", err)
		}
	}
	if patch.Volume != nil {
		if err := c.adapter.SetVolume(*patch.Volume); err != nil {
			c.logger.Debug("volume apply failed", "error", err)
		}
	}
	if patch.IsPlaying != nil {
		c.reconciler.forcePlayState(after.IsPlaying)
	}
}

func (c *Coordinator) applyStep(delta int) {
	playlist := c.state.Playlist()
	if len(playlist) == 0 {
		return
	}

	st := c.state.Player()
	index := (st.CurrentTrackIndex + delta + len(playlist)) % len(playlist)
	position := 0.0
	c.state.ApplyPatch(&domain.PlayerStatePatch{CurrentTrackIndex: &index, Position: &position})
	c.loadCurrentTrack()
}

func (c *Coordinator) maybeAutoStart(wasEmpty bool) {
	patch := AutoStart(wasEmpty, c.state.Playlist())
	if patch == nil {
		return
	}

	c.state.ApplyPatch(patch)
	c.loadCurrentTrack()

	if IsMaster(c.state.Users(), c.user.ID) {
		go c.persistState(context.Background(), *patch)
	}
}

func (c *Coordinator) applyTrackRemove(trackID string) {
	current := c.state.CurrentTrack()

	playlist, st := ApplyTrackRemove(c.state.Playlist(), c.state.Player(), trackID)
	c.state.SetPlaylist(playlist)
	c.state.SetPlayer(st)

	if current != nil && current.ID == trackID {
		c.loadCurrentTrack()
	}
}

// applyReorder moves a track and keeps the player pinned to the same
// track it was on, wherever that track landed.
func (c *Coordinator) applyReorder(from, to int) {
	current := c.state.CurrentTrack()

	playlist, err := domain.ReorderTracks(c.state.Playlist(), from, to)
	if err != nil {
		return
	}
	c.state.SetPlaylist(playlist)

	if current == nil {
		return
	}
	for i, track := range playlist {
		if track.ID == current.ID {
			index := i
			c.state.ApplyPatch(&domain.PlayerStatePatch{CurrentTrackIndex: &index})
			return
		}
	}
}

// reloadIfCurrentChanged reloads the player when a playlist replacement
// swapped the track under the current index.
func (c *Coordinator) reloadIfCurrentChanged() {
	// The cheap check: Load is idempotent for the same track, so always
	// reloading on full playlist replacement would stutter playback.
	// Compare ids instead.
	track := c.state.CurrentTrack()
	if track == nil {
		return
	}
	if pos, err := c.adapter.CurrentTime(); err == nil && pos > 0 {
		return
	}
	c.loadCurrentTrack()
}

// electMaster recomputes the master after a roster change. The newly
// elected master announces the result so clients with a transiently
// inconsistent roster still converge.
func (c *Coordinator) electMaster(ctx context.Context) {
	master := SelectMaster(c.state.Users())

	var masterID *string
	if master != nil {
		masterID = &master.ID
	}

	c.mu.Lock()
	changed := !equalID(c.lastMasterID, masterID)
	c.lastMasterID = masterID
	c.mu.Unlock()

	if !changed {
		return
	}

	c.logger.Info("sync master changed", "master_type", MasterType(master))

	if master != nil && master.ID == c.user.ID {
		c.broadcast(ctx, domain.EventMasterChanged, domain.MasterChangedPayload{
			MasterID:   masterID,
			MasterType: MasterType(master),
		})
	}
}

func equalID(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// --- player callbacks ---

func (c *Coordinator) onProgress(position float64) {
	if IsMaster(c.state.Users(), c.user.ID) {
		c.reconciler.ObserveProgress(position)
	}
}

// onMasterSeek turns a confirmed out-of-band seek on the master's own
// player into an authoritative one: shared state update plus broadcast.
func (c *Coordinator) onMasterSeek(position float64) {
	ctx := context.Background()

	c.state.ApplyPatch(&domain.PlayerStatePatch{Position: &position})
	c.broadcast(ctx, domain.EventSeek, domain.SeekPayload{Position: position})
	go c.persistState(ctx, domain.PlayerStatePatch{Position: &position})
}

func (c *Coordinator) onTrackEnded() {
	ctx := context.Background()

	playlist, st, removedID := NextAfterEnded(c.state.Playlist(), c.state.Player())
	c.state.SetPlaylist(playlist)
	c.state.SetPlayer(st)
	c.loadCurrentTrack()

	// Followers converge via the master's events and heartbeats; only
	// the master persists and broadcasts the outcome.
	if !IsMaster(c.state.Users(), c.user.ID) {
		return
	}

	go func() {
		if removedID != "" {
			if _, err := c.store.RemoveTrack(ctx, removedID); err != nil {
				c.logger.Warn("finished track removal failed", "track_id", removedID, "error", err)
			}
		}
		c.persistState(ctx, domain.PlayerStatePatch{
			CurrentTrackIndex: &st.CurrentTrackIndex,
			Position:          &st.Position,
			IsPlaying:         &st.IsPlaying,
		})
	}()

	if removedID != "" {
		c.broadcast(ctx, domain.EventPlaylistUpdate, domain.PlaylistUpdatePayload{Playlist: playlist})
	}
	c.broadcast(ctx, domain.EventPlayerState, domain.PlayerStatePayload{State: domain.PlayerStatePatch{
		CurrentTrackIndex: &st.CurrentTrackIndex,
		Position:          &st.Position,
		IsPlaying:         &st.IsPlaying,
	}})
}

// onPlayerError reloads the track a couple of times, then lets the
// room move on as if the track had ended, so one broken link does not
// stall everyone.
func (c *Coordinator) onPlayerError(err error) {
	c.mu.Lock()
	c.errRetries++
	retries := c.errRetries
	c.mu.Unlock()

	if retries <= playerErrorRetries {
		c.logger.Warn("player error, retrying", "attempt", retries, "error", err)
		time.AfterFunc(c.retryDelay, func() {
			track := c.state.CurrentTrack()
			if track == nil {
				return
			}
			st := c.state.Player()
			if loadErr := c.adapter.Load(*track); loadErr != nil {
				c.onPlayerError(loadErr)
				return
			}
			if seekErr := c.adapter.SeekTo(st.Position); seekErr != nil {
				c.logger.Debug("retry seek failed", "error", seekErr)
			}
			if st.IsPlaying {
				if playErr := c.adapter.Play(); playErr != nil {
					c.onPlayerError(playErr)
				}
			}
		})
		return
	}

	c.logger.Error("player error, skipping track", "error", err)
	time.AfterFunc(c.graceDelay, c.onTrackEnded)
}

// --- lifecycle helpers ---

func (c *Coordinator) announceJoin(ctx context.Context) {
	c.state.AddUser(c.user)
	c.broadcast(ctx, domain.EventUserJoin, domain.UserJoinPayload{User: c.user})
	c.electMaster(ctx)
}

// onReconnected re-hydrates from the store and re-announces presence;
// channel membership does not survive a resubscription.
func (c *Coordinator) onReconnected(ctx context.Context) {
	snapshot, err := c.store.FetchSnapshot(ctx)
	if err != nil {
		c.logger.Warn("rehydrate after reconnect failed", "error", err)
	} else {
		c.state.Hydrate(snapshot)
		c.loadCurrentTrack()
	}

	c.announceJoin(ctx)
}

func (c *Coordinator) onReconnectFailed() {
	c.logger.Error("room connection lost permanently; restart the client to rejoin")
}

// loadCurrentTrack points the player at the track under the current
// index and mirrors position and play state into it. With no track the
// room is idle and the player just pauses.
func (c *Coordinator) loadCurrentTrack() {
	c.mu.Lock()
	c.errRetries = 0
	c.mu.Unlock()

	track := c.state.CurrentTrack()
	if track == nil {
		if err := c.adapter.Pause(); err != nil {
			c.logger.Debug("pause on idle failed", "error", err)
		}
		return
	}

	st := c.state.Player()

	if err := c.adapter.Load(*track); err != nil {
		c.onPlayerError(err)
		return
	}
	if st.Position > 0 {
		if err := c.adapter.SeekTo(st.Position); err != nil {
			c.logger.Debug("initial seek failed", "error", err)
		}
	}
	if err := c.adapter.SetVolume(st.Volume); err != nil {
		c.logger.Debug("volume apply failed", "error", err)
	}

	c.reconciler.ResetProgress()

	if st.IsPlaying {
		if err := c.adapter.Play(); err != nil {
			c.onPlayerError(err)
		}
	}
}

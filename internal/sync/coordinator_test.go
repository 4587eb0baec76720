package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxroom/server/internal/domain"
)

func testSnapshot() domain.RoomSnapshot {
	return domain.RoomSnapshot{
		Room: domain.Room{ID: "room-1", Name: "test", OwnerID: "owner"},
		Playlist: []domain.Track{
			{ID: "a", Title: "A", Duration: 180},
			{ID: "b", Title: "B", Duration: 200},
		},
		Users: []domain.User{
			{ID: "owner", Role: domain.RoleOwner, JoinedAt: 10},
			{ID: "member", Role: domain.RoleMember, JoinedAt: 20},
		},
		PlayerState: domain.NewPlayerState(),
	}
}

func newTestCoordinator(t *testing.T, userID string, role domain.Role) (*Coordinator, *fakeStore, *fakeChannel, *fakeAdapter) {
	t.Helper()

	store := &fakeStore{snapshot: testSnapshot()}
	channel := newFakeChannel()
	adapter := &fakeAdapter{}
	user := domain.User{ID: userID, Username: userID, Role: role, JoinedAt: 10}

	c := NewCoordinator(store, channel, adapter, user, testLogger())
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { c.Stop(context.Background()) })

	return c, store, channel, adapter
}

func TestStartHydratesAndAnnounces(t *testing.T) {
	c, _, channel, adapter := newTestCoordinator(t, "owner", domain.RoleOwner)

	assert.Equal(t, "room-1", c.State().Room().ID)
	assert.Len(t, c.State().Playlist(), 2)

	joins := channel.sentEvents(domain.EventUserJoin)
	require.Len(t, joins, 1, "presence must be announced on start")

	adapter.mu.Lock()
	loaded := len(adapter.loaded)
	adapter.mu.Unlock()
	assert.Equal(t, 1, loaded, "the current track is loaded into the player")
}

func TestPlayIsOptimisticAndBroadcast(t *testing.T) {
	c, store, channel, _ := newTestCoordinator(t, "owner", domain.RoleOwner)

	c.Play(context.Background())

	assert.True(t, c.State().Player().IsPlaying, "local state flips before any network round-trip")
	assert.Len(t, channel.sentEvents(domain.EventPlay), 1)

	assert.Eventually(t, func() bool {
		return store.persistCount() == 1
	}, time.Second, 5*time.Millisecond, "the flip is persisted asynchronously")
}

func TestPlayRollsBackWhenPersistFails(t *testing.T) {
	c, store, channel, _ := newTestCoordinator(t, "owner", domain.RoleOwner)

	store.mu.Lock()
	store.persistErr = assert.AnError
	store.mu.Unlock()

	c.Play(context.Background())

	// The broadcast still goes out; only the local flip is undone.
	assert.Len(t, channel.sentEvents(domain.EventPlay), 1)

	assert.Eventually(t, func() bool {
		return !c.State().Player().IsPlaying
	}, time.Second, 5*time.Millisecond, "a rejected persist rolls the play flip back")
}

func TestSeekBroadcastsAndSeeksLocally(t *testing.T) {
	c, _, channel, adapter := newTestCoordinator(t, "owner", domain.RoleOwner)

	c.Seek(context.Background(), 42)

	assert.Equal(t, 42.0, c.State().Player().Position)
	seeks := channel.sentEvents(domain.EventSeek)
	require.Len(t, seeks, 1)
	assert.Equal(t, domain.SeekPayload{Position: 42}, seeks[0].payload)
	assert.GreaterOrEqual(t, adapter.seekCount(), 1)
}

func TestReceivedSeekApplies(t *testing.T) {
	c, _, channel, adapter := newTestCoordinator(t, "member", domain.RoleMember)

	channel.emit(domain.EventSeek, domain.SeekPayload{Position: 90})

	assert.Equal(t, 90.0, c.State().Player().Position)
	assert.GreaterOrEqual(t, adapter.seekCount(), 1)
}

func TestReceivedStateMergesShallow(t *testing.T) {
	c, _, channel, _ := newTestCoordinator(t, "member", domain.RoleMember)

	volume := 80
	channel.emit(domain.EventPlayerState, domain.PlayerStatePayload{
		State: domain.PlayerStatePatch{Volume: &volume},
	})

	got := c.State().Player()
	assert.Equal(t, 80, got.Volume)
	assert.Equal(t, 0, got.CurrentTrackIndex, "untouched fields survive the merge")
}

func TestTrackAddAutoStartsEmptyRoom(t *testing.T) {
	store := &fakeStore{snapshot: testSnapshot()}
	store.snapshot.Playlist = nil
	channel := newFakeChannel()
	adapter := &fakeAdapter{}
	user := domain.User{ID: "owner", Role: domain.RoleOwner, JoinedAt: 10}

	c := NewCoordinator(store, channel, adapter, user, testLogger())
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop(context.Background())

	channel.emit(domain.EventTrackAdd, domain.TrackAddPayload{
		Track: domain.Track{ID: "x", Title: "X", Duration: 120},
	})

	got := c.State().Player()
	assert.True(t, got.IsPlaying, "the first track starts playback")
	assert.Equal(t, 0, got.CurrentTrackIndex)
	assert.Equal(t, 0.0, got.Position)

	assert.Eventually(t, func() bool {
		return store.persistCount() == 1
	}, time.Second, 5*time.Millisecond, "the master persists the auto-start")
}

func TestTrackEndedOnMasterAdvancesAndBroadcasts(t *testing.T) {
	c, store, channel, _ := newTestCoordinator(t, "owner", domain.RoleOwner)

	playing := true
	c.State().ApplyPatch(&domain.PlayerStatePatch{IsPlaying: &playing})

	c.onTrackEnded()

	got := c.State().Player()
	assert.Equal(t, 1, got.CurrentTrackIndex)
	assert.True(t, got.IsPlaying)

	states := channel.sentEvents(domain.EventPlayerState)
	require.Len(t, states, 1, "the master broadcasts the outcome")

	assert.Eventually(t, func() bool {
		return store.persistCount() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestTrackEndedOnFollowerStaysLocal(t *testing.T) {
	c, store, channel, _ := newTestCoordinator(t, "member", domain.RoleMember)

	c.onTrackEnded()

	assert.Equal(t, 1, c.State().Player().CurrentTrackIndex, "the follower advances locally")
	assert.Empty(t, channel.sentEvents(domain.EventPlayerState), "only the master broadcasts")

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, store.persistCount(), "only the master persists")
}

func TestQueueModeEndRemovesTrackDurably(t *testing.T) {
	c, store, channel, _ := newTestCoordinator(t, "owner", domain.RoleOwner)

	mode := domain.QueueModeQueue
	c.State().ApplyPatch(&domain.PlayerStatePatch{QueueMode: &mode})

	c.onTrackEnded()

	playlist := c.State().Playlist()
	require.Len(t, playlist, 1)
	assert.Equal(t, "b", playlist[0].ID)

	assert.Eventually(t, func() bool {
		removed := store.removedTracks()
		return len(removed) == 1 && removed[0] == "a"
	}, time.Second, 5*time.Millisecond, "the finished track is removed from the store")

	require.Len(t, channel.sentEvents(domain.EventPlaylistUpdate), 1)
}

func TestRosterChangeElectsAndAnnouncesMaster(t *testing.T) {
	_, _, channel, _ := newTestCoordinator(t, "owner", domain.RoleOwner)

	// Startup already elected this client.
	announced := channel.sentEvents(domain.EventMasterChanged)
	require.Len(t, announced, 1)
	payload, ok := announced[0].payload.(domain.MasterChangedPayload)
	require.True(t, ok)
	require.NotNil(t, payload.MasterID)
	assert.Equal(t, "owner", *payload.MasterID)
	assert.Equal(t, MasterTypeOwner, payload.MasterType)

	// Another member joining does not change the election.
	channel.emit(domain.EventUserJoin, domain.UserJoinPayload{
		User: domain.User{ID: "third", Role: domain.RoleMember, JoinedAt: 30},
	})
	assert.Len(t, channel.sentEvents(domain.EventMasterChanged), 1)
}

func TestVoteSkipOutcomeAdvances(t *testing.T) {
	c, _, channel, _ := newTestCoordinator(t, "member", domain.RoleMember)

	channel.emit(domain.EventVoteSkip, domain.VoteSkipPayload{
		TrackID: "a", VoteCount: 1, RequiredVotes: 2, ShouldSkip: false,
	})
	assert.Equal(t, 0, c.State().Player().CurrentTrackIndex, "an unresolved vote changes nothing")

	channel.emit(domain.EventVoteSkip, domain.VoteSkipPayload{
		TrackID: "a", VoteCount: 2, RequiredVotes: 2, ShouldSkip: true,
	})
	assert.Equal(t, 1, c.State().Player().CurrentTrackIndex)
}

func TestTrackRemoveEventKeepsPlayback(t *testing.T) {
	c, _, channel, _ := newTestCoordinator(t, "member", domain.RoleMember)

	index := 1
	playing := true
	c.State().ApplyPatch(&domain.PlayerStatePatch{CurrentTrackIndex: &index, IsPlaying: &playing})

	channel.emit(domain.EventTrackRemove, domain.TrackRemovePayload{TrackID: "b"})

	got := c.State().Player()
	assert.Equal(t, 0, got.CurrentTrackIndex, "index clamps onto the remaining track")
	assert.True(t, got.IsPlaying)
	assert.Len(t, c.State().Playlist(), 1)
}

func TestStopAnnouncesLeaveAndGoesQuiet(t *testing.T) {
	store := &fakeStore{snapshot: testSnapshot()}
	channel := newFakeChannel()
	adapter := &fakeAdapter{}
	user := domain.User{ID: "member", Role: domain.RoleMember, JoinedAt: 20}

	c := NewCoordinator(store, channel, adapter, user, testLogger())
	require.NoError(t, c.Start(context.Background()))

	c.Stop(context.Background())

	leaves := channel.sentEvents(domain.EventUserLeave)
	require.Len(t, leaves, 1)
	store.mu.Lock()
	left := store.left
	store.mu.Unlock()
	assert.True(t, left, "the roster entry is released")

	// Stop is idempotent.
	c.Stop(context.Background())
	assert.Len(t, channel.sentEvents(domain.EventUserLeave), 1)
}

func TestPlayerErrorEventuallySkipsTrack(t *testing.T) {
	c, _, _, adapter := newTestCoordinator(t, "owner", domain.RoleOwner)
	c.retryDelay = time.Millisecond
	c.graceDelay = time.Millisecond

	playing := true
	c.State().ApplyPatch(&domain.PlayerStatePatch{IsPlaying: &playing})

	c.onPlayerError(assert.AnError)
	c.onPlayerError(assert.AnError)
	c.onPlayerError(assert.AnError)

	assert.Eventually(t, func() bool {
		return c.State().Player().CurrentTrackIndex == 1
	}, time.Second, 5*time.Millisecond, "exhausted retries advance like a natural end")

	adapter.mu.Lock()
	loads := len(adapter.loaded)
	adapter.mu.Unlock()
	assert.GreaterOrEqual(t, loads, 3, "the failing track was reloaded before giving up")
}

package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxroom/server/internal/domain"
)

func TestEmitterPublishesOnlyAsMaster(t *testing.T) {
	channel := newFakeChannel()
	state := NewRoomState()
	state.SetUsers(masterRoster())

	position := func() (float64, error) { return 73.5, nil }
	e := NewEmitter(channel, state, "master", position, testLogger())
	ctx := context.Background()

	e.tick(ctx)
	e.tick(ctx)

	sent := channel.sentEvents(domain.EventHeartbeat)
	require.Len(t, sent, 2)

	hb, ok := sent[0].payload.(domain.HeartbeatPayload)
	require.True(t, ok)
	assert.Equal(t, "master", hb.UserID)
	assert.Equal(t, 73.5, hb.State.Position, "the snapshot carries the live player position")
	assert.NotZero(t, hb.Timestamp)
	assert.NotZero(t, hb.State.UpdatedAt)
}

func TestEmitterGoesSilentAfterLosingRole(t *testing.T) {
	channel := newFakeChannel()
	state := NewRoomState()
	state.SetUsers(masterRoster())

	e := NewEmitter(channel, state, "master", func() (float64, error) { return 0, nil }, testLogger())
	ctx := context.Background()

	e.tick(ctx)
	require.Len(t, channel.sentEvents(domain.EventHeartbeat), 1)

	// A new owner shows up; the old master must stop on the next tick.
	state.SetUsers([]domain.User{
		{ID: "newowner", Role: domain.RoleOwner, JoinedAt: 5},
		{ID: "master", Role: domain.RoleModerator, JoinedAt: 10},
	})

	e.tick(ctx)
	assert.Len(t, channel.sentEvents(domain.EventHeartbeat), 1, "no heartbeat after losing the master role")
}

func TestEmitterNeverRunsOnFollower(t *testing.T) {
	channel := newFakeChannel()
	state := NewRoomState()
	state.SetUsers(masterRoster())

	e := NewEmitter(channel, state, "follower", func() (float64, error) { return 0, nil }, testLogger())

	e.tick(context.Background())

	assert.Empty(t, channel.sentEvents(domain.EventHeartbeat))
}

func TestEmitterSendFailureIsFireAndForget(t *testing.T) {
	channel := newFakeChannel()
	channel.sendErr = errors.New("transport down")
	state := NewRoomState()
	state.SetUsers(masterRoster())

	e := NewEmitter(channel, state, "master", func() (float64, error) { return 0, nil }, testLogger())

	// Must not panic or retry; the next tick simply tries again.
	e.tick(context.Background())

	channel.mu.Lock()
	channel.sendErr = nil
	channel.mu.Unlock()

	e.tick(context.Background())
	assert.Len(t, channel.sentEvents(domain.EventHeartbeat), 1)
}

func TestEmitterStoppable(t *testing.T) {
	channel := newFakeChannel()
	state := NewRoomState()
	state.SetUsers(masterRoster())

	e := NewEmitter(channel, state, "master", func() (float64, error) { return 0, nil }, testLogger())
	e.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e.Start(ctx)
	assert.Eventually(t, func() bool {
		return len(channel.sentEvents(domain.EventHeartbeat)) > 0
	}, time.Second, time.Millisecond)

	e.Stop()
}

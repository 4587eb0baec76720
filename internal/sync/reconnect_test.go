package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelay(t *testing.T) {
	base := 1000 * time.Millisecond
	limit := 5000 * time.Millisecond

	assert.Equal(t, 1000*time.Millisecond, backoffDelay(1, base, limit))
	assert.Equal(t, 1500*time.Millisecond, backoffDelay(2, base, limit))
	assert.Equal(t, 2250*time.Millisecond, backoffDelay(3, base, limit))
	assert.Equal(t, 3375*time.Millisecond, backoffDelay(4, base, limit))
	assert.Equal(t, limit, backoffDelay(5, base, limit), "the fifth attempt hits the cap")
	assert.Equal(t, limit, backoffDelay(10, base, limit))
	assert.Equal(t, base, backoffDelay(0, base, limit), "bad attempt numbers are clamped")
}

func newFastReconnector(channel *fakeChannel, onReconnected func(ctx context.Context), onFailed func()) *Reconnector {
	m := NewReconnector(channel, onReconnected, onFailed, testLogger())
	m.baseDelay = time.Millisecond
	m.maxDelay = 2 * time.Millisecond
	m.resubDelay = 0
	return m
}

func TestReconnectionBound(t *testing.T) {
	channel := newFakeChannel()
	subscribeErr := errors.New("dial refused")
	for i := 0; i < 20; i++ {
		channel.subscribeErrs = append(channel.subscribeErrs, subscribeErr)
	}

	failed := make(chan struct{})
	m := newFastReconnector(channel, nil, func() { close(failed) })

	m.HandleStatus(context.Background(), StatusClosed, errors.New("connection lost"))

	select {
	case <-failed:
	case <-time.After(5 * time.Second):
		t.Fatal("terminal failure state never reached")
	}

	assert.True(t, m.Failed())
	assert.Equal(t, maxReconnectTries, channel.subscribeCount(), "exactly ten attempts, no eleventh")

	// Further drops must not revive it.
	m.HandleStatus(context.Background(), StatusError, errors.New("still down"))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, maxReconnectTries, channel.subscribeCount())
}

func TestReconnectionResetsAndReannounces(t *testing.T) {
	channel := newFakeChannel()
	channel.subscribeErrs = []error{errors.New("down"), errors.New("still down")}

	reconnected := make(chan struct{})
	m := newFastReconnector(channel, func(context.Context) { close(reconnected) }, nil)

	m.HandleStatus(context.Background(), StatusError, errors.New("connection lost"))

	select {
	case <-reconnected:
	case <-time.After(5 * time.Second):
		t.Fatal("reconnection never succeeded")
	}

	assert.False(t, m.Failed())
	assert.Equal(t, 0, m.Attempts(), "a successful reconnect resets the attempt counter")
	assert.Equal(t, 3, channel.subscribeCount(), "two failures then a success")
	require.GreaterOrEqual(t, channel.unsubscribes, 1, "each retry unsubscribes first")
}

func TestShutdownShortCircuitsRetries(t *testing.T) {
	channel := newFakeChannel()

	m := newFastReconnector(channel, nil, nil)
	m.Shutdown()

	m.HandleStatus(context.Background(), StatusClosed, errors.New("connection lost"))
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 0, channel.subscribeCount(), "no reconnection after a deliberate leave")
	assert.False(t, m.Failed())
}

func TestSubscribedStatusIsNotADrop(t *testing.T) {
	channel := newFakeChannel()

	m := newFastReconnector(channel, nil, nil)
	m.HandleStatus(context.Background(), StatusSubscribed, nil)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 0, channel.subscribeCount())
	assert.Equal(t, 0, m.Attempts())
}

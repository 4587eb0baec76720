package sync

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"
)

const (
	backoffBase       = 1000 * time.Millisecond
	backoffMultiplier = 1.5
	backoffCap        = 5000 * time.Millisecond
	maxReconnectTries = 10
	resubscribeDelay  = 500 * time.Millisecond
)

// backoffDelay returns the wait before the given attempt (1-based):
// exponential from the base, capped.
func backoffDelay(attempt int, base, limit time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := time.Duration(float64(base) * math.Pow(backoffMultiplier, float64(attempt-1)))
	if d > limit {
		return limit
	}
	return d
}

// Reconnector resubscribes the broadcast channel after unexpected
// drops. It fail-stops after the attempt budget runs out rather than
// retrying forever, and goes inert once the client is deliberately
// leaving.
type Reconnector struct {
	channel       Channel
	logger        *slog.Logger
	onReconnected func(ctx context.Context)
	onFailed      func()

	mu         sync.Mutex
	attempts   int
	failed     bool
	unmounting bool
	timer      *time.Timer

	baseDelay   time.Duration
	maxDelay    time.Duration
	resubDelay  time.Duration
	maxAttempts int
}

func NewReconnector(channel Channel, onReconnected func(ctx context.Context), onFailed func(), logger *slog.Logger) *Reconnector {
	return &Reconnector{
		channel:       channel,
		logger:        logger,
		onReconnected: onReconnected,
		onFailed:      onFailed,
		baseDelay:     backoffBase,
		maxDelay:      backoffCap,
		resubDelay:    resubscribeDelay,
		maxAttempts:   maxReconnectTries,
	}
}

// HandleStatus is wired as the channel's status callback.
func (m *Reconnector) HandleStatus(ctx context.Context, status Status, err error) {
	if status != StatusClosed && status != StatusError {
		return
	}
	if err != nil {
		m.logger.Debug("channel dropped", "status", string(status), "error", err)
	}

	m.scheduleRetry(ctx)
}

func (m *Reconnector) scheduleRetry(ctx context.Context) {
	m.mu.Lock()
	if m.unmounting || m.failed {
		m.mu.Unlock()
		return
	}

	m.attempts++
	if m.attempts > m.maxAttempts {
		m.failed = true
		onFailed := m.onFailed
		m.mu.Unlock()

		m.logger.Error("reconnection attempts exhausted", "attempts", m.maxAttempts)
		if onFailed != nil {
			onFailed()
		}
		return
	}

	attempt := m.attempts
	delay := backoffDelay(attempt, m.baseDelay, m.maxDelay)
	m.timer = time.AfterFunc(delay, func() { m.retry(ctx, attempt) })
	m.mu.Unlock()

	m.logger.Info("reconnect scheduled", "attempt", attempt, "delay", delay.String())
}

func (m *Reconnector) retry(ctx context.Context, attempt int) {
	if m.isUnmounting() {
		return
	}

	// Drop the old subscription first and give the transport a moment,
	// so the new subscription cannot race a half-dead one.
	if err := m.channel.Unsubscribe(); err != nil {
		m.logger.Debug("unsubscribe before retry failed", "error", err)
	}
	time.Sleep(m.resubDelay)

	if m.isUnmounting() {
		return
	}

	err := m.channel.Subscribe(ctx, func(status Status, err error) {
		m.HandleStatus(ctx, status, err)
	})
	if err != nil {
		m.logger.Warn("reconnect attempt failed", "attempt", attempt, "error", err)
		m.scheduleRetry(ctx)
		return
	}

	m.mu.Lock()
	m.attempts = 0
	onReconnected := m.onReconnected
	m.mu.Unlock()

	m.logger.Info("reconnected", "attempt", attempt)
	// Channel membership does not survive resubscription; presence must
	// be re-announced.
	if onReconnected != nil {
		onReconnected(ctx)
	}
}

func (m *Reconnector) isUnmounting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unmounting
}

// Failed reports whether the terminal no-more-retries state was hit.
func (m *Reconnector) Failed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failed
}

func (m *Reconnector) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Shutdown marks a deliberate leave: pending retries are cancelled and
// any already-fired callback short-circuits.
func (m *Reconnector) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unmounting = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

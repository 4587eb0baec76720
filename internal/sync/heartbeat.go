package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/auxroom/server/internal/domain"
)

const heartbeatInterval = 5000 * time.Millisecond

// Emitter periodically publishes the master's playback snapshot. It is
// started on every client; each tick re-checks the election result so a
// client that loses the master role goes silent immediately.
type Emitter struct {
	channel  Channel
	state    *RoomState
	userID   string
	position func() (float64, error)
	logger   *slog.Logger

	interval time.Duration
	now      func() time.Time
	started  bool
	stop     chan struct{}
	done     chan struct{}
}

func NewEmitter(channel Channel, state *RoomState, userID string, position func() (float64, error), logger *slog.Logger) *Emitter {
	return &Emitter{
		channel:  channel,
		state:    state,
		userID:   userID,
		position: position,
		logger:   logger,
		interval: heartbeatInterval,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (e *Emitter) Start(ctx context.Context) {
	e.started = true
	go func() {
		defer close(e.done)

		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-e.stop:
				return
			case <-ticker.C:
				e.tick(ctx)
			}
		}
	}()
}

func (e *Emitter) tick(ctx context.Context) {
	if !IsMaster(e.state.Users(), e.userID) {
		return
	}

	snapshot := e.state.Player()
	if pos, err := e.position(); err == nil {
		snapshot.Position = pos
		snapshot.UpdatedAt = e.now().UnixMilli()
	}

	// Fire-and-forget: a lost heartbeat is recovered by the next tick.
	err := e.channel.Send(ctx, domain.EventHeartbeat, domain.HeartbeatPayload{
		UserID:    e.userID,
		Timestamp: e.now().UnixMilli(),
		State:     snapshot,
	})
	if err != nil {
		e.logger.DebugContext(ctx, "heartbeat publish failed", "error", err)
	}
}

func (e *Emitter) Stop() {
	select {
	case <-e.stop:
	default:
		close(e.stop)
	}
	if e.started {
		<-e.done
	}
}

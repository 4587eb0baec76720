package sync

import (
	"context"
	"encoding/json"

	"github.com/auxroom/server/internal/domain"
)

// Status reports broadcast channel lifecycle transitions to subscribers.
type Status string

const (
	StatusSubscribed Status = "subscribed"
	StatusClosed     Status = "closed"
	StatusError      Status = "error"
)

// Channel is the room's broadcast bus. Delivery is best-effort and
// unordered across senders; handlers registered with On are invoked
// from the channel's read loop.
type Channel interface {
	Send(ctx context.Context, event string, payload any) error
	On(event string, handler func(payload json.RawMessage))
	Subscribe(ctx context.Context, onStatus func(status Status, err error)) error
	Unsubscribe() error
}

// Store is the durable owner of room state. Every call is a network
// round-trip; callers must not block playback on it.
type Store interface {
	FetchSnapshot(ctx context.Context) (domain.RoomSnapshot, error)
	PersistPlayerState(ctx context.Context, patch domain.PlayerStatePatch) (domain.PlayerState, error)
	RemoveTrack(ctx context.Context, trackID string) ([]domain.Track, error)
	LeaveRoster(ctx context.Context) error
}

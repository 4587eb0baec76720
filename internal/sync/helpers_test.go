package sync

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/player"
)

// fakeAdapter records every command the reconciler issues.
type fakeAdapter struct {
	mu       sync.Mutex
	loaded   []domain.Track
	position float64
	rates    []float64
	seeks    []float64
	plays    int
	pauses   int
	volume   int
	cb       player.Callbacks
}

func (f *fakeAdapter) Load(track domain.Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = append(f.loaded, track)
	f.position = 0
	return nil
}

func (f *fakeAdapter) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	return nil
}

func (f *fakeAdapter) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
	return nil
}

func (f *fakeAdapter) SeekTo(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, seconds)
	f.position = seconds
	return nil
}

func (f *fakeAdapter) CurrentTime() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position, nil
}

func (f *fakeAdapter) SetPlaybackRate(rate float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rates = append(f.rates, rate)
	return nil
}

func (f *fakeAdapter) SetVolume(volume int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = volume
	return nil
}

func (f *fakeAdapter) SetCallbacks(cb player.Callbacks) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cb = cb
}

func (f *fakeAdapter) Close() error { return nil }

func (f *fakeAdapter) setPosition(pos float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = pos
}

func (f *fakeAdapter) seekCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seeks)
}

func (f *fakeAdapter) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays
}

func (f *fakeAdapter) pauseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pauses
}

func (f *fakeAdapter) rateLog() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]float64, len(f.rates))
	copy(out, f.rates)
	return out
}

type sentEvent struct {
	event   string
	payload any
}

// fakeChannel is an in-memory broadcast bus. Subscribe errors can be
// queued to exercise reconnection.
type fakeChannel struct {
	mu            sync.Mutex
	sent          []sentEvent
	handlers      map[string][]func(json.RawMessage)
	subscribeErrs []error
	subscribes    int
	unsubscribes  int
	sendErr       error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{handlers: make(map[string][]func(json.RawMessage))}
}

func (f *fakeChannel) Send(_ context.Context, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentEvent{event: event, payload: payload})
	return nil
}

func (f *fakeChannel) On(event string, handler func(payload json.RawMessage)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[event] = append(f.handlers[event], handler)
}

func (f *fakeChannel) Subscribe(_ context.Context, _ func(status Status, err error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	if len(f.subscribeErrs) > 0 {
		err := f.subscribeErrs[0]
		f.subscribeErrs = f.subscribeErrs[1:]
		return err
	}
	return nil
}

func (f *fakeChannel) Unsubscribe() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribes++
	return nil
}

// emit delivers an event to registered handlers, as the read loop
// would.
func (f *fakeChannel) emit(event string, payload any) {
	b, _ := json.Marshal(payload)

	f.mu.Lock()
	handlers := append([]func(json.RawMessage){}, f.handlers[event]...)
	f.mu.Unlock()

	for _, h := range handlers {
		h(b)
	}
}

func (f *fakeChannel) sentEvents(event string) []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []sentEvent
	for _, s := range f.sent {
		if s.event == event {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeChannel) subscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribes
}

// fakeStore satisfies Store without a network.
type fakeStore struct {
	mu         sync.Mutex
	snapshot   domain.RoomSnapshot
	persistErr error
	persisted  []domain.PlayerStatePatch
	removed    []string
	left       bool
}

func (f *fakeStore) FetchSnapshot(context.Context) (domain.RoomSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot, nil
}

func (f *fakeStore) PersistPlayerState(_ context.Context, patch domain.PlayerStatePatch) (domain.PlayerState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.persistErr != nil {
		return domain.PlayerState{}, f.persistErr
	}
	f.persisted = append(f.persisted, patch)
	return f.snapshot.PlayerState.Apply(&patch), nil
}

func (f *fakeStore) RemoveTrack(_ context.Context, trackID string) ([]domain.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, trackID)
	return nil, nil
}

func (f *fakeStore) LeaveRoster(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left = true
	return nil
}

func (f *fakeStore) persistCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.persisted)
}

func (f *fakeStore) removedTracks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.removed))
	copy(out, f.removed)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

package inmemory

import (
	"log/slog"
	"sync"

	"github.com/auxroom/server/internal/repository/connection"
	"github.com/auxroom/server/pkg/wsrelay"
)

type member struct {
	roomID string
	userID string
}

type repo struct {
	byUser   map[string]*wsrelay.Sender
	bySender map[*wsrelay.Sender]member
	byRoom   map[string]map[*wsrelay.Sender]struct{}
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		byUser:   make(map[string]*wsrelay.Sender),
		bySender: make(map[*wsrelay.Sender]member),
		byRoom:   make(map[string]map[*wsrelay.Sender]struct{}),
	}
}

func (r *repo) Add(sender *wsrelay.Sender, roomID, userID string) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "roomID", roomID, "userID", userID)
	if _, ok := r.byUser[userID]; ok {
		slog.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.byUser[userID] = sender
	r.bySender[sender] = member{roomID: roomID, userID: userID}
	if r.byRoom[roomID] == nil {
		r.byRoom[roomID] = make(map[*wsrelay.Sender]struct{})
	}
	r.byRoom[roomID][sender] = struct{}{}

	return nil
}

func (r *repo) RemoveBySender(sender *wsrelay.Sender) (string, string, error) {
	funcName := "connection.inmemory.RemoveBySender"
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.bySender[sender]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return "", "", connection.ErrNotFound
	}

	delete(r.bySender, sender)
	delete(r.byUser, m.userID)
	if conns := r.byRoom[m.roomID]; conns != nil {
		delete(conns, sender)
		if len(conns) == 0 {
			delete(r.byRoom, m.roomID)
		}
	}

	slog.Debug(funcName, "roomID", m.roomID, "userID", m.userID)
	return m.roomID, m.userID, nil
}

func (r *repo) GetRoomSenders(roomID string) []*wsrelay.Sender {
	r.mu.RLock()
	defer r.mu.RUnlock()

	senders := make([]*wsrelay.Sender, 0, len(r.byRoom[roomID]))
	for s := range r.byRoom[roomID] {
		senders = append(senders, s)
	}

	return senders
}

func (r *repo) GetUserID(sender *wsrelay.Sender) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.bySender[sender]
	if !ok {
		return "", connection.ErrNotFound
	}

	return m.userID, nil
}

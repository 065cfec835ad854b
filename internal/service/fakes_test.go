package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"go-calendar/internal/event"
	"go-calendar/internal/model"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]model.User
	err   error
	calls int
}

func newMemUsers(users ...model.User) *memUsers {
	m := &memUsers{byID: map[string]model.User{}}
	for _, u := range users {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memUsers) FindByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.User{}, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.User{}, m.err
	}
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (m *memUsers) Create(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return model.ErrUserAlreadyExists
		}
	}
	m.byID[u.ID] = u
	return nil
}

// memSessions mirrors the users.refresh_token column.
type memSessions struct {
	mu       sync.Mutex
	users    *memUsers
	tokens   map[string]string
	setErr   error
	findErr  error
	clearErr error
	sets     int
}

func newMemSessions(users *memUsers) *memSessions {
	return &memSessions{users: users, tokens: map[string]string{}}
}

func (m *memSessions) SetRefreshToken(ctx context.Context, userID string, token string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if _, err := m.users.FindByID(ctx, userID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.tokens[userID] = token
	return nil
}

func (m *memSessions) FindUserByValidRefreshToken(ctx context.Context, userID string, token string) (model.Identity, error) {
	if m.findErr != nil {
		return model.Identity{}, m.findErr
	}
	m.mu.Lock()
	stored, ok := m.tokens[userID]
	m.mu.Unlock()
	if !ok || stored != token {
		return model.Identity{}, model.ErrSessionNotFound
	}
	u, err := m.users.FindByID(ctx, userID)
	if err != nil {
		return model.Identity{}, model.ErrSessionNotFound
	}
	return model.Identity{UserID: u.ID, Email: u.Email}, nil
}

func (m *memSessions) ClearRefreshToken(_ context.Context, userID string) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, userID)
	return nil
}

func (m *memSessions) stored(userID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[userID]
	return token, ok
}

type memEvents struct {
	mu     sync.Mutex
	byID   map[string]model.Event
	owners *memUsers
}

func newMemEvents(owners *memUsers) *memEvents {
	return &memEvents{byID: map[string]model.Event{}, owners: owners}
}

func (m *memEvents) List(ctx context.Context) ([]model.Event, error) {
	m.mu.Lock()
	out := make([]model.Event, 0, len(m.byID))
	for _, e := range m.byID {
		out = append(out, e)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *memEvents) FindByID(ctx context.Context, id string) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok {
		return model.Event{}, model.ErrEventNotFound
	}
	return e, nil
}

func (m *memEvents) Create(ctx context.Context, e model.Event) error {
	if owner, err := m.owners.FindByID(ctx, e.UserID); err == nil {
		public := owner.Public()
		e.User = &public
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[e.ID] = e
	return nil
}

func (m *memEvents) Update(_ context.Context, e model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[e.ID]; !ok {
		return model.ErrEventNotFound
	}
	m.byID[e.ID] = e
	return nil
}

func (m *memEvents) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return model.ErrEventNotFound
	}
	delete(m.byID, id)
	return nil
}

type memAudit struct {
	mu      sync.Mutex
	entries []model.AuditEntry
	err     error
}

func (m *memAudit) Log(_ context.Context, entry model.AuditEntry) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memAudit) Query(_ context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.AuditEntry, 0)
	for _, e := range m.entries {
		if query.ActorID != "" && e.Actor.UserID != query.ActorID {
			continue
		}
		out = append(out, e)
	}
	return out, model.Meta{Page: 1, Limit: len(out), Total: len(out), TotalPages: 1}, nil
}

func (m *memAudit) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action+":"+e.Status)
	}
	return out
}

type recordingBus struct {
	mu     sync.Mutex
	events []event.Event
}

func (b *recordingBus) Publish(e event.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) Subscribe() (<-chan event.Event, func()) {
	ch := make(chan event.Event)
	return ch, func() {}
}

var errBackend = errors.New("backend unavailable")

package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"signal_tracker/internal/models"
)

// memStore — внутрипроцессный Store для тестов движка.
type memStore struct {
	mu   sync.Mutex
	data map[string]*models.Signal
	seq  int64
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]*models.Signal)}
}

func (m *memStore) Create(_ context.Context, sig *models.Signal) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sig.CreatedAt.IsZero() {
		sig.CreatedAt = time.Now()
	}
	for _, existing := range m.data {
		if existing.DedupeKey() == sig.DedupeKey() &&
			sig.CreatedAt.Sub(existing.CreatedAt) < 24*time.Hour {
			return false, nil
		}
	}
	m.seq++
	sig.ID = strings.ReplaceAll(sig.Pair, "/", "") + "-" + strconv.FormatInt(m.seq, 10)
	m.data[sig.ID] = sig
	return true, nil
}

func (m *memStore) Get(_ context.Context, id string) (*models.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sig, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sig, nil
}

func (m *memStore) Mutate(_ context.Context, id string, fn func(sig *models.Signal) error) (*models.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sig, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(sig); err != nil {
		return nil, err
	}
	return sig, nil
}

func (m *memStore) list(filter func(*models.Signal) bool) []*models.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Signal
	for _, sig := range m.data {
		if filter(sig) {
			out = append(out, sig)
		}
	}
	return out
}

func (m *memStore) ListActive(context.Context) ([]*models.Signal, error) {
	return m.list(func(s *models.Signal) bool { return s.Status == models.StatusActive }), nil
}

func (m *memStore) ListCompleted(context.Context) ([]*models.Signal, error) {
	return m.list(func(s *models.Signal) bool { return s.IsTerminal() }), nil
}

func (m *memStore) ListByPair(_ context.Context, pair string) ([]*models.Signal, error) {
	return m.list(func(s *models.Signal) bool { return s.Pair == pair }), nil
}

func (m *memStore) ListFinishedSince(_ context.Context, since time.Time) ([]*models.Signal, error) {
	return m.list(func(s *models.Signal) bool {
		at := s.TerminalAt()
		return at != nil && !at.Before(since)
	}), nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return ErrNotFound
	}
	delete(m.data, id)
	return nil
}

// fakeOracle отдаёт цены из мапы; отсутствие пары — ошибка оракула.
type fakeOracle struct {
	mu     sync.Mutex
	prices map[string]float64
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{prices: make(map[string]float64)}
}

func (f *fakeOracle) set(pair string, px float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[pair] = px
}

func (f *fakeOracle) FetchPrice(_ context.Context, pair string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	px, ok := f.prices[pair]
	if !ok {
		return 0, context.DeadlineExceeded
	}
	return px, nil
}

// captureDeliverer копит отправленные тексты.
type captureDeliverer struct {
	mu    sync.Mutex
	sent  []string
	chats []int64
}

func (c *captureDeliverer) Deliver(_ context.Context, chatID int64, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, text)
	c.chats = append(c.chats, chatID)
	return nil
}

func (c *captureDeliverer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

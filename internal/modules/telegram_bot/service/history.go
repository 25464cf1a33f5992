package service

import (
	"context"
	"sync"

	"signal_tracker/internal/models"
)

// Bot API не умеет читать историю чата, поэтому держим ограниченное
// кольцо последних увиденных сообщений на каждый чат-источник —
// из него и работает бэкафилл.
type historyRing struct {
	mu    sync.RWMutex
	depth int
	data  map[int64][]models.HistoryMessage
}

func newHistoryRing(depth int) *historyRing {
	if depth <= 0 {
		depth = 500
	}
	return &historyRing{
		depth: depth,
		data:  make(map[int64][]models.HistoryMessage),
	}
}

func (h *historyRing) record(chatID int64, messageID int, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := append(h.data[chatID], models.HistoryMessage{MessageID: messageID, Text: text})
	if len(msgs) > h.depth {
		msgs = msgs[len(msgs)-h.depth:]
	}
	h.data[chatID] = msgs
}

// RecentMessages implement trackersvc.HistoryFetcher.
func (t *Telegram) RecentMessages(_ context.Context, chatID int64, limit int) ([]models.HistoryMessage, error) {
	t.history.mu.RLock()
	defer t.history.mu.RUnlock()

	msgs := t.history.data[chatID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]models.HistoryMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"signal_tracker/internal/models"
	"signal_tracker/internal/modules/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Channels = []config.ChannelRoute{{Source: 100, Destination: 200}}
	cfg.BackfillLimit = 50
	return cfg
}

func newTestTracker(store *memStore, delivered *captureDeliverer) *Tracker {
	return NewTracker(testConfig(), store, NewParser(), NewNotifier(delivered), NewReporter(store))
}

func TestHandleMessageCreatesAndAnnounces(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	delivered := &captureDeliverer{}
	tr := newTestTracker(store, delivered)

	created, err := tr.HandleMessage(ctx, models.Incoming{ChatID: 100, MessageID: 1, Text: strictSignal})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !created {
		t.Fatal("signal not created")
	}

	active, _ := store.ListActive(ctx)
	if len(active) != 1 {
		t.Fatalf("active = %d, want 1", len(active))
	}
	if active[0].DestChatID != 200 {
		t.Fatalf("dest = %d, want 200", active[0].DestChatID)
	}
	if delivered.count() != 1 || delivered.chats[0] != 200 {
		t.Fatalf("announce not delivered to destination: %+v", delivered.chats)
	}
}

func TestHandleMessageDedupe(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	tr := newTestTracker(store, &captureDeliverer{})

	in := models.Incoming{ChatID: 100, MessageID: 42, Text: strictSignal}
	if created, _ := tr.HandleMessage(ctx, in); !created {
		t.Fatal("first create failed")
	}
	// повтор того же алерта — no-op, не ошибка
	created, err := tr.HandleMessage(ctx, in)
	if err != nil {
		t.Fatalf("duplicate returned error: %v", err)
	}
	if created {
		t.Fatal("duplicate created a second record")
	}

	active, _ := store.ListActive(ctx)
	if len(active) != 1 {
		t.Fatalf("active = %d, want exactly 1", len(active))
	}
}

func TestHandleMessageUnknownChat(t *testing.T) {
	store := newMemStore()
	tr := newTestTracker(store, &captureDeliverer{})

	created, err := tr.HandleMessage(context.Background(), models.Incoming{ChatID: 999, MessageID: 1, Text: strictSignal})
	if err != nil || created {
		t.Fatalf("untracked chat: created=%v err=%v", created, err)
	}
}

func TestHandleMessageParseMissIsSilent(t *testing.T) {
	store := newMemStore()
	delivered := &captureDeliverer{}
	tr := newTestTracker(store, delivered)

	created, err := tr.HandleMessage(context.Background(), models.Incoming{ChatID: 100, MessageID: 1, Text: "just chatting"})
	if err != nil || created {
		t.Fatalf("parse miss: created=%v err=%v", created, err)
	}
	if delivered.count() != 0 {
		t.Fatal("notification sent for non-signal")
	}
}

func TestCompleteSignalManual(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	delivered := &captureDeliverer{}
	tr := newTestTracker(store, delivered)

	_, _ = tr.HandleMessage(ctx, models.Incoming{ChatID: 100, MessageID: 1, Text: strictSignal})
	active, _ := store.ListActive(ctx)
	id := active[0].ID

	sig, err := tr.CompleteSignal(ctx, id)
	if err != nil {
		t.Fatalf("CompleteSignal: %v", err)
	}
	if sig.Status != models.StatusCompleted || !sig.AllTargetsHit() {
		t.Fatalf("manual complete: status=%s hits=%d", sig.Status, sig.HitCount())
	}

	// повторное ручное закрытие терминального сигнала — ошибка
	if _, err := tr.CompleteSignal(ctx, id); err == nil {
		t.Fatal("expected error on double complete")
	}
	if _, err := tr.StopSignal(ctx, id); err == nil {
		t.Fatal("expected error stopping completed signal")
	}
}

func TestStopAndDeleteSignal(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	tr := newTestTracker(store, &captureDeliverer{})

	_, _ = tr.HandleMessage(ctx, models.Incoming{ChatID: 100, MessageID: 1, Text: strictSignal})
	active, _ := store.ListActive(ctx)
	id := active[0].ID

	sig, err := tr.StopSignal(ctx, id)
	if err != nil || sig.Status != models.StatusStopped {
		t.Fatalf("StopSignal: %v %+v", err, sig)
	}

	if err := tr.DeleteSignal(ctx, id); err != nil {
		t.Fatalf("DeleteSignal: %v", err)
	}
	if _, err := store.Get(ctx, id); err != ErrNotFound {
		t.Fatalf("signal still present after delete: %v", err)
	}
}

func TestSignalIDShape(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	tr := newTestTracker(store, &captureDeliverer{})

	_, _ = tr.HandleMessage(ctx, models.Incoming{ChatID: 100, MessageID: 1, Text: strictSignal})
	active, _ := store.ListActive(ctx)
	if !strings.HasPrefix(active[0].ID, "BTCUSDT-") {
		t.Fatalf("id = %q, want BTCUSDT- prefix", active[0].ID)
	}
}

func TestHandleMessageConcurrentDedupe(t *testing.T) {
	// бэкафилл и live-поток могут принести одно сообщение одновременно:
	// вставка обязана быть атомарной, победитель ровно один
	ctx := context.Background()
	store := newMemStore()
	delivered := &captureDeliverer{}
	tr := newTestTracker(store, delivered)

	in := models.Incoming{ChatID: 100, MessageID: 7, Text: strictSignal}

	const workers = 8
	createdCh := make(chan bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := tr.HandleMessage(ctx, in)
			if err != nil {
				t.Errorf("HandleMessage: %v", err)
			}
			createdCh <- created
		}()
	}
	wg.Wait()
	close(createdCh)

	var total int
	for created := range createdCh {
		if created {
			total++
		}
	}
	if total != 1 {
		t.Fatalf("created = %d, want exactly 1", total)
	}
	active, _ := store.ListActive(ctx)
	if len(active) != 1 {
		t.Fatalf("active = %d, want 1", len(active))
	}
	if delivered.count() != 1 {
		t.Fatalf("announces = %d, want 1", delivered.count())
	}
}

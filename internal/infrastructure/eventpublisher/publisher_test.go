package eventpublisher

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

var publishedAt = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func TestRelayDrain(t *testing.T) {
	tests := []struct {
		name       string
		events     int
		batchSize  int
		failIDs    []string
		wantRelay  int
		wantOK     int
		wantFailed int
		wantLeft   []string
	}{
		{name: "single event", events: 1, batchSize: 10, wantRelay: 1, wantOK: 1},
		{name: "backlog spans batches", events: 7, batchSize: 3, wantRelay: 7, wantOK: 7},
		{
			name: "failed event stays pending", events: 2, batchSize: 10,
			failIDs: []string{"evt-0"}, wantRelay: 1, wantOK: 1, wantFailed: 1, wantLeft: []string{"evt-0"},
		},
		{
			name: "batch with no progress stops the drain", events: 2, batchSize: 2,
			failIDs: []string{"evt-0", "evt-1"}, wantFailed: 2, wantLeft: []string{"evt-0", "evt-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubOutbox(tt.events)
			pub := &stubPublisher{errorsByID: map[string]error{}}
			for _, id := range tt.failIDs {
				pub.errorsByID[id] = errors.New("broker down")
			}
			obs := &stubObserver{}
			relay := newTestRelay(repo, pub, func(c *Config) {
				c.BatchSize = tt.batchSize
				c.Observer = obs
			})

			n, err := relay.drain(context.Background())
			if err != nil {
				t.Fatalf("drain: %v", err)
			}
			if n != tt.wantRelay {
				t.Fatalf("relayed %d, want %d", n, tt.wantRelay)
			}
			if obs.ok != tt.wantOK || obs.failed != tt.wantFailed {
				t.Fatalf("observer ok=%d failed=%d, want %d/%d", obs.ok, obs.failed, tt.wantOK, tt.wantFailed)
			}
			if left := repo.pendingIDs(); fmt.Sprint(left) != fmt.Sprint(tt.wantLeft) {
				t.Fatalf("pending = %v, want %v", left, tt.wantLeft)
			}
		})
	}
}

func TestRelayMarksWithClock(t *testing.T) {
	repo := newStubOutbox(1)
	relay := newTestRelay(repo, &stubPublisher{})

	if _, err := relay.drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if !repo.markedAt.Equal(publishedAt) {
		t.Fatalf("marked at %v, want %v", repo.markedAt, publishedAt)
	}
}

func TestRelayDrainFetchError(t *testing.T) {
	repo := newStubOutbox(0)
	repo.fetchErr = errors.New("db down")

	if _, err := newTestRelay(repo, &stubPublisher{}).drain(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestRelayPurge(t *testing.T) {
	repo := newStubOutbox(0)
	relay := newTestRelay(repo, &stubPublisher{})

	if err := relay.purge(context.Background()); err != nil || repo.purgedBefore != nil {
		t.Fatalf("purge without retention should be a no-op, got %v %v", err, repo.purgedBefore)
	}

	relay = newTestRelay(repo, &stubPublisher{}, func(c *Config) { c.Retention = 24 * time.Hour })
	if err := relay.purge(context.Background()); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if want := publishedAt.Add(-24 * time.Hour); repo.purgedBefore == nil || !repo.purgedBefore.Equal(want) {
		t.Fatalf("purged before %v, want %v", repo.purgedBefore, want)
	}
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	repo := newStubOutbox(3)
	pub := &stubPublisher{}
	relay := newTestRelay(repo, pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("relay did not stop after cancel")
	}
	if len(repo.pendingIDs()) != 0 {
		t.Fatalf("events left pending: %v", repo.pendingIDs())
	}
}

func TestFanOutJoinsErrors(t *testing.T) {
	failing := &stubPublisher{errorsByID: map[string]error{"evt-1": errors.New("redis down")}}
	ok := &stubPublisher{}

	err := FanOut{failing, ok}.Publish(context.Background(), &domain.OutboxEvent{ID: "evt-1"})
	if err == nil {
		t.Fatal("expected joined error")
	}
	if len(ok.published) != 1 {
		t.Fatal("healthy publisher should still receive the event")
	}
}

func newTestRelay(repo *stubOutboxRepo, pub *stubPublisher, opts ...func(*Config)) *Relay {
	cfg := Config{
		OutboxRepo: repo,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return publishedAt },
		BatchSize:  10,
		Interval:   5 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewRelay(cfg)
}

// stubOutboxRepo hides marked events from later fetches. Run calls it from
// its own goroutine only, so it carries no lock.
type stubOutboxRepo struct {
	events       []*domain.OutboxEvent
	marked       map[string]bool
	fetchErr     error
	markedAt     time.Time
	purgedBefore *time.Time
}

var _ usecase.OutboxRepository = (*stubOutboxRepo)(nil)

func newStubOutbox(n int) *stubOutboxRepo {
	repo := &stubOutboxRepo{marked: map[string]bool{}}
	for i := 0; i < n; i++ {
		repo.events = append(repo.events, &domain.OutboxEvent{
			ID:        fmt.Sprintf("evt-%d", i),
			EventType: domain.EventTypeEntryRecorded,
		})
	}
	return repo
}

func (s *stubOutboxRepo) pendingIDs() []string {
	var ids []string
	for _, e := range s.events {
		if !s.marked[e.ID] {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func (s *stubOutboxRepo) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return nil
}

func (s *stubOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []*domain.OutboxEvent
	for _, e := range s.events {
		if len(out) == limit {
			break
		}
		if !s.marked[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubOutboxRepo) MarkPublished(ctx context.Context, id string, at time.Time) error {
	s.marked[id] = true
	s.markedAt = at
	return nil
}

func (s *stubOutboxRepo) DeletePublished(ctx context.Context, before time.Time) error {
	s.purgedBefore = &before
	return nil
}

type stubPublisher struct {
	published  []*domain.OutboxEvent
	errorsByID map[string]error
}

func (s *stubPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	if err := s.errorsByID[event.ID]; err != nil {
		return err
	}
	s.published = append(s.published, event)
	return nil
}

type stubObserver struct {
	ok, failed int
}

func (s *stubObserver) EventPublished(_ string, err error) {
	if err != nil {
		s.failed++
		return
	}
	s.ok++
}

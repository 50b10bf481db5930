package kafka_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraKafka "github.com/stockpilot/go-backend/internal/infrastructure/kafka"
	"github.com/stockpilot/go-backend/internal/usecase"
	"github.com/stockpilot/go-backend/pkg/logger"
)

type mockOutboxRepo struct {
	mu        sync.Mutex
	batches   [][]*usecase.OutboxEvent
	processed []int64
}

func (m *mockOutboxRepo) Create(_ context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	return event, nil
}

func (m *mockOutboxRepo) GetAndMarkAsProcessing(_ context.Context, _ int) ([]*usecase.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.batches) == 0 {
		return nil, nil
	}
	batch := m.batches[0]
	m.batches = m.batches[1:]
	return batch, nil
}

func (m *mockOutboxRepo) MarkAsProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed = append(m.processed, id)
	return nil
}

type mockProducer struct {
	mu       sync.Mutex
	messages []*usecase.WriteRawMessageReq
}

func (m *mockProducer) WriteRawMessage(_ context.Context, req *usecase.WriteRawMessageReq) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, req)
	return nil
}

func (m *mockProducer) sent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// Заведомо невалидный DSN: LISTEN-горутина завершается сразу,
// тест остаётся детерминированным.
const badDSN = "not a valid dsn"

func newTestWorker(repo *mockOutboxRepo, producer *mockProducer) *infraKafka.OutboxWorker {
	return infraKafka.NewOutboxWorker(repo, logger.NewSlogLogger(), producer, badDSN)
}

func TestOutboxWorker_StopWithoutContextCancel(t *testing.T) {
	w := newTestWorker(&mockOutboxRepo{}, &mockProducer{})
	w.Start(context.Background())

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return until context cancellation")
	}
}

func TestOutboxWorker_StopIsIdempotent(t *testing.T) {
	w := newTestWorker(&mockOutboxRepo{}, &mockProducer{})
	w.Start(context.Background())

	w.Stop()
	require.NotPanics(t, func() {
		w.Stop()
	})
}

func TestOutboxWorker_StopAfterContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := newTestWorker(&mockOutboxRepo{}, &mockProducer{})
	w.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after context cancellation")
	}
}

func TestOutboxWorker_DrainsPendingOnStartup(t *testing.T) {
	repo := &mockOutboxRepo{
		batches: [][]*usecase.OutboxEvent{
			{
				{ID: 1, ProductID: 10, Payload: []byte(`{"eventType":"product.created"}`)},
				{ID: 2, ProductID: 11, Payload: []byte(`{"eventType":"product.updated"}`)},
			},
			{
				{ID: 3, ProductID: 10, Payload: []byte(`{"eventType":"product.deleted"}`)},
			},
		},
	}
	producer := &mockProducer{}

	w := newTestWorker(repo, producer)
	w.Start(context.Background())

	require.Eventually(t, func() bool {
		return producer.sent() == 3
	}, 2*time.Second, 10*time.Millisecond)

	w.Stop()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.ElementsMatch(t, []int64{1, 2, 3}, repo.processed)
}

package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YingY4ang/Transcriber/internal/api/handlers"
	"github.com/YingY4ang/Transcriber/internal/domain/entities"
	"github.com/YingY4ang/Transcriber/internal/domain/providers"
)

// MockEventBus for testing
type MockEventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan *entities.ConsultationEvent
	published   []*entities.ConsultationEvent
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		subscribers: make(map[string][]chan *entities.ConsultationEvent),
		published:   make([]*entities.ConsultationEvent, 0),
	}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.ConsultationEvent) error {
	m.mu.Lock()
	m.published = append(m.published, event)
	channels := append([]chan *entities.ConsultationEvent(nil), m.subscribers[channel]...)
	m.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ConsultationEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.ConsultationEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error {
	m.mu.Lock()
	subs := m.subscribers
	m.subscribers = make(map[string][]chan *entities.ConsultationEvent)
	m.mu.Unlock()
	for _, channels := range subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	return nil
}

// stubRegistry records registrations in memory
type stubRegistry struct {
	mu   sync.Mutex
	subs map[string]providers.Subscription
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{subs: make(map[string]providers.Subscription)}
}

func (s *stubRegistry) Register(ctx context.Context, sub *providers.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.ConnectionID] = *sub
	return nil
}

func (s *stubRegistry) Remove(ctx context.Context, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, connectionID)
	return nil
}

func (s *stubRegistry) ListByJobKey(ctx context.Context, jobKey string) ([]providers.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []providers.Subscription
	for _, sub := range s.subs {
		if sub.JobKey == jobKey {
			matched = append(matched, sub)
		}
	}
	return matched, nil
}

func (s *stubRegistry) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func TestSSEHandler_StreamResult(t *testing.T) {
	t.Run("should establish SSE connection and register subscription", func(t *testing.T) {
		eventBus := NewMockEventBus()
		registry := newStubRegistry()
		handler := handlers.NewSSEHandler(eventBus, registry)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/stream/results/uploads/NHI123_visit.webm", nil)
		req.SetPathValue("key", "uploads/NHI123_visit.webm")
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamResult(w, req)
			close(done)
		}()

		// Wait a bit for connection to establish
		time.Sleep(100 * time.Millisecond)

		assert.Equal(t, 1, registry.count())

		subs, err := registry.ListByJobKey(context.Background(), "uploads/NHI123_visit.webm")
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.NotEmpty(t, subs[0].ConnectionID)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		result := w.Result()
		assert.Equal(t, "text/event-stream", result.Header.Get("Content-Type"))
		assert.Equal(t, "no-cache", result.Header.Get("Cache-Control"))

		// Subscription removed on disconnect
		assert.Equal(t, 0, registry.count())
	})

	t.Run("should deliver completion event and close the stream", func(t *testing.T) {
		eventBus := NewMockEventBus()
		registry := newStubRegistry()
		handler := handlers.NewSSEHandler(eventBus, registry)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/stream/results/uploads/NHI123_visit.webm", nil)
		req.SetPathValue("key", "uploads/NHI123_visit.webm")
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamResult(w, req)
			close(done)
		}()

		time.Sleep(100 * time.Millisecond)

		// Publish completion the way the worker does: look up the
		// subscription, then target its connection channel
		subs, err := registry.ListByJobKey(context.Background(), "uploads/NHI123_visit.webm")
		require.NoError(t, err)
		require.Len(t, subs, 1)

		record := completedRecord("uploads/NHI123_visit.webm")
		event := entities.NewCompletionEvent(record)
		channel := providers.GetConnectionChannel(subs[0].ConnectionID)
		require.NoError(t, eventBus.Publish(context.Background(), channel, event))

		// Completion closes the stream without waiting for client disconnect
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after completion event")
		}

		body := w.Body.String()
		assert.True(t, strings.Contains(body, "event: connected"))
		assert.True(t, strings.Contains(body, "event: completed"))
		assert.True(t, strings.Contains(body, `"jobKey":"uploads/NHI123_visit.webm"`))
	})

	t.Run("should end the stream when the bus closes the channel", func(t *testing.T) {
		eventBus := NewMockEventBus()
		registry := newStubRegistry()
		handler := handlers.NewSSEHandler(eventBus, registry)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/stream/results/uploads/NHI123_visit.webm", nil)
		req.SetPathValue("key", "uploads/NHI123_visit.webm")
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamResult(w, req)
			close(done)
		}()

		time.Sleep(100 * time.Millisecond)

		// Bus failure closes every subscriber channel while the client is
		// still connected; the stream must end rather than spin
		require.NoError(t, eventBus.Close())

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after the event channel closed")
		}

		assert.Equal(t, 0, registry.count())
	})

	t.Run("should return error for missing result key", func(t *testing.T) {
		handler := handlers.NewSSEHandler(NewMockEventBus(), newStubRegistry())

		req := httptest.NewRequest("GET", "/stream/results/", nil)
		w := httptest.NewRecorder()

		handler.StreamResult(w, req)

		result := w.Result()
		assert.Equal(t, http.StatusBadRequest, result.StatusCode)
	})
}

func TestSSEHandler_ClientCount(t *testing.T) {
	eventBus := NewMockEventBus()
	registry := newStubRegistry()
	handler := handlers.NewSSEHandler(eventBus, registry)

	if count := handler.GetClientCount(); count != 0 {
		t.Errorf("Expected 0 clients, got %d", count)
	}

	req := httptest.NewRequest("GET", "/stream/results/uploads/NHI123_visit.webm", nil)
	req.SetPathValue("key", "uploads/NHI123_visit.webm")
	w := httptest.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	req = req.WithContext(ctx)

	go handler.StreamResult(w, req)
	time.Sleep(100 * time.Millisecond)

	if count := handler.GetClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}

	cancel()
	time.Sleep(100 * time.Millisecond)

	if count := handler.GetClientCount(); count != 0 {
		t.Errorf("Expected 0 clients after disconnect, got %d", count)
	}
}

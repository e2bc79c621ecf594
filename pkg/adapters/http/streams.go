package http

import (
	"log/slog"
	"sync"
)

// StreamManager fans state diffs out to the connected SSE clients.
type StreamManager struct {
	mu          sync.RWMutex
	logger      *slog.Logger
	subscribers map[chan<- string]struct{}
}

// NewStreamManager creates an empty manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		logger:      logger,
		subscribers: make(map[chan<- string]struct{}),
	}
}

// Subscribe registers a client. The returned func unregisters it and closes the channel.
func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Subscribers returns the number of connected clients.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast sends msg to every subscriber without blocking.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			// Slow client.
			sm.logger.Warn("SSE: client buffer full, dropping message")
		}
	}
}

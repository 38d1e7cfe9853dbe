package http

import (
	"log/slog"
	"sync"
)

// StreamManager fans messages out to the SSE subscribers of an instance.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // instance id -> channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager. Dropped messages are
// reported on logger; nil means slog.Default.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for instanceID. The returned
// function unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(instanceID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[instanceID]; !ok {
		sm.subscribers[instanceID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[instanceID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[instanceID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, instanceID)
				}
			}
		})
	}
}

// Broadcast sends msg to every subscriber of instanceID without blocking.
func (sm *StreamManager) Broadcast(instanceID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[instanceID] {
		select {
		case ch <- msg:
		default:
			// Slow client.
			sm.logger.Warn("SSE: Client buffer full, dropping message", "instance_id", instanceID)
		}
	}
}

// Subscribers returns the number of subscribers of instanceID.
func (sm *StreamManager) Subscribers(instanceID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[instanceID])
}

// Package events is a small in-process publish/subscribe bus for side
// effects that must not slow down the request that triggers them.
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const (
	UserRegistered      = "user.registered"
	ResultRecorded      = "result.recorded"
	AchievementUnlocked = "achievement.unlocked"
)

type UserRegisteredEvent struct {
	UserID   int64
	Email    string
	Username string
}

type ResultRecordedEvent struct {
	UserID   int64
	Language string
	Exp      int
	Source   string
}

type AchievementUnlockedEvent struct {
	UserID        int64
	AchievementID int64
	Key           string
	Title         string
	Tier          int
}

type Handler func(ctx context.Context, payload any)

// Bus runs every handler of an event on its own goroutine. Close waits
// for running handlers to return.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
	log      *zap.Logger
	closed   bool
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{handlers: make(map[string][]Handler), log: log}
}

func (b *Bus) Subscribe(event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], h)
}

// Publish hands payload to the subscribers of event. The request context
// is not passed on; handlers get a fresh context that outlives the request.
func (b *Bus) Publish(event string, payload any) {
	if b == nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.log.Warn("event dropped after close", zap.String("event", event))
		return
	}

	for _, h := range b.handlers[event] {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.log.Error("event handler panicked", zap.String("event", event), zap.Any("panic", r))
				}
			}()
			h(context.Background(), payload)
		}(h)
	}
}

// Wait blocks until every handler started so far has returned.
func (b *Bus) Wait() {
	b.wg.Wait()
}

// Close stops accepting events and waits for in-flight handlers.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}

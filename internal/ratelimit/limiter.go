// Package ratelimit enforces per-client fixed-window limits on expensive
// actions. Counters live in Redis; without Redis an in-process limiter
// takes over.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type ActionConfig struct {
	Limit  int64
	Window time.Duration
}

const (
	ActionLesson   = "lesson"
	ActionVerify   = "verify"
	ActionChat     = "chat"
	ActionExport   = "export"
	ActionLogin    = "login"
	ActionComplete = "complete"
)

var DefaultLimits = map[string]ActionConfig{
	ActionLesson:   {Limit: 10, Window: time.Minute},
	ActionVerify:   {Limit: 30, Window: time.Minute},
	ActionChat:     {Limit: 30, Window: time.Minute},
	ActionExport:   {Limit: 10, Window: time.Minute},
	ActionLogin:    {Limit: 10, Window: time.Minute},
	ActionComplete: {Limit: 20, Window: time.Minute},
}

var fallbackLimit = ActionConfig{Limit: 100, Window: time.Minute}

type Limiter struct {
	storage Storage
	local   *Local
	limits  map[string]ActionConfig
	log     *zap.Logger
}

type CheckResult struct {
	Allowed   bool  `json:"allowed"`
	Remaining int64 `json:"remaining"`
	ResetAt   int64 `json:"reset_at"`
	Limit     int64 `json:"limit"`
}

// NewLimiter builds a limiter over storage. storage may be nil, in which
// case only the in-process limiter is used. A nil limits map means
// DefaultLimits.
func NewLimiter(storage Storage, limits map[string]ActionConfig, log *zap.Logger) *Limiter {
	if limits == nil {
		limits = DefaultLimits
	}
	return &Limiter{storage: storage, local: NewLocal(), limits: limits, log: log}
}

func (l *Limiter) config(action string) ActionConfig {
	if cfg, ok := l.limits[action]; ok {
		return cfg
	}
	return fallbackLimit
}

func (l *Limiter) Check(ctx context.Context, clientID, action string) (*CheckResult, error) {
	cfg := l.config(action)
	key := fmt.Sprintf("rate:%s:%s", clientID, action)

	if l.storage == nil {
		return l.local.Allow(key, cfg)
	}

	count, ttl, err := l.storage.Incr(ctx, key, cfg.Window)
	if err != nil {
		l.log.Warn("rate limit storage failed, using local limiter", zap.String("action", action), zap.Error(err))
		return l.local.Allow(key, cfg)
	}

	remaining := cfg.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &CheckResult{
		Allowed:   count <= cfg.Limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(ttl).Unix(),
		Limit:     cfg.Limit,
	}, nil
}

// Package cache memoizes exchange reads for the lifetime of one session
// snapshot. Entries are keyed by (operation, input) under a per-session
// namespace, so invalidating a session never touches another one. Entries
// carry no expiry: only Invalidate and Close end a snapshot.
package cache

import (
	"context"
	"errors"
	"time"

	"FolioPull/pkg/cache"
	xlogger "FolioPull/pkg/logger"
)

const keyRoot = "session"

// Session is a namespaced view over a cache.Service.
type Session struct {
	store     cache.Service
	namespace string
	logger    *xlogger.Logger
}

type Option func(*Session)

func WithLogger(l *xlogger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession scopes store to the given session id.
func NewSession(store cache.Service, sessionID string, opts ...Option) *Session {
	s := &Session{
		store:     store,
		namespace: cache.GenerateKey(keyRoot, sessionID),
		logger:    xlogger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key of one (operation, input) entry.
func (s *Session) Key(op, input string) string {
	return cache.GenerateKey(s.namespace, op, input)
}

// Remember returns the cached value for (op, input), calling load on a miss.
// A failing backend degrades to an uncached call; load errors are never cached.
func Remember[T any](ctx context.Context, s *Session, op, input string, load func(context.Context) (T, error)) (T, error) {
	key := s.Key(op, input)

	var v T
	err := s.store.Get(ctx, key, &v)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("session cache read failed",
			xlogger.String("key", key),
			xlogger.Error(err),
		)
	}

	v, err = load(ctx)
	if err != nil {
		return v, err
	}

	if err := s.store.Set(ctx, key, v, 0); err != nil {
		s.logger.Warn("session cache write failed",
			xlogger.String("key", key),
			xlogger.Error(err),
		)
	}
	return v, nil
}

// Invalidate drops the entries of the named operations, or of every operation
// when none is named.
func (s *Session) Invalidate(ctx context.Context, ops ...string) error {
	if len(ops) == 0 {
		return s.store.DeleteByPattern(ctx, cache.BuildPattern(s.namespace+":"))
	}
	var errs []error
	for _, op := range ops {
		if err := s.store.DeleteByPattern(ctx, cache.BuildPattern(s.Key(op, ""))); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TryLock guards one session-wide critical section, such as a refresh.
func (s *Session) TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	return s.store.TryLock(ctx, s.Key("lock", name), ttl)
}

func (s *Session) Unlock(ctx context.Context, name string) error {
	return s.store.Unlock(ctx, s.Key("lock", name))
}

// Close removes the session namespace. The shared store stays open.
func (s *Session) Close(ctx context.Context) error {
	return s.Invalidate(ctx)
}

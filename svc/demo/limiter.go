// Package demo bounds anonymous usage per client address per calendar day.
//
// Counters live in Redis keyed by feature, client address, and UTC date, and
// expire on their own after a day. The check and the increment are two
// separate operations rather than one atomic transaction: concurrent requests
// from the same address can each read a count below the limit and all
// proceed, so the daily maximum is a soft bound that can be exceeded by at
// most the concurrency level minus one. That overshoot is accepted in
// exchange for not holding a distributed lock on the hot path.
package demo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// counterTTL keeps a counter alive for one day; the date in the key makes the
// exact expiry moment irrelevant.
const counterTTL = 24 * time.Hour

// Config holds demo-tier settings.
type Config struct {
	BlogDailyLimit  int    `env:"DEMO_BLOG_DAILY_LIMIT" envDefault:"3"`  // BlogDailyLimit is the number of free blog generations per address per day.
	MovieDailyLimit int    `env:"DEMO_MOVIE_DAILY_LIMIT" envDefault:"1"` // MovieDailyLimit is the number of free movie generations per address per day.
	APIKey          string `env:"DEMO_API_KEY"`                          // APIKey is the shared server-side generation credential; demo mode is unavailable without it.
}

// Status describes the demo allowance for a client without consuming it.
type Status struct {
	Remaining int
	Max       int
	Available bool
}

// Result is the outcome of a consume attempt.
type Result struct {
	Allowed   bool
	Remaining int
	Max       int
}

// Limiter enforces per-address daily demo limits.
type Limiter struct {
	client redis.UniversalClient
	cfg    Config
	log    *slog.Logger
	now    func() time.Time
}

// Option configures the limiter.
type Option func(*Limiter)

// WithClock overrides the limiter's clock. Used by tests to cross day boundaries.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLimiter creates a demo rate limiter backed by the given Redis client.
func NewLimiter(client redis.UniversalClient, cfg Config, log *slog.Logger, opts ...Option) *Limiter {
	if client == nil {
		panic("demo: redis client is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	l := &Limiter{
		client: client,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Status reports the remaining allowance for the client without incrementing
// the counter. Available is false when the allowance is exhausted or the
// shared generation credential is not configured.
func (l *Limiter) Status(ctx context.Context, clientIP string, feature Feature) (*Status, error) {
	used, err := l.currentCount(ctx, l.key(feature, clientIP))
	if err != nil {
		return nil, err
	}

	maxCount := l.limit(feature)
	remaining := max(0, maxCount-used)

	return &Status{
		Remaining: remaining,
		Max:       maxCount,
		Available: remaining > 0 && l.configured(),
	}, nil
}

// CheckAndConsume permits one demo generation for the client if the daily
// allowance is not exhausted, incrementing the counter on success.
// Returns ErrUnavailable when the shared credential is not configured.
func (l *Limiter) CheckAndConsume(ctx context.Context, clientIP string, feature Feature) (*Result, error) {
	if !l.configured() {
		return nil, ErrUnavailable
	}

	key := l.key(feature, clientIP)
	maxCount := l.limit(feature)

	used, err := l.currentCount(ctx, key)
	if err != nil {
		return nil, err
	}

	if used >= maxCount {
		return &Result{Allowed: false, Remaining: 0, Max: maxCount}, nil
	}

	// Write happens after the permission check; see the package comment for
	// the resulting overshoot bound.
	if err := l.client.Set(ctx, key, strconv.Itoa(used+1), counterTTL).Err(); err != nil {
		return nil, fmt.Errorf("demo: failed to update counter: %w", err)
	}

	return &Result{
		Allowed:   true,
		Remaining: max(0, maxCount-used-1),
		Max:       maxCount,
	}, nil
}

func (l *Limiter) configured() bool {
	return l.cfg.APIKey != ""
}

func (l *Limiter) limit(feature Feature) int {
	if feature == FeatureMovie {
		return l.cfg.MovieDailyLimit
	}
	return l.cfg.BlogDailyLimit
}

// key builds "<prefix>:<ip>:<YYYY-MM-DD>" with the date in UTC so the window
// rolls over at the same instant for every client.
func (l *Limiter) key(feature Feature, clientIP string) string {
	return fmt.Sprintf("%s:%s:%s", feature.keyPrefix(), clientIP, l.now().UTC().Format("2006-01-02"))
}

func (l *Limiter) currentCount(ctx context.Context, key string) (int, error) {
	val, err := l.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("demo: failed to read counter: %w", err)
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		l.log.WarnContext(ctx, "malformed demo counter value, treating as zero", "key", key, "value", val)
		return 0, nil
	}
	return count, nil
}

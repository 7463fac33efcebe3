// Package retry runs a generation call under a bounded two-tier policy:
// up to MaxAttempts on the primary model, then one fresh cycle on a distinct
// fallback model.
package retry

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Conceptual-Machines/lyricist-api/internal/errs"
	"github.com/Conceptual-Machines/lyricist-api/internal/logger"
)

const maxBackoffShift = 10

// Policy configures one controller
type Policy struct {
	MaxAttempts   int
	BackoffBase   time.Duration
	Jitter        time.Duration
	FallbackModel string
}

// DefaultPolicy is used when configuration supplies nothing
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BackoffBase: time.Second,
		Jitter:      250 * time.Millisecond,
	}
}

// Tier is the model tier an attempt ran against
type Tier string

const (
	TierPrimary  Tier = "primary"
	TierFallback Tier = "fallback"
)

// Target names the models for one execution. An empty FallbackModel falls
// back to the policy's.
type Target struct {
	Model         string
	FallbackModel string
}

// Call identifies one attempt to the function under retry
type Call struct {
	Model   string
	Tier    Tier
	Attempt int
}

// Attempt records the outcome of one call
type Attempt struct {
	Model    string        `json:"model"`
	Tier     Tier          `json:"tier"`
	Number   int           `json:"attempt"`
	Kind     errs.Kind     `json:"kind,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Report summarises an execution
type Report struct {
	Attempts     []Attempt `json:"attempts"`
	UsedFallback bool      `json:"used_fallback"`
	Model        string    `json:"model,omitempty"`
}

// Count returns the number of attempts made against tier
func (r Report) Count(tier Tier) int {
	n := 0
	for _, a := range r.Attempts {
		if a.Tier == tier {
			n++
		}
	}
	return n
}

// Controller executes calls under a Policy. It holds no per-call state and is
// safe for concurrent use.
type Controller struct {
	policy Policy
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(n int64) int64
}

// Option customises a Controller
type Option func(*Controller)

// WithSleeper replaces the backoff wait
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) {
		c.sleep = sleep
	}
}

// WithJitterSource replaces the random source; it must return a value in [0, n)
func WithJitterSource(source func(n int64) int64) Option {
	return func(c *Controller) {
		c.jitter = source
	}
}

// NewController creates a controller, filling unset policy values with defaults
func NewController(policy Policy, opts ...Option) *Controller {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultPolicy().MaxAttempts
	}
	if policy.BackoffBase < 0 {
		policy.BackoffBase = 0
	}
	if policy.Jitter < 0 {
		policy.Jitter = 0
	}

	c := &Controller{
		policy: policy,
		sleep:  sleepContext,
		jitter: rand.Int64N,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the effective policy
func (c *Controller) Policy() Policy {
	return c.policy
}

// Backoff returns the wait before the attempt after attempt n (1-based):
// base * 2^(n-1) plus or minus up to Jitter, never negative.
func (c *Controller) Backoff(n int) time.Duration {
	shift := n - 1
	if shift < 0 {
		shift = 0
	}
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	wait := c.policy.BackoffBase * time.Duration(1<<shift)
	if j := int64(c.policy.Jitter); j > 0 {
		wait += time.Duration(c.jitter(2*j+1) - j)
	}
	if wait < 0 {
		return 0
	}
	return wait
}

func (c *Controller) tiers(target Target) []Call {
	calls := []Call{{Model: target.Model, Tier: TierPrimary}}
	fallback := strings.TrimSpace(target.FallbackModel)
	if fallback == "" {
		fallback = c.policy.FallbackModel
	}
	if fallback != "" && !strings.EqualFold(fallback, target.Model) {
		calls = append(calls, Call{Model: fallback, Tier: TierFallback})
	}
	return calls
}

// Execute runs fn under the controller's policy. Every failure is classified;
// FATAL stops immediately. Cancellation of ctx is observed before each attempt
// and during backoff, and aborts the remaining policy with a FATAL error.
func Execute[T any](
	ctx context.Context,
	c *Controller,
	target Target,
	fn func(ctx context.Context, call Call) (T, error),
) (T, Report, error) {
	var (
		zero    T
		report  Report
		lastErr *errs.Error
	)

	for _, tier := range c.tiers(target) {
		if tier.Tier == TierFallback {
			report.UsedFallback = true
			logger.Warn("Primary model exhausted, switching to fallback", logger.Fields{
				"model":          target.Model,
				"fallback_model": tier.Model,
				"last_error":     string(lastErr.Kind),
			})
		}

		for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return zero, report, errs.New(errs.KindFatal, "generation cancelled", err)
			}

			call := Call{Model: tier.Model, Tier: tier.Tier, Attempt: attempt}
			start := time.Now()
			result, err := fn(ctx, call)
			record := Attempt{Model: call.Model, Tier: call.Tier, Number: attempt, Duration: time.Since(start)}

			if err == nil {
				report.Attempts = append(report.Attempts, record)
				report.Model = call.Model
				return result, report, nil
			}

			lastErr = errs.Classify(err)
			record.Kind = lastErr.Kind
			record.Error = lastErr.Error()
			report.Attempts = append(report.Attempts, record)

			logger.Warn("Generation attempt failed", logger.Fields{
				"model":   call.Model,
				"tier":    string(call.Tier),
				"attempt": attempt,
				"kind":    string(lastErr.Kind),
				"error":   lastErr.Message,
			})

			if !lastErr.Retryable() {
				return zero, report, lastErr
			}
			if attempt == c.policy.MaxAttempts {
				break
			}
			if err := c.sleep(ctx, c.Backoff(attempt)); err != nil {
				return zero, report, errs.New(errs.KindFatal, "generation cancelled", err)
			}
		}
	}

	return zero, report, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

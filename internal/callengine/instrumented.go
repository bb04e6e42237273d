package callengine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Recorder receives provider call observations.
type Recorder interface {
	ProviderRequest(op string, seconds float64, err error)
}

// Instrumented wraps an Engine, timing each call and logging failures.
type Instrumented struct {
	next     Engine
	recorder Recorder
	log      *zerolog.Logger
}

// NewInstrumented decorates next. recorder may be nil.
func NewInstrumented(next Engine, recorder Recorder, logger *zerolog.Logger) *Instrumented {
	return &Instrumented{
		next:     next,
		recorder: recorder,
		log:      logger,
	}
}

// UpsertUser forwards to the wrapped engine.
func (i *Instrumented) UpsertUser(ctx context.Context, user User) error {
	start := time.Now()
	err := i.next.UpsertUser(ctx, user)
	i.observe("upsert_user", start, err)
	return err
}

// CallToken forwards to the wrapped engine.
func (i *Instrumented) CallToken(ctx context.Context, req TokenRequest) (string, error) {
	start := time.Now()
	token, err := i.next.CallToken(ctx, req)
	i.observe("call_token", start, err)
	return token, err
}

func (i *Instrumented) observe(op string, start time.Time, err error) {
	elapsed := time.Since(start)
	if i.recorder != nil {
		i.recorder.ProviderRequest(op, elapsed.Seconds(), err)
	}
	if i.log == nil {
		return
	}
	if err != nil {
		i.log.Warn().Err(err).Str("op", op).Dur("elapsed", elapsed).Msg("provider call failed")
		return
	}
	i.log.Debug().Str("op", op).Dur("elapsed", elapsed).Msg("provider call")
}

var _ Engine = (*Instrumented)(nil)

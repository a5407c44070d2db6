package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_ytsum/internal/cookies"
)

// Synthetic fabricates a jar with plausible cookie names and random values.
// It performs no login and cannot authenticate; providers that check the
// tokens will reject it. Used only when no credentials are configured.
type Synthetic struct {
	Seed func() uint64
	Now  func() time.Time
}

// NewSynthetic seeds each jar from the wall clock.
func NewSynthetic() *Synthetic {
	return &Synthetic{
		Seed: func() uint64 { return uint64(time.Now().UnixNano()) },
		Now:  time.Now,
	}
}

func (s *Synthetic) Name() string { return "synthetic" }

func (s *Synthetic) Acquire(_ context.Context, _ Credentials) (*cookies.Jar, error) {
	slog.Warn("session: using synthetic cookies, these do not authenticate")
	return cookies.Synthesize(s.Seed(), s.Now()), nil
}

// Package scheduler drives the poll cycle on a fixed wall-clock interval.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/lskalski/github-notifyd/pkg/feed"
	"github.com/lskalski/github-notifyd/pkg/notify"
)

// MinInterval is the enforced polling floor; requested intervals below it are
// clamped with a warning, not rejected.
const MinInterval = 45 * time.Second

// Fetcher retrieves the notifications document with revalidation state
type Fetcher interface {
	Fetch(ctx context.Context, url string, st *feed.State) (feed.Result, error)
}

// Decoder converts a raw notifications document into records
type Decoder interface {
	Decode(ctx context.Context, raw []byte) ([]feed.Notification, error)
}

// Renderer produces a presentation payload for one notification
type Renderer interface {
	Render(n feed.Notification) notify.Payload
}

// Notifier shows a payload on the desktop
type Notifier interface {
	Show(p notify.Payload) error
}

// Config holds scheduler configuration
type Config struct {
	URL      string
	Interval time.Duration
}

// Scheduler runs fetch, decode, render and show as one sequential cycle per
// tick. Cycles never overlap: everything runs on the Run goroutine, and ticks
// arriving while a cycle is in flight are coalesced by the ticker. It owns
// the revalidation state for the whole process lifetime.
type Scheduler struct {
	fetcher  Fetcher
	decoder  Decoder
	renderer Renderer
	notifier Notifier
	url      string
	interval time.Duration
	state    feed.State
}

// New creates a scheduler, clamping the interval to MinInterval
func New(fetcher Fetcher, decoder Decoder, renderer Renderer, notifier Notifier, cfg Config) *Scheduler {
	interval := cfg.Interval
	if interval < MinInterval {
		lgr.Printf("[WARN] polling interval %v below minimum, clamped to %v", interval, MinInterval)
		interval = MinInterval
	}
	return &Scheduler{
		fetcher:  fetcher,
		decoder:  decoder,
		renderer: renderer,
		notifier: notifier,
		url:      cfg.URL,
		interval: interval,
	}
}

// Interval reports the effective polling interval after clamping
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Run polls until ctx is canceled. The first cycle starts immediately.
// Cancellation is observed between cycles only: an in-flight cycle finishes,
// bounded by the per-request timeouts of its network calls.
func (s *Scheduler) Run(ctx context.Context) {
	lgr.Printf("[INFO] polling %s every %v", s.url, s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// detached from cancellation so network calls in flight are never aborted
	cycleCtx := context.WithoutCancel(ctx)

	s.cycle(cycleCtx)
	for {
		select {
		case <-ctx.Done():
			lgr.Printf("[INFO] scheduler stopped")
			return
		case <-ticker.C:
			s.cycle(cycleCtx)
		}
	}
}

// cycle performs one fetch-decode-render-show pass. Every failure here is
// cycle-scoped: it is reported and the next tick retries from scratch.
func (s *Scheduler) cycle(ctx context.Context) {
	res, err := s.fetcher.Fetch(ctx, s.url, &s.state)
	switch {
	case errors.Is(err, feed.ErrUnauthorized):
		lgr.Printf("[ERROR] fetch notifications: %v", err)
		s.show(notify.AuthErrorPayload())
		return
	case err != nil:
		lgr.Printf("[ERROR] fetch notifications: %v", err)
		s.show(notify.ErrorPayload())
		return
	case res.NotModified:
		lgr.Printf("[DEBUG] notifications not modified")
		return
	}

	notifications, err := s.decoder.Decode(ctx, res.Body)
	if err != nil {
		lgr.Printf("[ERROR] decode notifications: %v", err)
		s.show(notify.ErrorPayload())
		return
	}

	for _, n := range notifications {
		s.show(s.renderer.Render(n))
	}
	if len(notifications) > 0 {
		lgr.Printf("[INFO] shown %d notifications", len(notifications))
	}
}

func (s *Scheduler) show(p notify.Payload) {
	if err := s.notifier.Show(p); err != nil {
		lgr.Printf("[WARN] show notification: %v", err)
	}
}

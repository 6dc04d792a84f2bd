package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/readmegen/internal/history"
	"git.home.luguber.info/inful/readmegen/internal/logfields"
	"git.home.luguber.info/inful/readmegen/internal/notify"
)

// eventSink fans build events out to the history store and the notifier.
// Both targets are optional, and both fail soft: bookkeeping never breaks a
// build that produced a correct readme.
type eventSink struct {
	ctx      context.Context
	logger   *slog.Logger
	store    history.Store
	notifier notify.Notifier

	mu          sync.Mutex
	generated   int
	regenerated int
}

func newEventSink(ctx context.Context, logger *slog.Logger, store history.Store, notifier notify.Notifier) *eventSink {
	return &eventSink{ctx: ctx, logger: logger, store: store, notifier: notifier}
}

// Record implements plugin.EventSink.
func (s *eventSink) Record(e history.Event) {
	if e == nil {
		return
	}

	s.mu.Lock()
	switch e.(type) {
	case *history.ReadmeGenerated:
		s.generated++
	case *history.ReadmeRegenerated:
		s.regenerated++
	}
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Append(s.ctx, e.BuildID(), e.Type(), e.Payload(), e.Metadata()); err != nil {
			s.logger.Warn("failed to record build event",
				slog.String("event", e.Type()), logfields.Error(err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.Publish(e.Type(), e.Payload()); err != nil {
			s.logger.Warn("failed to publish build event",
				slog.String("event", e.Type()), logfields.Error(err))
		}
	}
}

func (s *eventSink) counts() (generated, regenerated int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generated, s.regenerated
}

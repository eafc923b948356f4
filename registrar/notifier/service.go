// Package notifier polls the durable event log and pushes account state
// updates to feed subscribers. Delivery is at-most-once: events appended
// before the notifier starts, or while a batch fails, may never be pushed.
package notifier

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"github.com/registrarlabs/registrar/async"
	"github.com/registrarlabs/registrar/config/params"
	"github.com/registrarlabs/registrar/registrar/db"
	"github.com/registrarlabs/registrar/registrar/types"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "notifier")

// Config options for the notifier service.
type Config struct {
	Database db.Database
	// Feed is the shared account-state feed subscribers attach to.
	Feed *event.Feed
	// PollInterval is how often the event log is polled. Zero means the
	// configured default.
	PollInterval time.Duration
}

// Service polls the event log and publishes account states.
type Service struct {
	cfg    *Config
	ctx    context.Context
	cancel context.CancelFunc
	cursor types.Timestamp
}

// New instantiates a notifier service from configuration values.
func New(ctx context.Context, cfg *Config) *Service {
	ctx, cancel := context.WithCancel(ctx)
	if cfg.PollInterval == 0 {
		cfg.PollInterval = params.RegistrarConfig().NotifierPollInterval
	}
	return &Service{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the polling loop. The cursor begins at the current time, so
// events logged before startup are intentionally never replayed.
func (s *Service) Start() {
	s.cursor = types.Now()
	async.RunEvery(s.ctx, s.cfg.PollInterval, func() {
		if err := s.pushNewEvents(s.ctx); err != nil {
			log.WithError(err).Error("Could not push account state updates")
		}
	})
}

// Stop the notifier service.
func (s *Service) Stop() error {
	s.cancel()
	return nil
}

// Status of the notifier service.
func (s *Service) Status() error {
	return nil
}

// SubscribeAccountState attaches a subscriber channel to the account-state
// feed.
func (s *Service) SubscribeAccountState(ch chan<- *types.AccountState) event.Subscription {
	return s.cfg.Feed.Subscribe(ch)
}

// pushNewEvents publishes every event past the cursor. State lookups within
// one batch share a cache so an identity with several events in the same
// second resolves once. A missing state abandons the whole batch and leaves
// the cursor untouched.
func (s *Service) pushNewEvents(ctx context.Context) error {
	msgs, latest, err := s.cfg.Database.Events(ctx, s.cursor)
	if err != nil {
		return errors.Wrap(err, "could not fetch events")
	}
	if len(msgs) == 0 {
		return nil
	}
	cache := make(map[types.IdentityContext]*types.JudgementStateBlanked)
	for _, msg := range msgs {
		blanked, ok := cache[msg.Context]
		if !ok {
			state, err := s.cfg.Database.JudgementState(ctx, msg.Context)
			if err != nil {
				return errors.Wrap(err, "could not resolve event state")
			}
			if state == nil {
				return errors.Errorf("event %q references unknown state %s:%s",
					msg.Type, msg.Context.Chain, msg.Context.Address)
			}
			blanked = state.Blanked()
			cache[msg.Context] = blanked
		}
		s.cfg.Feed.Send(&types.AccountState{
			State:         *blanked,
			Notifications: []types.NotificationMessage{msg},
		})
	}
	s.cursor = latest
	return nil
}

// Package scheduler drives the time-based parts of the judgement pipeline:
// it reclaims dangling judgement states on an interval and answers the chain
// submitter's candidate queries.
package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/registrarlabs/registrar/async"
	"github.com/registrarlabs/registrar/config/params"
	"github.com/registrarlabs/registrar/registrar/db"
	"github.com/registrarlabs/registrar/registrar/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var log = logrus.WithField("prefix", "scheduler")

// Config options for the scheduler service.
type Config struct {
	Database db.Database
	// ReclaimInterval is how often the dangling-state pass runs. Zero means
	// the configured default.
	ReclaimInterval time.Duration
}

// Service runs the dangling-reclamation loop and serves candidate queries.
type Service struct {
	cfg    *Config
	ctx    context.Context
	cancel context.CancelFunc
}

// New instantiates a scheduler service from configuration values.
func New(ctx context.Context, cfg *Config) *Service {
	ctx, cancel := context.WithCancel(ctx)
	if cfg.ReclaimInterval == 0 {
		cfg.ReclaimInterval = params.RegistrarConfig().DanglingCheckInterval
	}
	return &Service{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the reclamation loop.
func (s *Service) Start() {
	async.RunEvery(s.ctx, s.cfg.ReclaimInterval, func() {
		if err := s.cfg.Database.ProcessDanglingJudgementStates(s.ctx); err != nil {
			log.WithError(err).Error("Could not reclaim dangling judgement states")
		}
	})
}

// Stop the scheduler service.
func (s *Service) Stop() error {
	s.cancel()
	return nil
}

// Status of the scheduler service.
func (s *Service) Status() error {
	return nil
}

// Candidates returns the fully verified states of a chain whose issuance
// delay has elapsed and that still await a judgement.
func (s *Service) Candidates(ctx context.Context, chain types.ChainName) ([]*types.JudgementState, error) {
	return s.cfg.Database.JudgementCandidates(ctx, chain)
}

// AllCandidates queries both chains concurrently and returns the combined
// candidate set.
func (s *Service) AllCandidates(ctx context.Context) ([]*types.JudgementState, error) {
	chains := []types.ChainName{types.Polkadot, types.Kusama}
	results := make([][]*types.JudgementState, len(chains))
	g, gCtx := errgroup.WithContext(ctx)
	for i, chain := range chains {
		i, chain := i, chain
		g.Go(func() error {
			candidates, err := s.cfg.Database.JudgementCandidates(gCtx, chain)
			if err != nil {
				return errors.Wrapf(err, "could not query %s candidates", chain)
			}
			results[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var combined []*types.JudgementState
	for _, candidates := range results {
		combined = append(combined, candidates...)
	}
	return combined, nil
}

package kv

import (
	"context"

	"github.com/registrarlabs/registrar/config/params"
	"github.com/registrarlabs/registrar/crypto/rand"
	"github.com/registrarlabs/registrar/registrar/types"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// ProcessFullyVerified runs the completion check for the context. When every
// field's challenge is passed, the state transitions to fully verified with
// a randomized issuance delay, guarded on the flag being unset so that the
// identity_fully_verified event is appended exactly once per transition.
// When a field is not verified while the flag is still set, the transition
// is rolled back; that happens when a completed identity's field set changed
// afterward.
func (s *Store) ProcessFullyVerified(ctx context.Context, id types.IdentityContext) error {
	_, span := trace.StartSpan(ctx, "RegistrarDB.ProcessFullyVerified")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		return processFullyVerifiedTx(tx, id)
	})
}

func processFullyVerifiedTx(tx *bolt.Tx, id types.IdentityContext) error {
	state, err := getStateTx(tx, id)
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}
	if state.CheckFullVerification() {
		if state.IsFullyVerified {
			return nil
		}
		completion := types.Now()
		issueAt := completion.Add(randomJudgementDelay())
		state.IsFullyVerified = true
		state.CompletionTimestamp = &completion
		state.IssueJudgementAt = &issueAt
		if err := putStateTx(tx, state); err != nil {
			return err
		}
		return appendEventTx(tx, types.IdentityFullyVerifiedNotification(id))
	}
	if !state.IsFullyVerified {
		return nil
	}
	state.IsFullyVerified = false
	state.JudgementSubmitted = false
	return putStateTx(tx, state)
}

// MarkFullManualVerification forces the state to fully verified with a fresh
// completion timestamp and randomized issuance delay. Returns whether a
// state exists for the context.
func (s *Store) MarkFullManualVerification(ctx context.Context, id types.IdentityContext) (bool, error) {
	_, span := trace.StartSpan(ctx, "RegistrarDB.MarkFullManualVerification")
	defer span.End()
	modified := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		state, err := getStateTx(tx, id)
		if err != nil {
			return err
		}
		if state == nil {
			return nil
		}
		completion := types.Now()
		issueAt := completion.Add(randomJudgementDelay())
		state.IsFullyVerified = true
		state.JudgementSubmitted = false
		state.CompletionTimestamp = &completion
		state.IssueJudgementAt = &issueAt
		modified = true
		return putStateTx(tx, state)
	})
	return modified, err
}

// ProcessDanglingJudgementStates reclaims states that completed longer ago
// than the dangling threshold without the submitter picking them up. They
// are marked submitted so they stop blocking chain progress on their
// addresses, deliberately without a judgement_provided event: no judgement
// was actually issued, and downstream observers must not be told otherwise.
func (s *Store) ProcessDanglingJudgementStates(ctx context.Context) error {
	_, span := trace.StartSpan(ctx, "RegistrarDB.ProcessDanglingJudgementStates")
	defer span.End()
	threshold := params.RegistrarConfig().DanglingThreshold
	now := types.Now()
	reclaimed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		var dangling []*types.JudgementState
		err := forEachState(tx, func(state *types.JudgementState) error {
			if state.IsFullyVerified && !state.JudgementSubmitted &&
				state.CompletionTimestamp != nil && state.CompletionTimestamp.Add(threshold) < now {
				dangling = append(dangling, state)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, state := range dangling {
			state.JudgementSubmitted = true
			if err := putStateTx(tx, state); err != nil {
				return err
			}
		}
		reclaimed = len(dangling)
		return nil
	})
	if err == nil && reclaimed > 0 {
		log.WithField("count", reclaimed).Debug("Reclaimed dangling judgement states")
	}
	return err
}

// randomJudgementDelay draws the issuance delay uniformly from the
// configured window. The randomization prevents observers from timing the
// exact moment a judgement will be issued.
func randomJudgementDelay() uint64 {
	cfg := params.RegistrarConfig()
	gen := rand.NewGenerator()
	return cfg.JudgementDelayMin + uint64(gen.Int63n(int64(cfg.JudgementDelayMax-cfg.JudgementDelayMin)))
}

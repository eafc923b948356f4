// Package verification implements the challenge verification engine. It
// turns external evidence and admin overrides into guarded state-store
// mutations and event log entries.
package verification

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/registrarlabs/registrar/registrar/db"
	"github.com/registrarlabs/registrar/registrar/types"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "verification")

// ErrMetaFieldTarget is returned when a single-field operation is asked to
// target the "all" meta-name.
var ErrMetaFieldTarget = errors.New("meta field name \"all\" is not a verifiable field")

// Config options for the verification service.
type Config struct {
	Database db.Database
}

// Service orchestrates challenge verification over the state store.
type Service struct {
	cfg    *Config
	ctx    context.Context
	cancel context.CancelFunc
}

// New instantiates a verification service from configuration values.
func New(ctx context.Context, cfg *Config) *Service {
	ctx, cancel := context.WithCancel(ctx)
	return &Service{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start the verification service. The engine is driven by its callers, so
// there is nothing to launch.
func (s *Service) Start() {
}

// Stop the verification service.
func (s *Service) Stop() error {
	s.cancel()
	return nil
}

// Status of the verification service.
func (s *Service) Status() error {
	return nil
}

// VerifyMessage checks inbound external evidence against every pending state
// that declares the message's origin as a field. Each matching field gets
// exactly one outcome: pass, recorded failure, or skip when already
// verified. The completion check runs for every touched state.
func (s *Service) VerifyMessage(ctx context.Context, msg *types.ExternalMessage) error {
	messagesReceivedTotal.WithLabelValues(string(msg.Origin.Type)).Inc()

	states, err := s.cfg.Database.JudgementStatesByOrigin(ctx, msg.Origin)
	if err != nil {
		return errors.Wrap(err, "could not look up states by origin")
	}
	for _, state := range states {
		if err := s.verifyMessageAgainstState(ctx, msg, state); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) verifyMessageAgainstState(ctx context.Context, msg *types.ExternalMessage, state *types.JudgementState) error {
	id := state.Context
	field := state.FieldByOrigin(msg.Origin)
	if field == nil {
		return errors.Errorf("state %s:%s matched origin %s:%s but has no such field. This is a bug",
			id.Chain, id.Address, msg.Origin.Type, msg.Origin.Value)
	}
	challenge := field.Challenge.ExpectedMessage
	if challenge == nil {
		return errors.Errorf("field %s of %s:%s reachable from origin %s carries no message challenge. This is a bug",
			field.Value.Kind, id.Chain, id.Address, msg.Origin.Type)
	}
	if challenge.Expected.IsVerified {
		return nil
	}

	if containsNonce(msg.Values, challenge.Expected.Value) {
		modified, err := s.cfg.Database.MarkFieldPrimaryVerified(ctx, id, field.Value)
		if err != nil {
			return errors.Wrap(err, "could not mark field verified")
		}
		if modified {
			verificationsTotal.WithLabelValues(string(field.Value.Kind), "passed").Inc()
			if err := s.cfg.Database.InsertEvent(ctx, types.FieldVerifiedNotification(id, field.Value)); err != nil {
				return err
			}
			if challenge.Second != nil {
				if err := s.cfg.Database.InsertEvent(ctx, types.AwaitingSecondChallengeNotification(id, field.Value)); err != nil {
					return err
				}
			}
			log.WithFields(logrus.Fields{
				"chain":   id.Chain,
				"address": id.Address,
				"field":   field.Value.Kind,
			}).Info("Field verified")
		}
	} else {
		if _, err := s.cfg.Database.IncrementFieldFailedAttempts(ctx, id, field.Value); err != nil {
			return errors.Wrap(err, "could not record failed attempt")
		}
		verificationsTotal.WithLabelValues(string(field.Value.Kind), "failed").Inc()
		if err := s.cfg.Database.InsertEvent(ctx, types.FieldVerificationFailedNotification(id, field.Value)); err != nil {
			return err
		}
	}
	return errors.Wrap(s.cfg.Database.ProcessFullyVerified(ctx, id), "could not run completion check")
}

// VerifySecondChallenge checks a user-submitted answer against the secondary
// nonce of every pending state declaring the field value. It reports whether
// any field passed. Failed attempts are recorded as events only; the
// per-field failure counter tracks primary challenges.
func (s *Service) VerifySecondChallenge(ctx context.Context, attempt *types.SecondChallengeAttempt) (bool, error) {
	answer := strings.TrimSpace(attempt.Challenge)

	states, err := s.cfg.Database.JudgementStatesByFieldValue(ctx, attempt.Entry)
	if err != nil {
		return false, errors.Wrap(err, "could not look up states by field value")
	}
	verified := false
	for _, state := range states {
		id := state.Context
		field := state.FieldByValue(attempt.Entry)
		if field == nil || field.Challenge.ExpectedMessage == nil || field.Challenge.ExpectedMessage.Second == nil {
			continue
		}
		if strings.Contains(answer, field.Challenge.ExpectedMessage.Second.Value) {
			modified, err := s.cfg.Database.MarkFieldSecondaryVerified(ctx, id, field.Value)
			if err != nil {
				return false, errors.Wrap(err, "could not mark secondary challenge verified")
			}
			if modified {
				if err := s.cfg.Database.InsertEvent(ctx, types.SecondFieldVerifiedNotification(id, field.Value)); err != nil {
					return false, err
				}
			}
			verified = true
		} else {
			if err := s.cfg.Database.InsertEvent(ctx, types.SecondFieldVerificationFailedNotification(id, field.Value)); err != nil {
				return false, err
			}
		}
		if err := s.cfg.Database.ProcessFullyVerified(ctx, id); err != nil {
			return false, errors.Wrap(err, "could not run completion check")
		}
	}
	return verified, nil
}

// SecondChallenge returns the secondary nonce the given field still has to
// answer.
func (s *Service) SecondChallenge(ctx context.Context, id types.IdentityContext, value types.IdentityFieldValue) (types.ExpectedMessage, error) {
	return s.cfg.Database.SecondChallenge(ctx, id, value)
}

// VerifyManually overrides the challenge outcome of a single field. It
// reports whether the state declares a field of that name. With fullCheck
// the override is recorded in the event log and the completion check runs;
// without it the caller batches several overrides and settles afterwards.
func (s *Service) VerifyManually(ctx context.Context, id types.IdentityContext, field types.RawFieldName, fullCheck bool) (bool, error) {
	if field == types.RawAll {
		return false, ErrMetaFieldTarget
	}
	matched, err := s.cfg.Database.MarkFieldManuallyVerified(ctx, id, field)
	if err != nil {
		return false, errors.Wrap(err, "could not mark field manually verified")
	}
	if !matched || !fullCheck {
		return matched, nil
	}
	manualVerificationsTotal.Inc()
	if err := s.cfg.Database.InsertEvent(ctx, types.ManuallyVerifiedNotification(id, field)); err != nil {
		return false, err
	}
	if err := s.cfg.Database.ProcessFullyVerified(ctx, id); err != nil {
		return false, errors.Wrap(err, "could not run completion check")
	}
	log.WithFields(logrus.Fields{
		"chain":   id.Chain,
		"address": id.Address,
		"field":   field,
	}).Info("Field manually verified")
	return true, nil
}

// FullManualVerification overrides every challenge of the identity and marks
// it completed. It reports whether a state exists for the context.
func (s *Service) FullManualVerification(ctx context.Context, id types.IdentityContext) (bool, error) {
	modified, err := s.cfg.Database.MarkFullManualVerification(ctx, id)
	if err != nil {
		return false, errors.Wrap(err, "could not mark full manual verification")
	}
	if !modified {
		return false, nil
	}
	// Settle every declared field so the stored challenges agree with the
	// completion flag. Names the identity does not declare are skipped.
	for _, name := range types.ManuallyVerifiableFieldNames() {
		if _, err := s.VerifyManually(ctx, id, name, false); err != nil {
			return false, err
		}
	}
	manualVerificationsTotal.Inc()
	if err := s.cfg.Database.InsertEvent(ctx, types.FullManualVerificationNotification(id)); err != nil {
		return false, err
	}
	log.WithFields(logrus.Fields{
		"chain":   id.Chain,
		"address": id.Address,
	}).Info("Identity fully verified manually")
	return true, nil
}

func containsNonce(values []string, nonce string) bool {
	for _, v := range values {
		if strings.Contains(v, nonce) {
			return true
		}
	}
	return false
}

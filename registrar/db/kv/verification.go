package kv

import (
	"context"

	"github.com/pkg/errors"
	"github.com/registrarlabs/registrar/registrar/types"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// ErrMetaFieldName is returned when the "all" meta-name is passed to a
// single-field mutation. Resolving "all" is the admin dispatch's job.
var ErrMetaFieldName = errors.New("meta field name \"all\" cannot target a single field")

// MarkFieldPrimaryVerified sets the primary challenge of the field to
// verified, conditional on it not being verified yet. Returns whether the
// flag transitioned.
func (s *Store) MarkFieldPrimaryVerified(ctx context.Context, id types.IdentityContext, value types.IdentityFieldValue) (bool, error) {
	_, span := trace.StartSpan(ctx, "RegistrarDB.MarkFieldPrimaryVerified")
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
		field := state.FieldByValue(value)
		if field == nil || field.Challenge.ExpectedMessage == nil {
			return nil
		}
		if field.Challenge.ExpectedMessage.Expected.IsVerified {
			return nil
		}
		field.Challenge.ExpectedMessage.Expected.IsVerified = true
		modified = true
		return putStateTx(tx, state)
	})
	return modified, err
}

// IncrementFieldFailedAttempts adds one to the failure counter of the field.
// Returns whether the field was found.
func (s *Store) IncrementFieldFailedAttempts(ctx context.Context, id types.IdentityContext, value types.IdentityFieldValue) (bool, error) {
	_, span := trace.StartSpan(ctx, "RegistrarDB.IncrementFieldFailedAttempts")
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
		field := state.FieldByValue(value)
		if field == nil {
			return nil
		}
		field.FailedAttempts++
		modified = true
		return putStateTx(tx, state)
	})
	return modified, err
}

// MarkFieldSecondaryVerified sets the secondary challenge of the field to
// verified, conditional on the field carrying one that is not verified yet.
// Returns whether the flag transitioned.
func (s *Store) MarkFieldSecondaryVerified(ctx context.Context, id types.IdentityContext, value types.IdentityFieldValue) (bool, error) {
	_, span := trace.StartSpan(ctx, "RegistrarDB.MarkFieldSecondaryVerified")
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
		field := state.FieldByValue(value)
		if field == nil || field.Challenge.ExpectedMessage == nil || field.Challenge.ExpectedMessage.Second == nil {
			return nil
		}
		if field.Challenge.ExpectedMessage.Second.IsVerified {
			return nil
		}
		field.Challenge.ExpectedMessage.Second.IsVerified = true
		modified = true
		return putStateTx(tx, state)
	})
	return modified, err
}

// MarkFieldManuallyVerified applies the admin override mutation for the
// field kind: twitter and matrix verify the primary nonce, email verifies
// both nonces, the display name passes its check, and legal name and web set
// the unsupported flag. Returns whether a field of that kind exists.
func (s *Store) MarkFieldManuallyVerified(ctx context.Context, id types.IdentityContext, fieldName types.RawFieldName) (bool, error) {
	_, span := trace.StartSpan(ctx, "RegistrarDB.MarkFieldManuallyVerified")
	defer span.End()
	if fieldName == types.RawAll {
		return false, ErrMetaFieldName
	}
	matched := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		state, err := getStateTx(tx, id)
		if err != nil {
			return err
		}
		if state == nil {
			return nil
		}
		switch fieldName {
		case types.RawTwitter, types.RawMatrix:
			kind := types.KindTwitter
			if fieldName == types.RawMatrix {
				kind = types.KindMatrix
			}
			field := state.FieldByKind(kind)
			if field == nil || field.Challenge.ExpectedMessage == nil {
				return nil
			}
			field.Challenge.ExpectedMessage.Expected.IsVerified = true
		case types.RawEmail:
			field := state.FieldByKind(types.KindEmail)
			if field == nil || field.Challenge.ExpectedMessage == nil {
				return nil
			}
			field.Challenge.ExpectedMessage.Expected.IsVerified = true
			if field.Challenge.ExpectedMessage.Second != nil {
				field.Challenge.ExpectedMessage.Second.IsVerified = true
			}
		case types.RawDisplayName:
			field := state.FieldByKind(types.KindDisplayName)
			if field == nil || field.Challenge.DisplayNameCheck == nil {
				return nil
			}
			field.Challenge.DisplayNameCheck.Passed = true
		case types.RawLegalName, types.RawWeb:
			kind := types.KindLegalName
			if fieldName == types.RawWeb {
				kind = types.KindWeb
			}
			field := state.FieldByKind(kind)
			if field == nil || field.Challenge.Unsupported == nil {
				return nil
			}
			verified := true
			field.Challenge.Unsupported.IsVerified = &verified
		default:
			return errors.Errorf("field name %q cannot be manually verified", fieldName)
		}
		matched = true
		return putStateTx(tx, state)
	})
	return matched, err
}

// SecondChallenge returns the secondary challenge nonce of the field. The
// outbound email probe includes it in its message.
func (s *Store) SecondChallenge(ctx context.Context, id types.IdentityContext, value types.IdentityFieldValue) (types.ExpectedMessage, error) {
	_, span := trace.StartSpan(ctx, "RegistrarDB.SecondChallenge")
	defer span.End()
	var second types.ExpectedMessage
	err := s.db.View(func(tx *bolt.Tx) error {
		state, err := getStateTx(tx, id)
		if err != nil {
			return err
		}
		if state == nil {
			return errors.Wrapf(ErrNotFound, "no judgement state for %s:%s", id.Chain, id.Address)
		}
		field := state.FieldByValue(value)
		if field == nil {
			return errors.Wrapf(ErrNotFound, "no field %s for %s:%s", value.Kind, id.Chain, id.Address)
		}
		if field.Challenge.ExpectedMessage == nil || field.Challenge.ExpectedMessage.Second == nil {
			return errors.Wrapf(ErrNotFound, "field %s has no second challenge", value.Kind)
		}
		second = *field.Challenge.ExpectedMessage.Second
		return nil
	})
	return second, err
}

package kv

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/registrarlabs/registrar/registrar/types"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// UpsertDisplayName records a display name in the corpus queried by the
// external similarity policy. The corpus is keyed on both context and name,
// so re-inserting an existing entry is a no-op.
func (s *Store) UpsertDisplayName(ctx context.Context, entry types.DisplayNameEntry) error {
	_, span := trace.StartSpan(ctx, "RegistrarDB.UpsertDisplayName")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(displayNamesBucket)
		key := displayNameKey(entry)
		if bkt.Get(key) != nil {
			return nil
		}
		enc, err := encode(&entry)
		if err != nil {
			return err
		}
		return bkt.Put(key, enc)
	})
}

// DisplayNames enumerates the corpus for a chain.
func (s *Store) DisplayNames(ctx context.Context, chain types.ChainName) ([]types.DisplayNameEntry, error) {
	_, span := trace.StartSpan(ctx, "RegistrarDB.DisplayNames")
	defer span.End()
	var entries []types.DisplayNameEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(displayNamesBucket).Cursor()
		prefix := chainPrefix(chain)
		for k, enc := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, enc = c.Next() {
			entry := types.DisplayNameEntry{}
			if err := decode(enc, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}

// SetDisplayNameValid records a passed similarity check for the context's
// display name field and runs the completion check. An inbound verdict for a
// state without a display name field indicates a policy-side bug.
func (s *Store) SetDisplayNameValid(ctx context.Context, state *types.JudgementState) error {
	_, span := trace.StartSpan(ctx, "RegistrarDB.SetDisplayNameValid")
	defer span.End()
	id := state.Context
	return s.db.Update(func(tx *bolt.Tx) error {
		stored, err := getStateTx(tx, id)
		if err != nil {
			return err
		}
		if stored == nil {
			return errors.Wrapf(ErrNotFound, "no judgement state for %s:%s", id.Chain, id.Address)
		}
		field := stored.FieldByKind(types.KindDisplayName)
		if field == nil || field.Challenge.DisplayNameCheck == nil {
			return errors.Errorf("state %s:%s has no display name challenge. This is a bug", id.Chain, id.Address)
		}
		if !field.Challenge.DisplayNameCheck.Passed {
			field.Challenge.DisplayNameCheck.Passed = true
			if err := putStateTx(tx, stored); err != nil {
				return err
			}
			if err := appendEventTx(tx, types.FieldVerifiedNotification(id, field.Value)); err != nil {
				return err
			}
		}
		return processFullyVerifiedTx(tx, id)
	})
}

// SetDisplayNameViolations records a failed similarity check together with
// the similar names the policy found.
func (s *Store) SetDisplayNameViolations(ctx context.Context, id types.IdentityContext, violations []types.DisplayNameEntry) error {
	_, span := trace.StartSpan(ctx, "RegistrarDB.SetDisplayNameViolations")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		stored, err := getStateTx(tx, id)
		if err != nil {
			return err
		}
		if stored == nil {
			return errors.Wrapf(ErrNotFound, "no judgement state for %s:%s", id.Chain, id.Address)
		}
		field := stored.FieldByKind(types.KindDisplayName)
		if field == nil || field.Challenge.DisplayNameCheck == nil {
			return errors.Errorf("state %s:%s has no display name challenge. This is a bug", id.Chain, id.Address)
		}
		field.Challenge.DisplayNameCheck.Passed = false
		field.Challenge.DisplayNameCheck.Violations = violations
		return putStateTx(tx, stored)
	})
}

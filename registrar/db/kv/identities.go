package kv

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/registrarlabs/registrar/registrar/db/iface"
	"github.com/registrarlabs/registrar/registrar/types"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// UpsertJudgementRequest registers a judgement request. A request for an
// unknown context is inserted verbatim. For a known context the stored field
// is retained wherever the declared value is unchanged, preserving in-flight
// challenges and failure counters, and the new field is adopted everywhere
// else. A request matching the stored field set element-wise is a no-op.
func (s *Store) UpsertJudgementRequest(ctx context.Context, req *types.JudgementState) (iface.UpsertOutcome, error) {
	_, span := trace.StartSpan(ctx, "RegistrarDB.UpsertJudgementRequest")
	defer span.End()
	outcome := iface.Unchanged
	err := s.db.Update(func(tx *bolt.Tx) error {
		current, err := getStateTx(tx, req.Context)
		if err != nil {
			return err
		}
		if current == nil {
			if err := putStateTx(tx, req); err != nil {
				return err
			}
			if err := appendEventTx(tx, types.IdentityInsertedNotification(req.Context)); err != nil {
				return err
			}
			outcome = iface.Inserted
			return nil
		}

		adopted := false
		merged := make([]types.IdentityField, 0, len(req.Fields))
		for _, field := range req.Fields {
			if existing := current.FieldByValue(field.Value); existing != nil {
				merged = append(merged, *existing)
				continue
			}
			merged = append(merged, field)
			adopted = true
		}
		if !adopted && len(merged) == len(current.Fields) {
			outcome = iface.Unchanged
			return nil
		}

		current.Fields = merged
		if err := putStateTx(tx, current); err != nil {
			return err
		}
		if err := appendEventTx(tx, types.IdentityUpdatedNotification(req.Context)); err != nil {
			return err
		}
		outcome = iface.Updated
		return processFullyVerifiedTx(tx, req.Context)
	})
	return outcome, err
}

// JudgementState returns the state stored for the context, or nil when
// absent.
func (s *Store) JudgementState(ctx context.Context, id types.IdentityContext) (*types.JudgementState, error) {
	_, span := trace.StartSpan(ctx, "RegistrarDB.JudgementState")
	defer span.End()
	var state *types.JudgementState
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		state, err = getStateTx(tx, id)
		return err
	})
	return state, err
}

// DeleteJudgementState removes the state stored for the context. States are
// never deleted in production; this supports tests and manual cleanup.
func (s *Store) DeleteJudgementState(ctx context.Context, id types.IdentityContext) error {
	_, span := trace.StartSpan(ctx, "RegistrarDB.DeleteJudgementState")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(identitiesBucket)
		key := identityKey(id)
		if bkt.Get(key) == nil {
			return errors.Wrapf(ErrNotFound, "no judgement state for %s:%s", id.Chain, id.Address)
		}
		return bkt.Delete(key)
	})
}

// JudgementCandidates returns every state on the chain that is fully
// verified, has no judgement submitted yet, and whose randomized issuance
// time has elapsed.
func (s *Store) JudgementCandidates(ctx context.Context, chain types.ChainName) ([]*types.JudgementState, error) {
	_, span := trace.StartSpan(ctx, "RegistrarDB.JudgementCandidates")
	defer span.End()
	now := types.Now()
	var candidates []*types.JudgementState
	err := s.db.View(func(tx *bolt.Tx) error {
		return forEachStateWithPrefix(tx, chainPrefix(chain), func(state *types.JudgementState) error {
			if state.IsFullyVerified && !state.JudgementSubmitted &&
				state.IssueJudgementAt != nil && *state.IssueJudgementAt < now {
				candidates = append(candidates, state)
			}
			return nil
		})
	})
	return candidates, err
}

// SetJudged marks that the chain submitter issued a judgement for the
// context. The update is conditional on no judgement having been submitted
// yet; only the transitioning write appends the judgement_provided event.
func (s *Store) SetJudged(ctx context.Context, id types.IdentityContext) error {
	_, span := trace.StartSpan(ctx, "RegistrarDB.SetJudged")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		state, err := getStateTx(tx, id)
		if err != nil {
			return err
		}
		if state == nil || state.JudgementSubmitted {
			return nil
		}
		state.JudgementSubmitted = true
		if err := putStateTx(tx, state); err != nil {
			return err
		}
		return appendEventTx(tx, types.JudgementProvidedNotification(id))
	})
}

// JudgementStatesByOrigin returns every state with a field whose declared
// value is the endpoint the message was received from. Multiple pending
// states may share the same external handle; all of them are returned.
func (s *Store) JudgementStatesByOrigin(ctx context.Context, origin types.ExternalMessageOrigin) ([]*types.JudgementState, error) {
	_, span := trace.StartSpan(ctx, "RegistrarDB.JudgementStatesByOrigin")
	defer span.End()
	var states []*types.JudgementState
	err := s.db.View(func(tx *bolt.Tx) error {
		return forEachState(tx, func(state *types.JudgementState) error {
			if state.FieldByOrigin(origin) != nil {
				states = append(states, state)
			}
			return nil
		})
	})
	return states, err
}

// JudgementStatesByFieldValue returns every state declaring the given field
// value.
func (s *Store) JudgementStatesByFieldValue(ctx context.Context, value types.IdentityFieldValue) ([]*types.JudgementState, error) {
	_, span := trace.StartSpan(ctx, "RegistrarDB.JudgementStatesByFieldValue")
	defer span.End()
	var states []*types.JudgementState
	err := s.db.View(func(tx *bolt.Tx) error {
		return forEachState(tx, func(state *types.JudgementState) error {
			if state.FieldByValue(value) != nil {
				states = append(states, state)
			}
			return nil
		})
	})
	return states, err
}

func getStateTx(tx *bolt.Tx, id types.IdentityContext) (*types.JudgementState, error) {
	enc := tx.Bucket(identitiesBucket).Get(identityKey(id))
	if enc == nil {
		return nil, nil
	}
	state := &types.JudgementState{}
	if err := decode(enc, state); err != nil {
		return nil, err
	}
	return state, nil
}

func putStateTx(tx *bolt.Tx, state *types.JudgementState) error {
	enc, err := encode(state)
	if err != nil {
		return err
	}
	return tx.Bucket(identitiesBucket).Put(identityKey(state.Context), enc)
}

func forEachState(tx *bolt.Tx, fn func(state *types.JudgementState) error) error {
	return tx.Bucket(identitiesBucket).ForEach(func(_, enc []byte) error {
		state := &types.JudgementState{}
		if err := decode(enc, state); err != nil {
			return err
		}
		return fn(state)
	})
}

func forEachStateWithPrefix(tx *bolt.Tx, prefix []byte, fn func(state *types.JudgementState) error) error {
	c := tx.Bucket(identitiesBucket).Cursor()
	for k, enc := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, enc = c.Next() {
		state := &types.JudgementState{}
		if err := decode(enc, state); err != nil {
			return err
		}
		if err := fn(state); err != nil {
			return err
		}
	}
	return nil
}

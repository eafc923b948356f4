package kv

import (
	"context"

	"github.com/registrarlabs/registrar/registrar/types"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// InsertEvent appends a message to the event log, timestamped with the
// current wall clock. The log is append-only; entries are never mutated or
// deleted.
func (s *Store) InsertEvent(ctx context.Context, msg types.NotificationMessage) error {
	_, span := trace.StartSpan(ctx, "RegistrarDB.InsertEvent")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		return appendEventTx(tx, msg)
	})
}

// Events returns every message appended strictly after the given timestamp,
// together with the maximum timestamp seen. When no newer events exist, the
// input timestamp is returned unchanged, so callers can feed the result back
// in as their cursor.
func (s *Store) Events(ctx context.Context, after types.Timestamp) ([]types.NotificationMessage, types.Timestamp, error) {
	_, span := trace.StartSpan(ctx, "RegistrarDB.Events")
	defer span.End()
	latest := after
	var msgs []types.NotificationMessage
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(eventLogBucket).Cursor()
		start := eventKey(after.Add(1), 0)
		for k, enc := c.Seek(start); k != nil; k, enc = c.Next() {
			event := &types.Event{}
			if err := decode(enc, event); err != nil {
				return err
			}
			if event.Timestamp > latest {
				latest = event.Timestamp
			}
			msgs = append(msgs, event.Event)
		}
		return nil
	})
	return msgs, latest, err
}

// appendEventTx appends an event within the surrounding transaction, so
// state transitions and the events recording them commit atomically. The
// bucket sequence number suffixes the key to keep same-second appends in
// insertion order.
func appendEventTx(tx *bolt.Tx, msg types.NotificationMessage) error {
	bkt := tx.Bucket(eventLogBucket)
	seq, err := bkt.NextSequence()
	if err != nil {
		return err
	}
	event := &types.Event{Timestamp: types.Now(), Event: msg}
	enc, err := encode(event)
	if err != nil {
		return err
	}
	return bkt.Put(eventKey(event.Timestamp, seq), enc)
}

package kv

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Stored values use the contractual JSON encoding of the types package, so
// the persisted shape doubles as the wire shape consumed by collaborators.

func encode(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, errors.New("cannot encode nil value")
	}
	enc, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode value")
	}
	return enc, nil
}

func decode(data []byte, dst interface{}) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Wrap(err, "could not decode value")
	}
	return nil
}

// Package testing allows for spinning up a real bolt-db instance for unit
// tests throughout the registrar repo.
package testing

import (
	"context"
	"testing"

	"github.com/registrarlabs/registrar/registrar/db"
	"github.com/registrarlabs/registrar/registrar/db/kv"
)

// SetupDB instantiates and returns a database backed by a key value store.
func SetupDB(t testing.TB) db.Database {
	s, err := kv.NewKVStore(context.Background(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}
	})
	return s
}

// Package db defines the ability to create a new database for the registrar
// core.
package db

import (
	"context"

	"github.com/registrarlabs/registrar/registrar/db/kv"
)

// NewDB initializes a new database at the directory path specified.
func NewDB(ctx context.Context, dirPath string) (Database, error) {
	return kv.NewKVStore(ctx, dirPath)
}

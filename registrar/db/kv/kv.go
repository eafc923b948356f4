// Package kv implements the registrar storage backend on top of an embedded
// BoltDB key-value store. Bolt serializes writers, so every guarded mutation
// runs its check and its set inside one Update transaction.
package kv

import (
	"context"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	prombbolt "github.com/prysmaticlabs/prombbolt"
	"github.com/registrarlabs/registrar/config/params"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

var log = logrus.WithField("prefix", "registrardb")

const (
	// DatabaseFileName is the name of the registrar database file.
	DatabaseFileName = "registrar.db"
	// RegistrarDbDirName is the name of the directory containing the
	// registrar database.
	RegistrarDbDirName = "registrardata"
)

// ErrNotFound is returned when a requested state, field or challenge is
// absent from the store.
var ErrNotFound = errors.New("not found")

// Store defines an implementation of the registrar Database interface using
// BoltDB as the underlying persistent kv-store.
type Store struct {
	db           *bolt.DB
	databasePath string
}

// NewKVStore initializes a new boltDB key-value store at the directory path
// specified, creates the kv-buckets based on the schema, and stores an open
// connection db object as a property of the Store struct.
func NewKVStore(_ context.Context, dirPath string) (*Store, error) {
	if err := os.MkdirAll(dirPath, params.RegistrarIoConfig().ReadWriteExecutePermissions); err != nil {
		return nil, err
	}
	datafile := path.Join(dirPath, DatabaseFileName)
	boltDB, err := bolt.Open(
		datafile,
		params.RegistrarIoConfig().ReadWritePermissions,
		&bolt.Options{Timeout: params.RegistrarIoConfig().BoltTimeout},
	)
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errors.New("cannot obtain database lock, database may be in use by another process")
		}
		return nil, err
	}

	kv := &Store{db: boltDB, databasePath: dirPath}

	if err := kv.db.Update(func(tx *bolt.Tx) error {
		return createBuckets(
			tx,
			identitiesBucket,
			eventLogBucket,
			displayNamesBucket,
		)
	}); err != nil {
		return nil, err
	}
	err = prometheus.Register(createBoltCollector(kv.db))

	return kv, err
}

// ClearDB removes the previously stored database in the data directory.
func (s *Store) ClearDB() error {
	if _, err := os.Stat(s.databasePath); os.IsNotExist(err) {
		return nil
	}
	prometheus.Unregister(createBoltCollector(s.db))
	return os.Remove(path.Join(s.databasePath, DatabaseFileName))
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	prometheus.Unregister(createBoltCollector(s.db))
	return s.db.Close()
}

// DatabasePath at which this database writes files.
func (s *Store) DatabasePath() string {
	return s.databasePath
}

// DatabaseFileSize returns the size in bytes of the database file.
func (s *Store) DatabaseFileSize() (uint64, error) {
	info, err := os.Stat(path.Join(s.databasePath, DatabaseFileName))
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

func createBuckets(tx *bolt.Tx, buckets ...[]byte) error {
	for _, bucket := range buckets {
		if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
			return err
		}
	}
	return nil
}

// createBoltCollector returns a prometheus collector specifically configured
// for boltdb.
func createBoltCollector(db *bolt.DB) prometheus.Collector {
	return prombbolt.New("boltDB", db)
}

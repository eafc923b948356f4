package db

import "github.com/registrarlabs/registrar/registrar/db/iface"

// Database defines the necessary methods for the registrar's storage backend
// which may be implemented by any key-value or relational database in
// practice.
type Database = iface.Database

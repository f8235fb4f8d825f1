// Package db implements the opening and graceful closing of database connections.
package db

import (
	"errors"

	"github.com/tarancss/acctpanel/lib/store"
	"github.com/tarancss/acctpanel/lib/store/memory"
	"github.com/tarancss/acctpanel/lib/store/mongo"
	"github.com/tarancss/acctpanel/lib/store/postgres"
)

const (
	MONGODB  string = "mongodb"
	POSTGRES string = "postgresql"
	MEMORY   string = "memory"
)

// ErrBadType is returned for unknown database types.
var ErrBadType = errors.New("unknown database type")

// New returns a new database connection according to the options (database type).
func New(options, connection string) (store.DB, error) {
	switch options {
	case MONGODB:
		return mongo.New(connection)
	case POSTGRES:
		return postgres.New(connection)
	case MEMORY:
		return memory.New(), nil
	}

	return nil, ErrBadType
}

// Close gracefully closes the database connection.
func Close(options string, dh store.DB) error {
	switch v := dh.(type) {
	case *mongo.Mongo:
		return v.CloseMongo()
	case *postgres.Postgres:
		return v.ClosePostgres()
	}

	return nil
}

package record

import (
	"database/sql"
	"fmt"

	"github.com/hazyhaar/recolte/dbopen"
	"github.com/hazyhaar/recolte/idgen"
)

// Store is the sole reader and mutator of persisted content records.
// It owns the connection when built with Open; with NewStore the caller
// keeps ownership of the *sql.DB.
type Store struct {
	DB     *sql.DB
	newID  idgen.Generator
	ownsDB bool
}

// Open opens (creating if needed) the record database at path and applies
// the schema. The returned Store owns the connection; release it with Close.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	db, err := dbopen.Open(path, append([]dbopen.Option{dbopen.WithMkdirAll()}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := ApplySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: apply schema: %v", ErrUnavailable, err)
	}
	s := NewStore(db)
	s.ownsDB = true
	return s, nil
}

// NewStore wraps an already-opened database. The schema must have been
// applied (dbopen.WithSchema(record.Schema) or ApplySchema).
func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:    db,
		newID: idgen.Prefixed("run_", idgen.New),
	}
}

// Close releases the underlying connection if the Store owns it.
// Safe to call on every exit path.
func (s *Store) Close() error {
	if s.ownsDB {
		return s.DB.Close()
	}
	return nil
}

// Package store abstracts the persistent storage used by the shell,
// most importantly the input history shared between sessions.
package store

import (
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/kiln-shell/kiln/pkg/logutil"
)

var logger = logutil.GetLogger("[store] ")

var initDB = map[string]func(*bolt.Tx) error{}

// Store is the interface satisfied by the storage backend.
type Store interface {
	NextCmdSeq() (int, error)
	AddCmd(text string) (int, error)
	CmdsWithSeq(from, upto int) ([]Cmd, error)
	PrevCmd(upto int, prefix string) (Cmd, error)
	Close() error
}

// Cmd is an entry in the input history.
type Cmd struct {
	Text string
	Seq  int
}

type dbStore struct {
	db *bolt.DB
}

// NewStore opens the database file, creating it if absent. The file is
// locked for the lifetime of the store; a second shell instance opening
// the same file blocks up to a second before failing.
func NewStore(dbPath string) (Store, error) {
	db, err := bolt.Open(dbPath, 0o644, &bolt.Options{
		Timeout: time.Second,
	})
	if err != nil {
		return nil, err
	}
	return newStoreFromDB(db)
}

func newStoreFromDB(db *bolt.DB) (Store, error) {
	st := &dbStore{db: db}
	err := db.Update(func(tx *bolt.Tx) error {
		for name, fn := range initDB {
			if err := fn(tx); err != nil {
				logger.Printf("failed to %s: %v", name, err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

func (s *dbStore) Close() error {
	return s.db.Close()
}

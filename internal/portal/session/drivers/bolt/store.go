// Package bolt stores sessions in a single bbolt file. Each record is the
// session JSON prefixed with its last update time, so pruning never has to
// decode a record it keeps.
package bolt

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/portalfiscal/internal/portal/domain"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/session"
	bbolt "go.etcd.io/bbolt"
)

var bucketSessions = []byte("sessions")

const stampSize = 8

var errCorrupt = errors.New("bolt: corrupt session record")

type Store struct {
	db *bbolt.DB
}

func NewStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sessions bucket: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping checks the database file is still open and readable.
func (s *Store) Ping(context.Context) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketSessions) == nil {
			return errors.New("bolt: sessions bucket missing")
		}
		return nil
	})
}

func (s *Store) Get(_ context.Context, id string) (domain.Session, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketSessions).Get([]byte(id))
		if v == nil {
			return session.ErrNotFound
		}
		if len(v) < stampSize {
			return errCorrupt
		}
		// v is only valid inside the transaction.
		data = append([]byte(nil), v[stampSize:]...)
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	return session.Decode(data)
}

func (s *Store) Put(_ context.Context, sess domain.Session) error {
	data, err := session.Encode(sess)
	if err != nil {
		return err
	}

	v := make([]byte, stampSize+len(data))
	binary.BigEndian.PutUint64(v, uint64(sess.UpdatedAt.UnixMilli()))
	copy(v[stampSize:], data)

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSessions).Put([]byte(sess.ID), v)
	})
}

func (s *Store) Delete(_ context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete([]byte(id))
	})
}

func (s *Store) DeleteIdleBefore(_ context.Context, cutoff time.Time) (int, error) {
	limit := cutoff.UnixMilli()
	n := 0

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSessions)

		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			if len(v) < stampSize || int64(binary.BigEndian.Uint64(v)) < limit {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		// Deleting while iterating a bucket skips keys, so it happens after.
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		n = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return n, nil
}

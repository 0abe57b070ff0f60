// Copyright (c) 2024 RoseLoverX

package session

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var offsetsBucket = []byte("offsets")

type boltOffsetStore struct {
	path string
	db   *bolt.DB
}

var _ OffsetStore = (*boltOffsetStore)(nil)

// OpenBolt opens (creating if needed) the database file at path.
func OpenBolt(path string) (OffsetStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(offsetsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating offsets bucket")
	}
	return &boltOffsetStore{path: path, db: db}, nil
}

func (s *boltOffsetStore) Path() string {
	return s.path
}

func (s *boltOffsetStore) LoadOffset(botID int64) (int64, error) {
	var offset int64
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(offsetsBucket).Get(botKey(botID))
		if v == nil {
			return ErrOffsetNotFound
		}
		if len(v) != 8 {
			return errors.Errorf("corrupt offset record for bot %d", botID)
		}
		offset = int64(binary.BigEndian.Uint64(v))
		return nil
	})
	return offset, err
}

func (s *boltOffsetStore) StoreOffset(botID int64, offset int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		v := make([]byte, 8)
		binary.BigEndian.PutUint64(v, uint64(offset))
		return tx.Bucket(offsetsBucket).Put(botKey(botID), v)
	})
}

func (s *boltOffsetStore) Close() error {
	return s.db.Close()
}

func botKey(botID int64) []byte {
	return []byte(strconv.FormatInt(botID, 10))
}

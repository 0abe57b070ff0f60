package session

import "github.com/pkg/errors"

// OffsetStore keeps the update offset of a bot between runs. Keys are bot
// identities (the numeric id returned by getMe), so one file can serve
// several bots.
type OffsetStore interface {
	LoadOffset(botID int64) (int64, error)
	StoreOffset(botID int64, offset int64) error
	Path() string
	Close() error
}

var ErrOffsetNotFound = errors.New("offset not found")

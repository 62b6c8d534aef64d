package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	userPrefix = []byte("user/")
	nextIDKey  = []byte("meta/next_user_id")
)

// UserDirectory assigns each username a stable user id, allocating new
// ids sequentially from a persisted counter.
type UserDirectory struct {
	kv      KV
	firstID int32

	mu sync.Mutex
}

// NewUserDirectory creates a directory over kv. The first id handed out
// by an empty store is firstID.
func NewUserDirectory(kv KV, firstID int32) *UserDirectory {
	return &UserDirectory{kv: kv, firstID: firstID}
}

func userKey(username string) []byte {
	return append(append([]byte{}, userPrefix...), strings.ToLower(strings.TrimSpace(username))...)
}

func encodeID(id int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(id))
	return b
}

func decodeID(b []byte) (int32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("corrupt user id record (%d bytes)", len(b))
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// UserID returns the id of username, assigning the next free one on first
// use. Usernames are case-insensitive.
func (d *UserDirectory) UserID(ctx context.Context, username string) (int32, error) {
	key := userKey(username)

	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.kv.Get(ctx, key)
	if err == nil {
		return decodeID(v)
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return 0, err
	}

	id := d.firstID
	v, err = d.kv.Get(ctx, nextIDKey)
	switch {
	case err == nil:
		if id, err = decodeID(v); err != nil {
			return 0, err
		}
	case !errors.Is(err, ErrKeyNotFound):
		return 0, err
	}

	if err := d.kv.Batch(ctx,
		Pair{Key: key, Value: encodeID(id)},
		Pair{Key: nextIDKey, Value: encodeID(id + 1)},
	); err != nil {
		return 0, err
	}
	return id, nil
}

// Users returns every known username with its id.
func (d *UserDirectory) Users(ctx context.Context) (map[string]int32, error) {
	out := make(map[string]int32)
	var decodeErr error
	err := d.kv.Scan(ctx, userPrefix, func(key, value []byte) bool {
		id, err := decodeID(value)
		if err != nil {
			decodeErr = err
			return false
		}
		out[string(key[len(userPrefix):])] = id
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, decodeErr
}

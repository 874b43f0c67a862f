// Package storage holds the persistence and change-notification ports the
// catalog is written against, with memory, file and redis backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Blob.Get when nothing was ever stored under the
// key.
var ErrNotFound = errors.New("key not found")

// Blob stores one opaque document per key.
type Blob interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
}

// Listener is called once per notification. It carries no payload; receivers
// re-read what they care about.
type Listener func()

// Bus fans change notifications out to subscribers.
type Bus interface {
	Publish(ctx context.Context, topic string) error
	// Subscribe registers fn and returns the function that removes it.
	Subscribe(topic string, fn Listener) (unsubscribe func())
}

// Topic is the notification topic published after key is written.
func Topic(key string) string {
	return key + ".changed"
}

func checkKey(key string) error {
	if key == "" {
		return errors.New("empty storage key")
	}
	if strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}

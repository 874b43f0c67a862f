package storage

import (
	"context"
	"fmt"
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Backend pairs a Blob with the Bus that observes it.
type Backend struct {
	Blob  Blob
	Bus   Bus
	close func() error
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open builds the named backend. dir is used by the file backend, redisURL
// by the redis one.
func Open(ctx context.Context, kind, dir, redisURL string) (*Backend, error) {
	switch kind {
	case BackendMemory:
		return &Backend{Blob: NewMemoryBlob(), Bus: NewLocalBus()}, nil
	case BackendFile, "":
		blob, err := NewFileBlob(dir)
		if err != nil {
			return nil, err
		}
		bus, err := NewFileBus(dir)
		if err != nil {
			return nil, err
		}
		return &Backend{Blob: blob, Bus: bus, close: bus.Close}, nil
	case BackendRedis:
		client, err := NewRedisClient(ctx, redisURL)
		if err != nil {
			return nil, err
		}
		return &Backend{Blob: NewRedisBlob(client), Bus: NewRedisBus(client), close: client.Close}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want memory, file or redis)", kind)
	}
}

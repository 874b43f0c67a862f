package storage

import (
	"context"
	"sync"
)

// MemoryBlob keeps documents in process memory. Contents are lost on exit.
type MemoryBlob struct {
	docs map[string][]byte
	mu   sync.RWMutex
}

func NewMemoryBlob() *MemoryBlob {
	return &MemoryBlob{
		docs: make(map[string][]byte),
	}
}

func (m *MemoryBlob) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, exists := m.docs[key]
	if !exists {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBlob) Set(ctx context.Context, key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = append([]byte(nil), data...)
	return nil
}

// LocalBus delivers notifications synchronously, in subscription order, to
// listeners in this process.
type LocalBus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[string][]subscription
}

type subscription struct {
	id int
	fn Listener
}

func NewLocalBus() *LocalBus {
	return &LocalBus{listeners: make(map[string][]subscription)}
}

func (b *LocalBus) Publish(ctx context.Context, topic string) error {
	b.mu.Lock()
	subs := append([]subscription(nil), b.listeners[topic]...)
	b.mu.Unlock()

	// Called outside the lock so a listener may unsubscribe itself.
	for _, s := range subs {
		s.fn()
	}
	return nil
}

func (b *LocalBus) Subscribe(topic string, fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners[topic] = append(b.listeners[topic], subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.listeners[topic]
			for i, s := range subs {
				if s.id == id {
					b.listeners[topic] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
		})
	}
}

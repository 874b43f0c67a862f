// Package catalog owns the persisted prestation collection and its
// pending/active lifecycle.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flyerscan/prestations/internal/models"
	"github.com/flyerscan/prestations/internal/storage"
)

// DefaultKey is the storage slot holding the collection.
const DefaultKey = "prestations"

var (
	ErrNotFound          = errors.New("prestation not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidFields     = errors.New("invalid prestation")
)

// Store reads and rewrites the whole collection on every call. Every
// successful mutation persists the collection and then publishes
// storage.Topic(key).
//
// The mutex only serialises callers inside this process; two processes
// writing the same slot still race and the last write wins.
type Store struct {
	blob storage.Blob
	bus  storage.Bus
	key  string
	now  func() time.Time
	mu   sync.Mutex
}

type Option func(*Store)

// WithKey stores the collection under key instead of DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock replaces time.Now for id generation.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(blob storage.Blob, bus storage.Bus, opts ...Option) *Store {
	s := &Store{
		blob: blob,
		bus:  bus,
		key:  DefaultKey,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key is the storage slot in use.
func (s *Store) Key() string {
	return s.key
}

// List returns the collection in insertion order. A missing slot is an empty
// catalog.
func (s *Store) List(ctx context.Context) ([]models.Prestation, error) {
	return s.load(ctx)
}

// ListStatus returns the records with the given status, in insertion order.
func (s *Store) ListStatus(ctx context.Context, status models.Status) ([]models.Prestation, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]models.Prestation, 0, len(all))
	for _, p := range all {
		if p.Status == status {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *Store) Get(ctx context.Context, id string) (models.Prestation, error) {
	all, err := s.load(ctx)
	if err != nil {
		return models.Prestation{}, err
	}
	if i := indexOf(all, id); i >= 0 {
		return all[i], nil
	}
	return models.Prestation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Create appends a new record. Flyer imports start pending and await
// Validate; manual records are active straight away.
func (s *Store) Create(ctx context.Context, fields models.Fields, source models.Source) (models.Prestation, error) {
	if source == "" {
		source = models.SourceManual
	}
	if !source.Valid() {
		return models.Prestation{}, fmt.Errorf("%w: unknown source %q", ErrInvalidFields, source)
	}
	if err := fields.Validate(); err != nil {
		return models.Prestation{}, fmt.Errorf("%w: %v", ErrInvalidFields, err)
	}

	var p models.Prestation
	err := s.mutate(ctx, func(all []models.Prestation) ([]models.Prestation, error) {
		p = models.Prestation{
			ID:     s.newID(all),
			Fields: fields,
			Status: models.StatusActive,
			Source: source,
		}
		if source == models.SourceFlyerImport {
			p.Status = models.StatusPending
		}
		return append(all, p), nil
	})
	if err != nil {
		return models.Prestation{}, err
	}
	slog.Debug("Created prestation", "id", p.ID, "source", p.Source, "status", p.Status)
	return p, nil
}

// Update replaces the editable fields of the record with p.ID. The stored
// source is kept. An empty p.Status keeps the stored status; any other value
// follows the same rule as SetStatus.
func (s *Store) Update(ctx context.Context, p models.Prestation) (models.Prestation, error) {
	if err := p.Fields.Validate(); err != nil {
		return models.Prestation{}, fmt.Errorf("%w: %v", ErrInvalidFields, err)
	}

	err := s.mutate(ctx, func(all []models.Prestation) ([]models.Prestation, error) {
		i := indexOf(all, p.ID)
		if i < 0 {
			slog.Warn("Update of unknown prestation", "id", p.ID)
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p.ID)
		}
		stored := all[i]
		if p.Status == "" {
			p.Status = stored.Status
		}
		if err := checkTransition(stored, p.Status); err != nil {
			return nil, err
		}
		p.Source = stored.Source
		all[i] = p
		return all, nil
	})
	if err != nil {
		return models.Prestation{}, err
	}
	return p, nil
}

// SetStatus changes only the status. The one real transition is pending to
// active; setting the current status again is a no-op write.
func (s *Store) SetStatus(ctx context.Context, id string, status models.Status) (models.Prestation, error) {
	var p models.Prestation
	err := s.mutate(ctx, func(all []models.Prestation) ([]models.Prestation, error) {
		i := indexOf(all, id)
		if i < 0 {
			slog.Warn("Status change of unknown prestation", "id", id, "status", status)
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err := checkTransition(all[i], status); err != nil {
			return nil, err
		}
		all[i].Status = status
		p = all[i]
		return all, nil
	})
	if err != nil {
		return models.Prestation{}, err
	}
	return p, nil
}

// Delete removes the record. Deleting an unknown id is not an error; the
// collection is still written and a notification sent.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, func(all []models.Prestation) ([]models.Prestation, error) {
		kept := all[:0]
		for _, p := range all {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		return kept, nil
	})
}

// Validate confirms a pending flyer import.
func (s *Store) Validate(ctx context.Context, id string) (models.Prestation, error) {
	return s.SetStatus(ctx, id, models.StatusActive)
}

// Reject discards a flyer import. It is Delete under its operator name.
func (s *Store) Reject(ctx context.Context, id string) error {
	return s.Delete(ctx, id)
}

// OnChange registers fn for change notifications on this store's slot,
// including writes by other processes when the bus carries them. The
// returned function unsubscribes.
func (s *Store) OnChange(fn func()) func() {
	return s.bus.Subscribe(storage.Topic(s.key), fn)
}

// Import writes records carrying their own ids, statuses and sources. With
// replace the collection becomes exactly records; otherwise records whose id
// already exists are skipped. It returns how many records were added.
func (s *Store) Import(ctx context.Context, records []models.Prestation, replace bool) (int, error) {
	seen := make(map[string]bool, len(records))
	for _, p := range records {
		if err := checkRecord(p); err != nil {
			return 0, err
		}
		if seen[p.ID] {
			return 0, fmt.Errorf("%w: duplicate id %s", ErrInvalidFields, p.ID)
		}
		seen[p.ID] = true
	}

	added := 0
	err := s.mutate(ctx, func(all []models.Prestation) ([]models.Prestation, error) {
		if replace {
			all = all[:0]
		}
		for _, p := range records {
			if indexOf(all, p.ID) >= 0 {
				slog.Info("Skipping existing prestation", "id", p.ID)
				continue
			}
			all = append(all, p)
			added++
		}
		return all, nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func checkRecord(p models.Prestation) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidFields)
	}
	if err := p.Fields.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidFields, p.ID, err)
	}
	if !p.Status.Valid() || !p.Source.Valid() {
		return fmt.Errorf("%w: %s: bad status %q or source %q", ErrInvalidFields, p.ID, p.Status, p.Source)
	}
	if p.Pending() && p.Source != models.SourceFlyerImport {
		return fmt.Errorf("%w: %s: only flyer imports can be pending", ErrInvalidFields, p.ID)
	}
	return nil
}

func checkTransition(p models.Prestation, to models.Status) error {
	switch {
	case !to.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	case to == p.Status:
		return nil
	case p.Pending() && to == models.StatusActive:
		return nil
	default:
		return fmt.Errorf("%w: %s cannot go from %s to %s", ErrInvalidTransition, p.ID, p.Status, to)
	}
}

func (s *Store) load(ctx context.Context) ([]models.Prestation, error) {
	data, err := s.blob.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return []models.Prestation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Prestation{}, nil
	}

	var all []models.Prestation
	if err := json.Unmarshal(data, &all); err != nil {
		slog.Warn("Catalog slot is not a prestation list, treating as empty", "key", s.key, "err", err)
		return []models.Prestation{}, nil
	}
	if all == nil {
		all = []models.Prestation{}
	}
	return all, nil
}

// mutate runs fn on the freshly loaded collection under the process lock,
// writes the result and, once the lock is released, publishes the change so
// listeners may call back into the store.
func (s *Store) mutate(ctx context.Context, fn func([]models.Prestation) ([]models.Prestation, error)) error {
	s.mu.Lock()
	all, err := s.load(ctx)
	if err == nil {
		all, err = fn(all)
	}
	if err == nil {
		err = s.write(ctx, all)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.bus.Publish(ctx, storage.Topic(s.key)); err != nil {
		slog.Warn("Failed to publish catalog change", "key", s.key, "err", err)
	}
	return nil
}

func (s *Store) write(ctx context.Context, all []models.Prestation) error {
	if all == nil {
		all = []models.Prestation{}
	}
	data, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := s.blob.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}

// newID returns "<unix millis>-<12 hex chars>", retrying on the unlikely
// clash with a live id.
func (s *Store) newID(all []models.Prestation) string {
	for {
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		id := fmt.Sprintf("%d-%s", s.now().UnixMilli(), suffix)
		if indexOf(all, id) < 0 {
			return id
		}
	}
}

func indexOf(all []models.Prestation, id string) int {
	for i, p := range all {
		if p.ID == id {
			return i
		}
	}
	return -1
}

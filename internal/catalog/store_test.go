package catalog

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyerscan/prestations/internal/models"
	"github.com/flyerscan/prestations/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.MemoryBlob) {
	t.Helper()
	blob := storage.NewMemoryBlob()
	return New(blob, storage.NewLocalBus()), blob
}

func sampleFields(name string) models.Fields {
	return models.Fields{
		Category:    models.CategoryWomen,
		Kind:        models.KindSingleService,
		Name:        name,
		Price:       models.Price{Amount: 30},
		Duration:    &models.Duration{Hours: 0, Minutes: 45},
		Description: "Shampoing inclus",
		Photos:      []string{"photo-1.jpg"},
	}
}

func TestListEmptyWhenUninitialised(t *testing.T) {
	store, _ := newTestStore(t)
	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestListEmptyWhenSlotUnparseable(t *testing.T) {
	store, blob := newTestStore(t)
	require.NoError(t, blob.Set(context.Background(), DefaultKey, []byte("{not json")))

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateThenGet(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	tests := []struct {
		name   string
		fields models.Fields
		source models.Source
		status models.Status
	}{
		{"manual", sampleFields("Brushing"), models.SourceManual, models.StatusActive},
		{"flyer import", sampleFields("Coloration"), models.SourceFlyerImport, models.StatusPending},
		{"default source", models.Fields{Category: models.CategoryMen, Kind: models.KindPackage, Name: "Coupe + barbe"}, "", models.StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, err := store.Create(ctx, tt.fields, tt.source)
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.Equal(t, tt.status, created.Status)

			got, err := store.Get(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.fields, got.Fields)
			assert.Equal(t, created, got)
			if tt.source == "" {
				assert.Equal(t, models.SourceManual, got.Source)
			} else {
				assert.Equal(t, tt.source, got.Source)
			}
		})
	}
}

func TestCreateRejectsInvalidFields(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, models.Fields{Category: models.CategoryWomen, Kind: models.KindSingleService}, models.SourceManual)
	assert.ErrorIs(t, err, ErrInvalidFields)

	_, err = store.Create(ctx, sampleFields("Coupe"), models.Source("scanner"))
	assert.ErrorIs(t, err, ErrInvalidFields)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestIDFormatAndUniqueness(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	store := New(storage.NewMemoryBlob(), storage.NewLocalBus(), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	idRe := regexp.MustCompile(`^1700000000000-[0-9a-f]{12}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		p, err := store.Create(ctx, sampleFields(fmt.Sprintf("Service %d", i)), models.SourceManual)
		require.NoError(t, err)
		assert.Regexp(t, idRe, p.ID)
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	p, err := store.Create(ctx, sampleFields("Brushing"), models.SourceManual)
	require.NoError(t, err)
	other, err := store.Create(ctx, sampleFields("Coupe"), models.SourceManual)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, p.ID))
	_, err = store.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, p.ID))
	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Prestation{other}, list)
}

func TestUpdateUnknownLeavesCollectionUnchanged(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.Create(ctx, sampleFields("Brushing"), models.SourceManual)
	require.NoError(t, err)
	_, err = store.Create(ctx, sampleFields("Coloration"), models.SourceFlyerImport)
	require.NoError(t, err)

	before, err := store.List(ctx)
	require.NoError(t, err)

	_, err = store.Update(ctx, models.Prestation{ID: "missing", Fields: sampleFields("Ghost")})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.SetStatus(ctx, "missing", models.StatusActive)
	assert.ErrorIs(t, err, ErrNotFound)

	after, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateKeepsSourceAndStatus(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	p, err := store.Create(ctx, sampleFields("Coloration"), models.SourceFlyerImport)
	require.NoError(t, err)

	edited := models.Prestation{ID: p.ID, Fields: sampleFields("Coloration végétale"), Source: models.SourceManual}
	edited.Price = models.Price{Amount: 55, IsStartingPrice: true}

	got, err := store.Update(ctx, edited)
	require.NoError(t, err)
	assert.Equal(t, models.SourceFlyerImport, got.Source)
	assert.Equal(t, models.StatusPending, got.Status)

	stored, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coloration végétale", stored.Name)
	assert.Equal(t, 55, stored.Price.Amount)
	assert.True(t, stored.Price.IsStartingPrice)
}

func TestStatusLifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	p, err := store.Create(ctx, sampleFields("Balayage"), models.SourceFlyerImport)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, p.Status)

	active, err := store.SetStatus(ctx, p.ID, models.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, active.Status)

	_, err = store.SetStatus(ctx, p.ID, models.StatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	reverted := active
	reverted.Status = models.StatusPending
	_, err = store.Update(ctx, reverted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, stored.Status)

	manual, err := store.Create(ctx, sampleFields("Coupe"), models.SourceManual)
	require.NoError(t, err)
	_, err = store.SetStatus(ctx, manual.ID, models.StatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = store.SetStatus(ctx, manual.ID, models.Status("archived"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateMayPromote(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	p, err := store.Create(ctx, sampleFields("Mèches"), models.SourceFlyerImport)
	require.NoError(t, err)
	require.True(t, p.Pending())

	edited := p
	edited.Name = "Mèches cuivrées"
	edited.Status = models.StatusActive
	got, err := store.Update(ctx, edited)
	require.NoError(t, err)
	assert.False(t, got.Pending())

	stored, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, stored.Status)
	assert.Equal(t, "Mèches cuivrées", stored.Name)
}

func TestValidateAndReject(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	keep, err := store.Create(ctx, sampleFields("Brushing"), models.SourceFlyerImport)
	require.NoError(t, err)
	drop, err := store.Create(ctx, sampleFields("Erreur OCR"), models.SourceFlyerImport)
	require.NoError(t, err)

	validated, err := store.Validate(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, validated.Status)

	require.NoError(t, store.Reject(ctx, drop.ID))
	_, err = store.Get(ctx, drop.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	pending, err := store.ListStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOnChange(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	notifications := 0
	unsubscribe := store.OnChange(func() { notifications++ })

	p, err := store.Create(ctx, sampleFields("Brushing"), models.SourceFlyerImport)
	require.NoError(t, err)
	_, err = store.Validate(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, p.ID))
	assert.Equal(t, 3, notifications)

	// Failed mutations do not notify.
	_, err = store.SetStatus(ctx, "missing", models.StatusActive)
	require.Error(t, err)
	assert.Equal(t, 3, notifications)

	unsubscribe()
	_, err = store.Create(ctx, sampleFields("Coupe"), models.SourceManual)
	require.NoError(t, err)
	assert.Equal(t, 3, notifications)
}

func TestListenerSeesCommittedState(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	var seen int
	store.OnChange(func() {
		list, err := store.List(ctx)
		require.NoError(t, err)
		seen = len(list)
	})

	_, err := store.Create(ctx, sampleFields("Brushing"), models.SourceManual)
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
}

func TestWithKey(t *testing.T) {
	ctx := context.Background()
	blob := storage.NewMemoryBlob()
	store := New(blob, storage.NewLocalBus(), WithKey("salon-a"))
	assert.Equal(t, "salon-a", store.Key())

	_, err := store.Create(ctx, sampleFields("Brushing"), models.SourceManual)
	require.NoError(t, err)

	_, err = blob.Get(ctx, "salon-a")
	assert.NoError(t, err)
	_, err = blob.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	existing, err := store.Create(ctx, sampleFields("Brushing"), models.SourceManual)
	require.NoError(t, err)

	incoming := []models.Prestation{
		existing,
		{ID: "1-a", Fields: sampleFields("Coupe"), Status: models.StatusPending, Source: models.SourceFlyerImport},
	}

	added, err := store.Import(ctx, incoming, false)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	added, err = store.Import(ctx, incoming[1:], true)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, incoming[1:], list)

	bad := []models.Prestation{{ID: "2-b", Fields: sampleFields("Coupe"), Status: models.StatusPending, Source: models.SourceManual}}
	_, err = store.Import(ctx, bad, true)
	assert.ErrorIs(t, err, ErrInvalidFields)

	dup := []models.Prestation{incoming[1], incoming[1]}
	_, err = store.Import(ctx, dup, true)
	assert.ErrorIs(t, err, ErrInvalidFields)
}

// Random create/update/delete sequences must leave the same collection as a
// plain slice replaying them.
func TestReplayAgainstReferenceModel(t *testing.T) {
	ctx := context.Background()

	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			store, _ := newTestStore(t)
			var expected []models.Prestation

			for step := 0; step < 60; step++ {
				switch op := rng.Intn(4); {
				case op == 0 || len(expected) == 0:
					source := models.SourceManual
					if rng.Intn(2) == 0 {
						source = models.SourceFlyerImport
					}
					p, err := store.Create(ctx, sampleFields(fmt.Sprintf("S%d", step)), source)
					require.NoError(t, err)
					expected = append(expected, p)
				case op == 1:
					i := rng.Intn(len(expected))
					p := expected[i]
					p.Name = fmt.Sprintf("%s edited %d", p.Name, step)
					p.Price.Amount = rng.Intn(200)
					got, err := store.Update(ctx, p)
					require.NoError(t, err)
					expected[i] = got
				case op == 2:
					i := rng.Intn(len(expected))
					require.NoError(t, store.Delete(ctx, expected[i].ID))
					expected = append(expected[:i], expected[i+1:]...)
				default:
					i := rng.Intn(len(expected))
					got, err := store.Validate(ctx, expected[i].ID)
					require.NoError(t, err)
					expected[i] = got
				}
			}

			list, err := store.List(ctx)
			require.NoError(t, err)
			if len(expected) == 0 {
				assert.Empty(t, list)
				return
			}
			assert.Equal(t, expected, list)
		})
	}
}

func TestListenerMayMutate(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	// Auto-confirm every pending import from inside the listener.
	store.OnChange(func() {
		pending, err := store.ListStatus(ctx, models.StatusPending)
		require.NoError(t, err)
		for _, p := range pending {
			_, err := store.Validate(ctx, p.ID)
			require.NoError(t, err)
		}
	})

	p, err := store.Create(ctx, sampleFields("Brushing"), models.SourceFlyerImport)
	require.NoError(t, err)

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
}

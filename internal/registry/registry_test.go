package registry

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEntry struct {
	last time.Time
}

func (s *stubEntry) LastActivity() time.Time { return s.last }

func TestRegistryCreateAndGet(t *testing.T) {
	r := New[*stubEntry](clockwork.NewFakeClock())

	entry := &stubEntry{}
	id := r.Create(entry)
	require.NotEmpty(t, id)

	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Same(t, entry, got)
	assert.Equal(t, 1, r.Len())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistryCreateWithIDCollision(t *testing.T) {
	r := New[*stubEntry](clockwork.NewFakeClock())

	require.NoError(t, r.CreateWithID("fixed", &stubEntry{}))
	assert.Error(t, r.CreateWithID("fixed", &stubEntry{}))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryDeleteIdempotent(t *testing.T) {
	r := New[*stubEntry](clockwork.NewFakeClock())
	id := r.Create(&stubEntry{})

	r.Delete(id)
	r.Delete(id)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryDistinctIDs(t *testing.T) {
	r := New[*stubEntry](clockwork.NewFakeClock())
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := r.Create(&stubEntry{})
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestRegistryCleanupInactive(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := New[*stubEntry](clock)

	stale := &stubEntry{last: clock.Now().Add(-2 * time.Hour)}
	fresh := &stubEntry{last: clock.Now()}
	staleID := r.Create(stale)
	freshID := r.Create(fresh)

	removed := r.CleanupInactive(time.Hour)
	assert.Equal(t, 1, removed)

	_, ok := r.Get(staleID)
	assert.False(t, ok)
	_, ok = r.Get(freshID)
	assert.True(t, ok)
}

func TestRegistryAllSnapshot(t *testing.T) {
	r := New[*stubEntry](clockwork.NewFakeClock())
	r.Create(&stubEntry{})
	r.Create(&stubEntry{})

	all := r.All()
	assert.Len(t, all, 2)
}

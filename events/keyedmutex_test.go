package events

import (
	"sync"
	"testing"

	"clubhive/models"
)

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	km := NewKeyedMutex()

	// Non-atomic read-modify-write on shared state; only the keyed lock
	// keeps concurrent toggles for the same pair from losing updates.
	lists := map[string]*[]models.Participant{
		"ev1|alice": {},
		"ev1|bob":   {},
	}
	const toggles = 100

	var wg sync.WaitGroup
	for key := range lists {
		for i := 0; i < toggles; i++ {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				km.Lock(key)
				defer km.Unlock(key)
				login := key[4:]
				*lists[key], _ = toggleParticipant(*lists[key], login)
			}(key)
		}
	}
	wg.Wait()

	// An even number of toggles must land back on NotRegistered.
	for key, list := range lists {
		if len(*list) != 0 {
			t.Errorf("%s: %d toggles left %d entries, want 0", key, toggles, len(*list))
		}
	}
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	km := NewKeyedMutex()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("k")
			km.Unlock("k")
		}()
	}
	wg.Wait()

	km.mu.Lock()
	defer km.mu.Unlock()
	if len(km.entries) != 0 {
		t.Errorf("entries map holds %d stale locks, want 0", len(km.entries))
	}
}

package events

import (
	"context"
	"sync"
	"testing"

	"clubhive/models"
)

// memRegistrationStore is a version-checked in-memory stand-in for the
// events collection, good enough to exercise the retry loop.
type memRegistrationStore struct {
	mu       sync.Mutex
	event    models.Event
	counters map[string]int
	swaps    int
	retries  int
}

func newMemStore(ev models.Event) *memRegistrationStore {
	return &memRegistrationStore{event: ev, counters: map[string]int{}}
}

func (s *memRegistrationStore) fetch(_ context.Context, _ string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := s.event
	ev.Participants = append([]models.Participant(nil), s.event.Participants...)
	return &ev, nil
}

func (s *memRegistrationStore) swap(_ context.Context, _ string, version int64, list []models.Participant) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if version != s.event.Version {
		s.retries++
		return false, nil
	}
	s.event.Participants = list
	s.event.Version++
	s.swaps++
	return true, nil
}

func (s *memRegistrationStore) bump(_ context.Context, login string, joined bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if joined {
		s.counters[login]++
	} else if s.counters[login] > 0 {
		s.counters[login]--
	}
	return nil
}

func futureEvent() models.Event {
	return models.Event{
		EventID:   "evt1",
		Title:     "Robotics night",
		Date:      "2030-01-10",
		Time:      "14:00",
		MaxAttend: 100,
		CreatedBy: "chair",
	}
}

func TestToggleRegistrationConcurrentJoins(t *testing.T) {
	store := newMemStore(futureEvent())
	logins := []string{"ada", "grace", "linus", "ken", "rob"}

	var wg sync.WaitGroup
	joined := make([]bool, len(logins))
	errs := make([]error, len(logins))
	for i, login := range logins {
		wg.Add(1)
		go func(i int, login string) {
			defer wg.Done()
			joined[i], _, errs[i] = toggleRegistration(context.Background(), store, "evt1", login)
		}(i, login)
	}
	wg.Wait()

	for i, login := range logins {
		if errs[i] != nil {
			t.Fatalf("toggle for %s: %v", login, errs[i])
		}
		if !joined[i] {
			t.Errorf("%s reported left, want joined", login)
		}
	}

	got := map[string]int{}
	for _, p := range store.event.Participants {
		got[p.Login]++
	}
	for _, login := range logins {
		if got[login] != 1 {
			t.Errorf("login %s present %d times, want exactly once", login, got[login])
		}
	}
	if len(store.event.Participants) != len(logins) {
		t.Errorf("participants = %d, want %d", len(store.event.Participants), len(logins))
	}
	for _, login := range logins {
		if store.counters[login] != 1 {
			t.Errorf("register counter for %s = %d, want 1", login, store.counters[login])
		}
	}
}

// staleStore hands out an outdated version for the first few reads,
// forcing the conditional write to miss and the loop to retry.
type staleStore struct {
	*memRegistrationStore
	stale int
}

func (s *staleStore) fetch(ctx context.Context, eventID string) (*models.Event, error) {
	ev, err := s.memRegistrationStore.fetch(ctx, eventID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.stale > 0 {
		s.stale--
		ev.Version--
	}
	s.mu.Unlock()
	return ev, nil
}

func TestToggleRegistrationRetriesOnConflict(t *testing.T) {
	ev := futureEvent()
	ev.Version = 3
	store := &staleStore{memRegistrationStore: newMemStore(ev), stale: 2}

	joined, got, err := toggleRegistration(context.Background(), store, "evt1", "ada")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !joined {
		t.Error("reported left, want joined")
	}
	if !got.HasParticipant("ada") {
		t.Error("ada missing from returned event")
	}
	if store.retries != 2 {
		t.Errorf("conflicted writes = %d, want 2", store.retries)
	}
	if store.swaps != 1 {
		t.Errorf("successful writes = %d, want 1", store.swaps)
	}
}

func TestToggleRegistrationGivesUpAfterRepeatedConflicts(t *testing.T) {
	store := &staleStore{memRegistrationStore: newMemStore(futureEvent()), stale: maxCASRetries}

	_, _, err := toggleRegistration(context.Background(), store, "evt1", "ada")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if store.swaps != 0 {
		t.Errorf("successful writes = %d, want 0", store.swaps)
	}
}

func TestToggleRegistrationLeaveAfterJoin(t *testing.T) {
	store := newMemStore(futureEvent())

	if joined, _, err := toggleRegistration(context.Background(), store, "evt1", "ada"); err != nil || !joined {
		t.Fatalf("first toggle: joined=%v err=%v", joined, err)
	}
	joined, got, err := toggleRegistration(context.Background(), store, "evt1", "ada")
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if joined {
		t.Error("second toggle reported joined, want left")
	}
	if got.HasParticipant("ada") {
		t.Error("ada still registered after leaving")
	}
	if store.counters["ada"] != 0 {
		t.Errorf("register counter = %d, want 0", store.counters["ada"])
	}
}

func TestToggleRegistrationRejectsFinishedEvent(t *testing.T) {
	ev := futureEvent()
	ev.Date = "2020-01-10"
	store := newMemStore(ev)

	if _, _, err := toggleRegistration(context.Background(), store, "evt1", "ada"); err == nil {
		t.Fatal("expected error for finished event")
	}
}

package events

import (
	"net/url"
	"testing"

	"clubhive/models"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantSkip  int64
		wantLimit int64
	}{
		{"no params returns everything", "", 0, 0},
		{"page without limit still unbounded", "page=3", 0, 0},
		{"limit alone starts at first page", "limit=20", 0, 20},
		{"page and limit", "page=3&limit=20", 40, 20},
		{"garbage ignored", "page=abc&limit=-5", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			skip, limit := parsePagination(q)
			if skip != tt.wantSkip || limit != tt.wantLimit {
				t.Errorf("got skip=%d limit=%d, want skip=%d limit=%d", skip, limit, tt.wantSkip, tt.wantLimit)
			}
		})
	}
}

func TestValidateNewEvent(t *testing.T) {
	valid := models.Event{
		Title:     "Demo",
		Date:      "2025-01-10",
		Time:      "14:00",
		Location:  "Hall A",
		MaxAttend: 2,
	}
	if err := validateNewEvent(&valid); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*models.Event)
	}{
		{"missing title", func(e *models.Event) { e.Title = "" }},
		{"missing date", func(e *models.Event) { e.Date = "" }},
		{"bad date", func(e *models.Event) { e.Date = "10/01/2025" }},
		{"missing time", func(e *models.Event) { e.Time = "" }},
		{"bad time", func(e *models.Event) { e.Time = "2pm" }},
		{"missing location", func(e *models.Event) { e.Location = "" }},
		{"zero capacity", func(e *models.Event) { e.MaxAttend = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			if err := validateNewEvent(&e); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestToggleParticipant(t *testing.T) {
	var list []models.Participant

	list, joined := toggleParticipant(list, "alice")
	if !joined || len(list) != 1 {
		t.Fatalf("first toggle: joined=%v len=%d, want join with one entry", joined, len(list))
	}

	list, joined = toggleParticipant(list, "bob")
	if !joined || len(list) != 2 {
		t.Fatalf("bob join: joined=%v len=%d", joined, len(list))
	}

	// Toggling twice returns to NotRegistered.
	list, joined = toggleParticipant(list, "alice")
	if joined {
		t.Error("second alice toggle should leave")
	}
	for _, p := range list {
		if p.Login == "alice" {
			t.Error("alice still present after leave")
		}
	}
	if len(list) != 1 || list[0].Login != "bob" {
		t.Errorf("bob lost across alice's toggle: %+v", list)
	}
}

func TestToggleParticipantDeduplicates(t *testing.T) {
	list := []models.Participant{{Login: "alice"}, {Login: "alice"}}
	list, joined := toggleParticipant(list, "alice")
	if joined || len(list) != 0 {
		t.Errorf("duplicate entries must collapse on leave: joined=%v len=%d", joined, len(list))
	}
}

func TestPatchFieldsMergeSemantics(t *testing.T) {
	title := "New title"
	p := eventPatch{Title: &title}

	set, err := patchFields(&p)
	if err != nil {
		t.Fatal(err)
	}
	if set["title"] != "New title" {
		t.Errorf("title not patched: %v", set)
	}
	// An omitted participants key must never reach the update document.
	if _, ok := set["participants"]; ok {
		t.Error("omitted participants leaked into $set")
	}
}

func TestPatchFieldsValidation(t *testing.T) {
	zero := 0
	if _, err := patchFields(&eventPatch{MaxAttend: &zero}); err == nil {
		t.Error("maxAttend 0 accepted")
	}

	badDate := "next week"
	if _, err := patchFields(&eventPatch{Date: &badDate}); err == nil {
		t.Error("bad date accepted")
	}

	dupes := []models.Participant{{Login: "a"}, {Login: "a"}}
	if _, err := patchFields(&eventPatch{Participants: &dupes}); err == nil {
		t.Error("duplicate participant logins accepted")
	}
}

func TestPatchFieldsExplicitParticipants(t *testing.T) {
	parts := []models.Participant{{Login: "alice"}}
	set, err := patchFields(&eventPatch{Participants: &parts})
	if err != nil {
		t.Fatal(err)
	}
	got, ok := set["participants"].([]models.Participant)
	if !ok || len(got) != 1 || got[0].Login != "alice" {
		t.Errorf("explicit participants not patched: %v", set)
	}
}

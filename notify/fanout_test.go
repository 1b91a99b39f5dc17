package notify

import (
	"testing"
)

func TestPartition(t *testing.T) {
	logins := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		name string
		size int
		want []int
	}{
		{"exact multiple", 5, []int{5}},
		{"bounded chunks", 2, []int{2, 2, 1}},
		{"oversized batch", 10, []int{5}},
		{"degenerate size", 0, []int{1, 1, 1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := partition(logins, tt.size)
			if len(chunks) != len(tt.want) {
				t.Fatalf("chunks = %d, want %d", len(chunks), len(tt.want))
			}
			total := 0
			for i, c := range chunks {
				if len(c) != tt.want[i] {
					t.Errorf("chunk %d len = %d, want %d", i, len(c), tt.want[i])
				}
				total += len(c)
			}
			if total != len(logins) {
				t.Errorf("partition dropped recipients: %d of %d", total, len(logins))
			}
		})
	}
}

func TestPartitionEmpty(t *testing.T) {
	if chunks := partition(nil, 3); len(chunks) != 0 {
		t.Errorf("empty input produced %d chunks", len(chunks))
	}
}

func TestNewNotification(t *testing.T) {
	a := NewNotification("new_event", "Demo", "A new event", "ev1")
	b := NewNotification("new_event", "Demo", "A new event", "ev1")

	if a.ID == "" || a.ID == b.ID {
		t.Error("every record needs a fresh unique id")
	}
	if a.Read {
		t.Error("records start unread")
	}
	if a.EventID != "ev1" || a.Type != "new_event" {
		t.Errorf("fields not carried: %+v", a)
	}
	if a.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

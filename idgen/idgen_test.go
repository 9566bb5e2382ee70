package idgen

import (
	"strings"
	"testing"
)

func TestUUIDv7_Format(t *testing.T) {
	// WHAT: UUIDv7 produces canonical 36-character UUIDs.
	// WHY: Row IDs must be stable, comparable strings.
	gen := UUIDv7()
	id := gen()
	if len(id) != 36 {
		t.Fatalf("UUIDv7: got length %d: %q", len(id), id)
	}
	if strings.Count(id, "-") != 4 {
		t.Fatalf("UUIDv7: got %q, want canonical form", id)
	}
}

func TestUUIDv7_Sortable(t *testing.T) {
	// WHAT: Successive UUIDv7 values sort in generation order.
	// WHY: History rows rely on time-sortable IDs as a secondary order key.
	gen := UUIDv7()
	prev := gen()
	for i := 0; i < 100; i++ {
		id := gen()
		if id < prev {
			t.Fatalf("UUIDv7: %q sorts before earlier %q", id, prev)
		}
		prev = id
	}
}

func TestNanoID_LengthAndAlphabet(t *testing.T) {
	// WHAT: NanoID respects the requested length and base-36 alphabet.
	// WHY: Trace IDs end up in headers and logs; they must stay URL-safe.
	gen := NanoID(12)
	id := gen()
	if len(id) != 12 {
		t.Fatalf("NanoID(12): got length %d", len(id))
	}
	for _, c := range id {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'z')) {
			t.Fatalf("NanoID: unexpected character %q in %q", c, id)
		}
	}
}

func TestPrefixed(t *testing.T) {
	// WHAT: Prefixed prepends the type prefix to every generated ID.
	// WHY: Store rows are scoped by prefix ("hist_", "move_", "stat_").
	gen := Prefixed("hist_", UUIDv7())
	for i := 0; i < 10; i++ {
		id := gen()
		if !strings.HasPrefix(id, "hist_") {
			t.Fatalf("Prefixed: got %q, want hist_ prefix", id)
		}
		if len(id) != len("hist_")+36 {
			t.Fatalf("Prefixed: got length %d", len(id))
		}
	}
}

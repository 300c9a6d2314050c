package ids

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestNewULID(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a, err := NewULID(now)
	if err != nil {
		t.Fatalf("NewULID: %v", err)
	}
	b, err := NewULID(now.Add(time.Millisecond))
	if err != nil {
		t.Fatalf("NewULID: %v", err)
	}

	if len(a) != 26 || a == b {
		t.Fatalf("unexpected ids %q %q", a, b)
	}
	if a >= b {
		t.Fatalf("ids must sort by time: %q >= %q", a, b)
	}

	parsed, err := ulid.Parse(a)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := ulid.Time(parsed.Time()); !got.Equal(now) {
		t.Fatalf("embedded time=%v want %v", got, now)
	}
}

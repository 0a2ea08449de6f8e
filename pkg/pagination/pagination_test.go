package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "zero uses default", limit: 0, want: DefaultLimit},
		{name: "negative uses default", limit: -5, want: DefaultLimit},
		{name: "within range", limit: 40, want: 40},
		{name: "above max clamps", limit: 500, want: MaxLimit},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeLimit(tc.limit); got != tc.want {
				t.Fatalf("NormalizeLimit(%d) = %d, want %d", tc.limit, got, tc.want)
			}
		})
	}
}

func TestCursorRoundTrip(t *testing.T) {
	original := Cursor{
		CreatedAt: time.Date(2025, 3, 10, 9, 30, 0, 123456000, time.UTC),
		ID:        uuid.New(),
	}

	token := EncodeCursor(original)
	parsed, err := ParseCursor(token)
	if err != nil {
		t.Fatalf("ParseCursor returned error: %v", err)
	}
	if parsed == nil {
		t.Fatal("expected cursor, got nil")
	}
	if !parsed.CreatedAt.Equal(original.CreatedAt) {
		t.Fatalf("created at mismatch: got %v, want %v", parsed.CreatedAt, original.CreatedAt)
	}
	if parsed.ID != original.ID {
		t.Fatalf("id mismatch: got %s, want %s", parsed.ID, original.ID)
	}
}

func TestParseCursorEmpty(t *testing.T) {
	cursor, err := ParseCursor("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cursor != nil {
		t.Fatalf("expected nil cursor, got %+v", cursor)
	}
}

func TestParseCursorInvalid(t *testing.T) {
	if _, err := ParseCursor("not-base64!!"); err == nil {
		t.Fatal("expected error for invalid encoding")
	}
	if _, err := ParseCursor("bm90LWEtY3Vyc29y"); err == nil {
		t.Fatal("expected error for missing separator")
	}
}

func TestTrimPage(t *testing.T) {
	rows := []int{1, 2, 3, 4}

	trimmed, hasMore := TrimPage(rows, 3)
	if !hasMore {
		t.Fatal("expected next page")
	}
	if len(trimmed) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(trimmed))
	}

	trimmed, hasMore = TrimPage(rows, 10)
	if hasMore {
		t.Fatal("did not expect next page")
	}
	if len(trimmed) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(trimmed))
	}
}

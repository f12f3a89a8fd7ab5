package user

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewSanitizesFields(t *testing.T) {
	long := strings.Repeat("x", 40)

	tests := []struct {
		name     string
		id       any
		item     any
		userName any
		wantID   string
		wantItem *string
		wantName string
	}{
		{"plain", "abc", "5", "Alice", "abc", strPtr("5"), "Alice"},
		{"non string id", 12.0, "5", "Alice", FallbackID, strPtr("5"), "Alice"},
		{"null estimate", "abc", nil, "Alice", "abc", nil, "Alice"},
		{"numeric estimate", "abc", 3.0, "Alice", "abc", nil, "Alice"},
		{"missing name", "abc", "1", nil, "abc", strPtr("1"), AnonymousName},
		{"blank name", "abc", "1", "   ", "abc", strPtr("1"), AnonymousName},
		{"padded name", "abc", "1", "  Bob  ", "abc", strPtr("1"), "Bob"},
		{"long values", long, long, long, long[:30], strPtr(long[:30]), long[:30]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := New(tt.id, tt.item, tt.userName)
			if u.ID != tt.wantID {
				t.Errorf("id: got %q, want %q", u.ID, tt.wantID)
			}
			if u.Name != tt.wantName {
				t.Errorf("name: got %q, want %q", u.Name, tt.wantName)
			}
			switch {
			case tt.wantItem == nil && u.ItemNumber != nil:
				t.Errorf("item: got %q, want nil", *u.ItemNumber)
			case tt.wantItem != nil && (u.ItemNumber == nil || *u.ItemNumber != *tt.wantItem):
				t.Errorf("item: got %v, want %q", u.ItemNumber, *tt.wantItem)
			}
		})
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	s := strings.Repeat("ж", 35)
	got := Truncate(s)
	if n := len([]rune(got)); n != MaxFieldLength {
		t.Fatalf("expected %d runes, got %d", MaxFieldLength, n)
	}
}

func TestSanitizeIDRejectsNonStrings(t *testing.T) {
	if _, ok := SanitizeID(nil); ok {
		t.Fatal("nil id must not be accepted")
	}
	if _, ok := SanitizeID(true); ok {
		t.Fatal("bool id must not be accepted")
	}
	if id, ok := SanitizeID(""); !ok || id != "" {
		t.Fatalf("empty string is a valid id, got %q %v", id, ok)
	}
}

func TestCloneDetachesEstimate(t *testing.T) {
	u := New("a", "8", "A")
	c := u.Clone()
	*c.ItemNumber = "13"
	if *u.ItemNumber != "8" {
		t.Fatalf("clone shares estimate memory")
	}
}

func strPtr(s string) *string { return &s }

func TestSanitizedAppliesInputRules(t *testing.T) {
	long := strings.Repeat("é", MaxFieldLength+5)
	u := User{ID: long, ItemNumber: &long, Name: " \t"}

	got := u.Sanitized()
	if utf8.RuneCountInString(got.ID) != MaxFieldLength || utf8.RuneCountInString(*got.ItemNumber) != MaxFieldLength {
		t.Fatalf("fields not truncated: %+v", got)
	}
	if got.Name != AnonymousName {
		t.Fatalf("expected %q, got %q", AnonymousName, got.Name)
	}
	if got.ItemNumber == u.ItemNumber {
		t.Fatal("sanitized copy shares the estimate")
	}
	if (User{ID: "a"}).Sanitized().ItemNumber != nil {
		t.Fatal("a null estimate must stay null")
	}
}

package domain

import (
	"errors"
	"testing"
)

func TestNewSearchQueryDefaults(t *testing.T) {
	t.Parallel()

	q := NewSearchQuery(" Gaming ", "pc, indie", " Jane ", 0)
	if q.Niche != "Gaming" || q.Name != "Jane" {
		t.Fatalf("fields not trimmed: %+v", q)
	}
	if q.Limit != 20 {
		t.Fatalf("limit default: got %d, want 20", q.Limit)
	}
	if len(q.Keywords) != 2 || q.Keywords[0] != "pc" || q.Keywords[1] != "indie" {
		t.Fatalf("keywords: got %v", q.Keywords)
	}
}

func TestSearchQueryEmptyAndValidate(t *testing.T) {
	t.Parallel()

	blank := NewSearchQuery("", "", "", 10)
	if !blank.Empty() {
		t.Fatalf("expected blank query to be empty")
	}
	if err := blank.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank query: got %v, want ErrInvalidInput", err)
	}
	if err := NewSearchQuery("gaming", "", "", 0).Validate(); err != nil {
		t.Fatalf("niche-only query should validate: %v", err)
	}
}

func TestSearchQueryEqualIsKeywordSetBased(t *testing.T) {
	t.Parallel()

	a := NewSearchQuery("gaming", "pc indie", "", 20)
	b := NewSearchQuery("gaming", "indie pc", "", 20)
	if !a.Equal(b) {
		t.Fatalf("keyword order should not matter: %v vs %v", a, b)
	}
	c := NewSearchQuery("gaming", "pc", "", 20)
	if a.Equal(c) {
		t.Fatalf("different keyword sets should not be equal")
	}
	d := NewSearchQuery("gaming", "pc indie", "", 50)
	if a.Equal(d) {
		t.Fatalf("different limits should not be equal")
	}
}

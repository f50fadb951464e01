package domain

import (
	"errors"
	"testing"
)

func TestCampaignStatusStep(t *testing.T) {
	t.Parallel()

	walk := []CampaignStatus{CampaignDraft, CampaignActive, CampaignPaused, CampaignActive, CampaignCompleted}
	for i := 1; i < len(walk); i++ {
		if err := CampaignStatusStep(walk[i-1], walk[i]); err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", walk[i-1], walk[i], err)
		}
	}

	// Same-status request is a no-op success.
	if err := CampaignStatusStep(CampaignActive, CampaignActive); err != nil {
		t.Fatalf("active -> active: %v", err)
	}

	if err := CampaignStatusStep(CampaignDraft, CampaignCompleted); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("draft -> completed: got %v, want ErrIllegalTransition", err)
	}
	if err := CampaignStatusStep(CampaignCompleted, CampaignActive); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("completed -> active: got %v, want ErrIllegalTransition", err)
	}
	if err := CampaignStatusStep(CampaignPaused, CampaignInactive); err != nil {
		t.Fatalf("paused -> inactive: %v", err)
	}
	// Completion is only reachable from active; a paused campaign resumes
	// first.
	if err := CampaignStatusStep(CampaignPaused, CampaignCompleted); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("paused -> completed: got %v, want ErrIllegalTransition", err)
	}
}

func TestValidateBudget(t *testing.T) {
	t.Parallel()

	if err := ValidateBudget(nil); err != nil {
		t.Fatalf("nil budget should be allowed: %v", err)
	}
	if err := ValidateBudget(&BudgetRange{Min: 100, Max: 500}); err != nil {
		t.Fatalf("valid range: %v", err)
	}
	if err := ValidateBudget(&BudgetRange{Min: -1, Max: 10}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative min: got %v", err)
	}
	if err := ValidateBudget(&BudgetRange{Min: 500, Max: 100}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("min above max: got %v", err)
	}
}

func TestNormalizeKeywords(t *testing.T) {
	t.Parallel()

	got := NormalizeKeywords("Gaming, fitness  tech,gaming\nFITNESS")
	want := []string{"gaming", "fitness", "tech"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if got := NormalizeKeywords("   "); len(got) != 0 {
		t.Fatalf("blank input: got %v", got)
	}
}

package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignInactive  CampaignStatus = "inactive"
)

type BudgetRange struct {
	Min float64
	Max float64
}

type Campaign struct {
	CampaignID   uuid.UUID
	SponsorID    uuid.UUID
	Niche        string
	Audience     string
	Budget       *BudgetRange
	Keywords     []string
	Requirements string
	Status       CampaignStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// campaignEdges defines the campaign status machine. Campaign status is
// independent of the relationship lifecycle; it only gates whether new
// invitations may be created (active campaigns only).
var campaignEdges = map[CampaignStatus][]CampaignStatus{
	CampaignDraft:     {CampaignActive, CampaignInactive},
	CampaignActive:    {CampaignPaused, CampaignCompleted, CampaignInactive},
	CampaignPaused:    {CampaignActive, CampaignInactive},
	CampaignInactive:  {},
	CampaignCompleted: {},
}

func NormalizeCampaignStatus(raw string) CampaignStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "draft":
		return CampaignDraft
	case "active":
		return CampaignActive
	case "paused":
		return CampaignPaused
	case "completed":
		return CampaignCompleted
	case "inactive":
		return CampaignInactive
	default:
		return ""
	}
}

// CampaignStatusStep validates a campaign status change.
func CampaignStatusStep(current, requested CampaignStatus) error {
	if requested == current {
		return nil
	}
	for _, next := range campaignEdges[current] {
		if next == requested {
			return nil
		}
	}
	return fmt.Errorf("%w: campaign cannot move from %s to %s", ErrIllegalTransition, current, requested)
}

func ValidateBudget(budget *BudgetRange) error {
	if budget == nil {
		return nil
	}
	if budget.Min < 0 || budget.Max < 0 {
		return fmt.Errorf("%w: budget must be non-negative", ErrInvalidInput)
	}
	if budget.Min > budget.Max {
		return fmt.Errorf("%w: budget min exceeds max", ErrInvalidInput)
	}
	return nil
}

func ValidateNiche(niche string) error {
	if strings.TrimSpace(niche) == "" {
		return fmt.Errorf("%w: niche is required", ErrInvalidInput)
	}
	if len(niche) > 120 {
		return fmt.Errorf("%w: niche too long", ErrInvalidInput)
	}
	return nil
}

// NormalizeKeywords parses comma/space-delimited keyword input into a
// deduplicated, lowercased set. Order of the returned slice is first
// occurrence; consumers treat it as a set.
func NormalizeKeywords(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		kw := strings.ToLower(strings.TrimSpace(f))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

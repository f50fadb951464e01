package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
)

// Actor identifies the authenticated caller. Role comes from verified
// claims; the service trusts it as handed.
type Actor struct {
	UserID uuid.UUID
	Role   domain.ActorRole
}

type BudgetRangeInput struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type CreateCampaignRequest struct {
	Niche        string            `json:"niche"`
	Audience     string            `json:"audience,omitempty"`
	Budget       *BudgetRangeInput `json:"budget,omitempty"`
	Keywords     string            `json:"keywords,omitempty"`
	Requirements string            `json:"requirements,omitempty"`
}

type UpdateCampaignRequest struct {
	Niche        *string           `json:"niche,omitempty"`
	Audience     *string           `json:"audience,omitempty"`
	Budget       *BudgetRangeInput `json:"budget,omitempty"`
	Keywords     *string           `json:"keywords,omitempty"`
	Requirements *string           `json:"requirements,omitempty"`
}

type CampaignResponse struct {
	CampaignID   string            `json:"campaign_id"`
	SponsorID    string            `json:"sponsor_id"`
	Niche        string            `json:"niche"`
	Audience     string            `json:"audience,omitempty"`
	Budget       *BudgetRangeInput `json:"budget,omitempty"`
	Keywords     []string          `json:"keywords,omitempty"`
	Requirements string            `json:"requirements,omitempty"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type RelationshipResponse struct {
	CampaignID   string     `json:"campaign_id"`
	InfluencerID string     `json:"influencer_id"`
	Status       string     `json:"status"`
	Note         string     `json:"note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	RejectedAt   *time.Time `json:"rejected_at,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
}

type CreateRelationshipRequest struct {
	InfluencerID string `json:"influencer_id"`
	Note         string `json:"note,omitempty"`
}

type TransitionRequest struct {
	Action string `json:"action"`
}

type SearchRequest struct {
	Niche    string `json:"niche,omitempty"`
	Keywords string `json:"keywords,omitempty"`
	Name     string `json:"name,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type CandidateView struct {
	CandidateID      string   `json:"candidate_id"`
	DisplayName      string   `json:"display_name"`
	RelevanceScore   float64  `json:"relevance_score"`
	MatchingKeywords []string `json:"matching_keywords,omitempty"`
	Annotation       string   `json:"annotation,omitempty"`
}

type SearchSessionResponse struct {
	SessionID  string          `json:"session_id"`
	Candidates []CandidateView `json:"candidates"`
	LastError  string          `json:"last_error,omitempty"`
	Searching  bool            `json:"searching"`
}

type CampaignCountsResponse struct {
	CampaignID string         `json:"campaign_id"`
	Counts     map[string]int `json:"counts"`
	Total      int            `json:"total"`
}

type DashboardCountsResponse struct {
	SponsorID string                   `json:"sponsor_id"`
	Campaigns []CampaignCountsResponse `json:"campaigns"`
	Totals    map[string]int           `json:"totals"`
}

func toCampaignResponse(c domain.Campaign) CampaignResponse {
	resp := CampaignResponse{
		CampaignID:   c.CampaignID.String(),
		SponsorID:    c.SponsorID.String(),
		Niche:        c.Niche,
		Audience:     c.Audience,
		Keywords:     c.Keywords,
		Requirements: c.Requirements,
		Status:       string(c.Status),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	if c.Budget != nil {
		resp.Budget = &BudgetRangeInput{Min: c.Budget.Min, Max: c.Budget.Max}
	}
	return resp
}

func toRelationshipResponse(r domain.Relationship) RelationshipResponse {
	return RelationshipResponse{
		CampaignID:   r.CampaignID.String(),
		InfluencerID: r.InfluencerID.String(),
		Status:       string(r.Status),
		Note:         r.Note,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		AcceptedAt:   r.AcceptedAt,
		RejectedAt:   r.RejectedAt,
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
		CancelledAt:  r.CancelledAt,
	}
}

func toCandidateViews(candidates []domain.Candidate) []CandidateView {
	out := make([]CandidateView, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, CandidateView{
			CandidateID:      c.CandidateID,
			DisplayName:      c.DisplayName,
			RelevanceScore:   c.RelevanceScore,
			MatchingKeywords: c.MatchingKeywords,
			Annotation:       c.Annotation,
		})
	}
	return out
}

package postgres

import (
	"strings"

	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
)

func toDomainCampaign(m campaignModel) domain.Campaign {
	campaign := domain.Campaign{
		CampaignID:   m.CampaignID,
		SponsorID:    m.SponsorID,
		Niche:        m.Niche,
		Audience:     m.Audience,
		Keywords:     splitKeywords(m.Keywords),
		Requirements: m.Requirements,
		Status:       domain.CampaignStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.BudgetMin != nil && m.BudgetMax != nil {
		campaign.Budget = &domain.BudgetRange{Min: *m.BudgetMin, Max: *m.BudgetMax}
	}
	return campaign
}

func toDomainRelationship(m relationshipModel) domain.Relationship {
	return domain.Relationship{
		CampaignID:   m.CampaignID,
		InfluencerID: m.InfluencerID,
		Status:       domain.RelationshipStatus(m.Status),
		Note:         m.Note,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		AcceptedAt:   m.AcceptedAt,
		RejectedAt:   m.RejectedAt,
		StartedAt:    m.StartedAt,
		CompletedAt:  m.CompletedAt,
		CancelledAt:  m.CancelledAt,
	}
}

func joinKeywords(keywords []string) string {
	return strings.Join(keywords, ",")
}

func splitKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

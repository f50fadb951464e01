package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/ports"
)

func (s *Service) CreateCampaign(ctx context.Context, actor Actor, req CreateCampaignRequest) (CampaignResponse, error) {
	if actor.Role != domain.RoleSponsor {
		return CampaignResponse{}, fmt.Errorf("%w: only sponsors create campaigns", domain.ErrForbidden)
	}
	if err := domain.ValidateNiche(req.Niche); err != nil {
		return CampaignResponse{}, err
	}
	budget, err := toBudgetRange(req.Budget)
	if err != nil {
		return CampaignResponse{}, err
	}

	created, err := s.campaigns.Create(ctx, ports.CreateCampaignParams{
		SponsorID:    actor.UserID,
		Niche:        req.Niche,
		Audience:     req.Audience,
		Budget:       budget,
		Keywords:     domain.NormalizeKeywords(req.Keywords),
		Requirements: req.Requirements,
		CreatedAt:    s.nowFn(),
	})
	if err != nil {
		return CampaignResponse{}, err
	}
	return toCampaignResponse(created), nil
}

func (s *Service) GetCampaign(ctx context.Context, campaignID uuid.UUID) (CampaignResponse, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return CampaignResponse{}, err
	}
	return toCampaignResponse(campaign), nil
}

func (s *Service) ListCampaigns(ctx context.Context, actor Actor) ([]CampaignResponse, error) {
	campaigns, err := s.campaigns.ListBySponsor(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]CampaignResponse, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, toCampaignResponse(c))
	}
	return out, nil
}

func (s *Service) UpdateCampaign(ctx context.Context, actor Actor, campaignID uuid.UUID, req UpdateCampaignRequest) (CampaignResponse, error) {
	campaign, err := s.ownedCampaign(ctx, actor, campaignID)
	if err != nil {
		return CampaignResponse{}, err
	}
	if campaign.Status == domain.CampaignCompleted || campaign.Status == domain.CampaignInactive {
		return CampaignResponse{}, fmt.Errorf("%w: campaign is closed", domain.ErrConflict)
	}
	if req.Niche != nil {
		if err := domain.ValidateNiche(*req.Niche); err != nil {
			return CampaignResponse{}, err
		}
	}
	budget, err := toBudgetRange(req.Budget)
	if err != nil {
		return CampaignResponse{}, err
	}
	var keywords []string
	if req.Keywords != nil {
		keywords = domain.NormalizeKeywords(*req.Keywords)
	}

	updated, err := s.campaigns.Update(ctx, ports.UpdateCampaignParams{
		CampaignID:   campaignID,
		Niche:        req.Niche,
		Audience:     req.Audience,
		Budget:       budget,
		Keywords:     keywords,
		Requirements: req.Requirements,
		UpdatedAt:    s.nowFn(),
	})
	if err != nil {
		return CampaignResponse{}, err
	}
	return toCampaignResponse(updated), nil
}

func (s *Service) ChangeCampaignStatus(ctx context.Context, actor Actor, campaignID uuid.UUID, rawStatus string) (CampaignResponse, error) {
	requested := domain.NormalizeCampaignStatus(rawStatus)
	if requested == "" {
		return CampaignResponse{}, fmt.Errorf("%w: unknown campaign status %q", domain.ErrInvalidInput, rawStatus)
	}
	campaign, err := s.ownedCampaign(ctx, actor, campaignID)
	if err != nil {
		return CampaignResponse{}, err
	}
	if err := domain.CampaignStatusStep(campaign.Status, requested); err != nil {
		return CampaignResponse{}, err
	}
	if requested == campaign.Status {
		return toCampaignResponse(campaign), nil
	}

	updated, err := s.campaigns.UpdateStatus(ctx, campaignID, requested, s.nowFn())
	if err != nil {
		return CampaignResponse{}, err
	}
	_ = s.enqueueCampaignStatusChanged(ctx, updated, campaign.Status)
	return toCampaignResponse(updated), nil
}

// ownedCampaign loads a campaign and enforces sponsor ownership: campaigns
// are mutated only through sponsor-initiated operations.
func (s *Service) ownedCampaign(ctx context.Context, actor Actor, campaignID uuid.UUID) (domain.Campaign, error) {
	if actor.Role != domain.RoleSponsor {
		return domain.Campaign{}, fmt.Errorf("%w: sponsor role required", domain.ErrForbidden)
	}
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	if campaign.SponsorID != actor.UserID {
		return domain.Campaign{}, fmt.Errorf("%w: campaign belongs to another sponsor", domain.ErrForbidden)
	}
	return campaign, nil
}

func toBudgetRange(in *BudgetRangeInput) (*domain.BudgetRange, error) {
	if in == nil {
		return nil, nil
	}
	budget := &domain.BudgetRange{Min: in.Min, Max: in.Max}
	if err := domain.ValidateBudget(budget); err != nil {
		return nil, err
	}
	return budget, nil
}

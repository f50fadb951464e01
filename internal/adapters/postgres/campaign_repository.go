package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/ports"
	"gorm.io/gorm"
)

type campaignRepository struct {
	db *gorm.DB
}

func (r *campaignRepository) Create(ctx context.Context, params ports.CreateCampaignParams) (domain.Campaign, error) {
	rec := campaignModel{
		SponsorID:    params.SponsorID,
		Niche:        strings.TrimSpace(params.Niche),
		Audience:     strings.TrimSpace(params.Audience),
		Keywords:     joinKeywords(params.Keywords),
		Requirements: params.Requirements,
		Status:       string(domain.CampaignDraft),
		CreatedAt:    params.CreatedAt,
		UpdatedAt:    params.CreatedAt,
	}
	if params.Budget != nil {
		rec.BudgetMin = &params.Budget.Min
		rec.BudgetMax = &params.Budget.Max
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Campaign{}, err
	}
	return toDomainCampaign(rec), nil
}

func (r *campaignRepository) GetByID(ctx context.Context, campaignID uuid.UUID) (domain.Campaign, error) {
	var rec campaignModel
	if err := r.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Campaign{}, domain.ErrNotFound
		}
		return domain.Campaign{}, err
	}
	return toDomainCampaign(rec), nil
}

func (r *campaignRepository) ListBySponsor(ctx context.Context, sponsorID uuid.UUID) ([]domain.Campaign, error) {
	var recs []campaignModel
	if err := r.db.WithContext(ctx).Where("sponsor_id = ?", sponsorID).Order("created_at desc").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Campaign, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainCampaign(rec))
	}
	return out, nil
}

func (r *campaignRepository) Update(ctx context.Context, params ports.UpdateCampaignParams) (domain.Campaign, error) {
	updates := map[string]any{
		"updated_at": params.UpdatedAt,
	}
	if params.Niche != nil {
		updates["niche"] = strings.TrimSpace(*params.Niche)
	}
	if params.Audience != nil {
		updates["audience"] = strings.TrimSpace(*params.Audience)
	}
	if params.Budget != nil {
		updates["budget_min"] = params.Budget.Min
		updates["budget_max"] = params.Budget.Max
	}
	if params.Keywords != nil {
		updates["keywords"] = joinKeywords(params.Keywords)
	}
	if params.Requirements != nil {
		updates["requirements"] = *params.Requirements
	}

	res := r.db.WithContext(ctx).Model(&campaignModel{}).Where("campaign_id = ?", params.CampaignID).Updates(updates)
	if res.Error != nil {
		return domain.Campaign{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Campaign{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, params.CampaignID)
}

func (r *campaignRepository) UpdateStatus(ctx context.Context, campaignID uuid.UUID, status domain.CampaignStatus, at time.Time) (domain.Campaign, error) {
	res := r.db.WithContext(ctx).Model(&campaignModel{}).
		Where("campaign_id = ?", campaignID).
		Updates(map[string]any{"status": string(status), "updated_at": at})
	if res.Error != nil {
		return domain.Campaign{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Campaign{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, campaignID)
}
